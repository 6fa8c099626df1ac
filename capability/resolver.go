package capability

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lecternproj/lectern/config"
	"github.com/lecternproj/lectern/formula"
	"github.com/lecternproj/lectern/ocr"
)

// Resolve probes the process environment and returns the capability set
// for a job. The builtin table engines are always present; the rest
// depend on configuration and on what was compiled in.
func Resolve(cfg *config.Config) Set {
	entries := map[Capability]Info{
		TableEngineA: {Available: true, Version: "builtin"},
		TableEngineB: {Available: true, Version: "builtin"},
	}

	if fields := strings.Fields(cfg.LayoutModelCommand); len(fields) > 0 {
		if path, err := exec.LookPath(fields[0]); err == nil {
			entries[LayoutModel] = Info{Available: true, Version: filepath.Base(path)}
		}
	}

	if ocr.Enabled() {
		entries[OCREngineA] = Info{Available: true, Version: ocr.Version()}
	}
	if cfg.OCREndpoint != "" {
		entries[OCREngineB] = Info{Available: true, Version: "http"}
	}

	if formula.MathSupported() {
		entries[FormulaMath] = Info{Available: true, Version: formula.MathVersion()}
	}

	return NewSet(entries)
}
