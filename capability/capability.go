// Package capability resolves which optional detectors and engines are
// available to the pipeline. Resolution runs once per job and the result
// is an immutable Set shared read-only by every stage; no stage probes
// the environment on its own.
package capability

// Capability identifies one optional detector or engine.
type Capability string

const (
	// LayoutModel is the external region-detection model.
	LayoutModel Capability = "layout_model"
	// TableEngineA is the ruling-line table extractor.
	TableEngineA Capability = "table_engine_a"
	// TableEngineB is the whitespace-clustering table extractor.
	TableEngineB Capability = "table_engine_b"
	// OCREngineA is the compiled-in tesseract binding.
	OCREngineA Capability = "ocr_engine_a"
	// OCREngineB is the remote OCR service.
	OCREngineB Capability = "ocr_engine_b"
	// FormulaMath is TeX to MathML rendering.
	FormulaMath Capability = "formula_math"
)

// All returns every known capability in reporting order.
func All() []Capability {
	return []Capability{
		LayoutModel,
		TableEngineA,
		TableEngineB,
		OCREngineA,
		OCREngineB,
		FormulaMath,
	}
}

// Info describes one resolved capability.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// Set is an immutable snapshot of resolved capabilities.
type Set struct {
	caps map[Capability]Info
}

// NewSet builds a set from explicit entries. Capabilities absent from
// entries are unavailable. The input map is copied.
func NewSet(entries map[Capability]Info) Set {
	caps := make(map[Capability]Info, len(entries))
	for c, info := range entries {
		caps[c] = info
	}
	return Set{caps: caps}
}

// Has reports whether a capability resolved as available.
func (s Set) Has(c Capability) bool {
	return s.caps[c].Available
}

// Version returns the version tag of an available capability, or the
// empty string when unavailable or untagged.
func (s Set) Version(c Capability) string {
	return s.caps[c].Version
}

// Missing returns the known capabilities that resolved unavailable, in
// reporting order.
func (s Set) Missing() []Capability {
	var missing []Capability
	for _, c := range All() {
		if !s.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Report returns the full capability map for quality reporting. The
// returned map is a copy and covers every known capability.
func (s Set) Report() map[Capability]Info {
	report := make(map[Capability]Info, len(s.caps))
	for _, c := range All() {
		report[c] = s.caps[c]
	}
	return report
}
