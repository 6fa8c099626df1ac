package lectern

import (
	"errors"
	"fmt"

	"github.com/lecternproj/lectern/capability"
)

// Sentinel errors for the fatal pipeline failures. Everything else the
// stages hit degrades into warnings on the quality report instead of
// failing the job.
var (
	// ErrIngestion marks a document that could not be opened, parsed,
	// or matched against its recorded identity.
	ErrIngestion = errors.New("document ingestion failed")

	// ErrAlignment marks an audio track whose segments do not cover
	// the produced chunks.
	ErrAlignment = errors.New("audio alignment mismatch")
)

// CapabilityError reports work that needed an optional capability that
// did not resolve for this run.
type CapabilityError struct {
	Capability capability.Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s unavailable", e.Capability)
}
