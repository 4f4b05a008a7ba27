package pipeline

import (
	"errors"
	"fmt"
)

// ErrCredentialMissing indicates the EIA API key is not configured. It
// is raised before any network I/O happens.
var ErrCredentialMissing = errors.New("EIA API key not found; set EIAPIPE_API_KEY (or API_KEY) in the environment or .env")

// ArtifactMissingError indicates a stage was invoked without its
// predecessor's persisted artifact. The message tells the operator
// which stage to run first.
type ArtifactMissingError struct {
	Path     string // missing artifact path
	RunFirst string // command that produces it
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("artifact not found at %s; run %q first", e.Path, e.RunFirst)
}

// StageError wraps a stage failure with the stage's name so the run
// report can say where the pipeline stopped.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
