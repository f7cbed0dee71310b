package pipeline

import "fmt"

// Stage names, used to tag failures with where they happened.
const (
	StageAcquisition = "acquisition"
	StageSectioning  = "sectioning"
	StageExtraction  = "extraction"
	StageFallback    = "fallback"
	StageArtifact    = "artifact"
	StageInternal    = "pipeline"
)

// StageError wraps a stage failure with the stage it happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
