package app

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected  = errors.New("user not connected")
	ErrAlreadyInCall = errors.New("user already in a call")
)

// Pipeline stages, used to attribute a collaborator failure.
const (
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageSynthesize = "synthesize"
)

// PipelineError marks which stage of a translate-synthesize run failed.
// The run is not retried; audio already forwarded stays forwarded.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
