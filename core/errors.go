package core

import (
	"errors"
	"fmt"

	"github.com/santiagomed/appcannon/llm"
)

var (
	// ErrLLMResponseInvalid means a phase finished without producing the state it must produce.
	ErrLLMResponseInvalid = errors.New("invalid LLM response")
	// ErrStateInvariant means a phase was started before its input state existed.
	ErrStateInvariant = errors.New("build state invariant violated")
)

// BuildError is the single failure type returned by Pipeline.Execute.
type BuildError struct {
	Step     StepType
	File     string
	Attempts int
	Err      error
}

func newBuildError(step StepType, file string, err error) *BuildError {
	be := &BuildError{Step: step, File: file, Err: err}
	var re *llm.RetryError
	if errors.As(err, &re) {
		be.Attempts = re.Attempts
	}
	return be
}

func (e *BuildError) Error() string {
	msg := e.Step.String() + " failed"
	if e.File != "" {
		msg += fmt.Sprintf(" for %s", e.File)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
