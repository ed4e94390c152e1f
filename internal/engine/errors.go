package engine

import "fmt"

// EngineError indicates the primary engine failed to produce a response
// (transport failure, non-2xx status, provider-side error). It is absorbed
// by the coordinator's fallback and never surfaces to callers.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s engine error: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// MalformedOutputError indicates the primary engine responded, but the payload
// failed structural validation (non-JSON body, missing required shape, or
// confidence scores outside [0,1]).
type MalformedOutputError struct {
	Engine string
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s engine returned malformed output: %s", e.Engine, e.Reason)
}
