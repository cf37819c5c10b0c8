package domain

import "errors"

var (
	// ErrNoMathDelimiter signals markup without any $ character.
	ErrNoMathDelimiter = errors.New("need $ to wrap expression as latex")
	// ErrMarkupTooLarge signals markup above the configured byte limit.
	ErrMarkupTooLarge = errors.New("latex exceeds the allowed size")
)

// ValidationError reports an unusable request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// RenderError is a failure raised by the typesetting backend. Message is
// safe to return to the caller; Trace is for operators only.
type RenderError struct {
	Message string
	Trace   string
	Err     error
}

func (e *RenderError) Error() string { return e.Message }

func (e *RenderError) Unwrap() error { return e.Err }

// NewRenderError wraps a backend error, keeping its message verbatim.
func NewRenderError(err error) *RenderError {
	return &RenderError{Message: err.Error(), Err: err}
}
