package placenorm

import "fmt"

// NormalizationErrorKind classifies a NormalizationError.
type NormalizationErrorKind string

const (
	ErrKindAmbiguousArea NormalizationErrorKind = "AmbiguousArea"
	ErrKindEmptyArea     NormalizationErrorKind = "EmptyArea"
)

// NormalizationError is returned by the place normalizer (C4). It is
// surfaced to the caller before any graph load — the search never starts.
type NormalizationError struct {
	Kind  NormalizationErrorKind
	Input string
	Err   error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("normalize %q: %s: %v", e.Input, e.Kind, e.Err)
	}
	return fmt.Sprintf("normalize %q: %s", e.Input, e.Kind)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

func newNormalizationError(input string, kind NormalizationErrorKind, err error) *NormalizationError {
	return &NormalizationError{Kind: kind, Input: input, Err: err}
}
