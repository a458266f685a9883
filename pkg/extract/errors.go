package extract

import "errors"

const (
	// ReasonNotFound is reported when no declaration idiom matched.
	ReasonNotFound = "Could not find parameters definition in code"
	// ReasonParseFailed is reported when a fragment was located but is
	// neither JSON-convertible nor evaluable as a literal.
	ReasonParseFailed = "Parameter parsing failed"
)

// ErrExtraction matches every *ExtractionError via errors.Is.
var ErrExtraction = errors.New("extract: extraction failed")

// ExtractionError reports why no parameter schema could be recovered from a
// script. It is always recoverable by uploading a corrected script.
type ExtractionError struct {
	Reason string
	Stage  Stage
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return "extract: " + e.Reason + ": " + e.Cause.Error()
	}
	return "extract: " + e.Reason
}

// Unwrap exposes the underlying decoding failure, if any.
func (e *ExtractionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is lets errors.Is(err, ErrExtraction) match any extraction error.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

func notFound() error {
	return &ExtractionError{Reason: ReasonNotFound}
}

func parseFailed(stage Stage, cause error) error {
	return &ExtractionError{Reason: ReasonParseFailed, Stage: stage, Cause: cause}
}
