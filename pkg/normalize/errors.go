package normalize

import "errors"

// ReasonEmpty is reported when no entry survived normalization.
const ReasonEmpty = "No valid parameters found in code"

// ErrNormalization matches every *NormalizationError via errors.Is.
var ErrNormalization = errors.New("normalize: normalization failed")

// NormalizationError reports an unusable parameter entry, or an empty
// result when Key is blank.
type NormalizationError struct {
	Key    string
	Reason string
}

func (e *NormalizationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Key != "" {
		return "normalize: " + e.Key + ": " + e.Reason
	}
	return "normalize: " + e.Reason
}

func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}
