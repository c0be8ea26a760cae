package pipeline

import "fmt"

// The three failure kinds every analysis can surface. All of them are fatal
// for the current request and are never retried by the pipeline itself; the
// caller decides what to show the user.

// ModelLoadError reports a missing or malformed model asset.
type ModelLoadError struct {
	Ref string
	Err error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("model load failed for %q: %v", e.Ref, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// PreprocessError reports input that could not be turned into a tensor.
// The user has to supply different input.
type PreprocessError struct {
	Err error
}

func (e *PreprocessError) Error() string {
	return fmt.Sprintf("preprocess failed: %v", e.Err)
}

func (e *PreprocessError) Unwrap() error { return e.Err }

// InferenceError reports a model/tensor contract violation: empty,
// wrong-length, or non-numeric output. Needs a code or asset fix, not a retry.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
