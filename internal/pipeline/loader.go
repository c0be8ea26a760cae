package pipeline

import (
	"errors"
	"sync"
)

// ModelLoader owns a single cached handle to a loaded model. Creation is lazy
// and mutex-guarded so racing callers load at most once; calling EnsureLoaded
// with a different reference replaces the cached handle (last-loaded-wins).
// Handles are never released explicitly, process teardown reclaims them.
type ModelLoader[H any] struct {
	mu     sync.Mutex
	open   func(ref string) (H, error)
	ref    string
	handle H
	loaded bool
}

func NewModelLoader[H any](open func(ref string) (H, error)) *ModelLoader[H] {
	return &ModelLoader[H]{open: open}
}

// EnsureLoaded returns the cached handle for ref, loading it first if needed.
// A missing or malformed asset surfaces as ModelLoadError and is not retried.
func (l *ModelLoader[H]) EnsureLoaded(ref string) (H, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero H
	if ref == "" {
		return zero, &ModelLoadError{Ref: ref, Err: errors.New("empty model reference")}
	}
	if l.loaded && l.ref == ref {
		return l.handle, nil
	}

	handle, err := l.open(ref)
	if err != nil {
		return zero, &ModelLoadError{Ref: ref, Err: err}
	}

	l.ref = ref
	l.handle = handle
	l.loaded = true
	return handle, nil
}
