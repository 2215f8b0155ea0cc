// Package capability models an optional external dependency that is resolved
// once at startup. A Capability is either Available with a handle or
// Unavailable with a reason, and never changes afterwards.
package capability

type Capability[T any] struct {
	handle    T
	available bool
	reason    string
}

func Available[T any](handle T) Capability[T] {
	return Capability[T]{handle: handle, available: true}
}

func Unavailable[T any](reason string) Capability[T] {
	return Capability[T]{reason: reason}
}

// Get returns the handle and whether it can be used.
func (c Capability[T]) Get() (T, bool) {
	return c.handle, c.available
}

func (c Capability[T]) IsAvailable() bool {
	return c.available
}

// Reason explains why the dependency is unavailable.
func (c Capability[T]) Reason() string {
	return c.reason
}
