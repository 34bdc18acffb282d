package gpu

import "errors"

var (
	// ErrReleased is returned when a released handle is used.
	ErrReleased = errors.New("gpu: resource already released")

	// ErrForeignResource is returned when a handle from another device or
	// backend is passed in.
	ErrForeignResource = errors.New("gpu: resource belongs to another device")

	// ErrNotMappable is returned by Map for buffers without dynamic usage and
	// CPU write access.
	ErrNotMappable = errors.New("gpu: buffer is not CPU-writable")

	// ErrAlreadyMapped is returned by Map when the buffer is still mapped.
	ErrAlreadyMapped = errors.New("gpu: buffer is already mapped")

	// ErrInputLayoutMismatch is returned by CreateInputLayout when the element
	// table disagrees with the vertex stage inputs.
	ErrInputLayoutMismatch = errors.New("gpu: input layout does not match vertex shader inputs")

	// ErrInvalidDescriptor is returned for descriptors that can never be valid.
	ErrInvalidDescriptor = errors.New("gpu: invalid descriptor")

	// ErrIncompleteState is returned by DrawIndexed when required pipeline
	// state has not been bound.
	ErrIncompleteState = errors.New("gpu: incomplete pipeline state")

	// ErrNoWindow is returned when a swap chain is requested without a window.
	ErrNoWindow = errors.New("gpu: no window")
)
