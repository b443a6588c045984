package spine

import "errors"

// Sentinel errors for the spine package.
var (
	// ErrNilProvider is returned when NewRenderer gets a nil device provider.
	ErrNilProvider = errors.New("spine: nil DeviceProvider")

	// ErrUnsupportedDevice is returned when a provider's device or queue is
	// not a hal device.
	ErrUnsupportedDevice = errors.New("spine: provider device is not a hal.Device")

	// ErrInvalidIndexCount is returned when a mesh index count is not a
	// multiple of three.
	ErrInvalidIndexCount = errors.New("spine: index count is not a multiple of 3")

	// ErrIndexOutOfRange is returned when a mesh index points past its vertices.
	ErrIndexOutOfRange = errors.New("spine: index out of range")

	// ErrCapacityExceeded is returned when a frame does not fit the vertex or
	// index buffers.
	ErrCapacityExceeded = errors.New("spine: frame exceeds buffer capacity")

	// ErrMissingTexture is returned when a non-empty mesh has no texture bound.
	ErrMissingTexture = errors.New("spine: mesh has no texture")

	// ErrInvalidSize is returned for non-positive target dimensions.
	ErrInvalidSize = errors.New("spine: invalid size")

	// ErrClosed is returned when rendering with a closed renderer.
	ErrClosed = errors.New("spine: renderer is closed")

	// ErrUnknownBlendMode is returned by ParseBlendMode.
	ErrUnknownBlendMode = errors.New("spine: unknown blend mode")

	// ErrMalformedAtlas is returned by ParseAtlas for unreadable page headers.
	ErrMalformedAtlas = errors.New("spine: malformed atlas")
)
