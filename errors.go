package physics

import "errors"

var (
	// ErrInvalidHandle is returned for freed or wrong-kind RIDs.
	ErrInvalidHandle = errors.New("physics: invalid handle")
	// ErrInvalidShapeData is returned when a shape payload has the wrong form.
	ErrInvalidShapeData = errors.New("physics: invalid shape data")
	// ErrShapeNotConfigured is returned when an unconfigured shape is used.
	ErrShapeNotConfigured = errors.New("physics: shape not configured")
	// ErrSpaceLocked is returned for queries and mutations refused mid-step.
	ErrSpaceLocked = errors.New("physics: space is locked")
	// ErrInvalidParameter is returned for out-of-range parameters.
	ErrInvalidParameter = errors.New("physics: invalid parameter")
	// ErrNoSpace is returned when an operation needs the object to be in a space.
	ErrNoSpace = errors.New("physics: object is not in a space")
)
