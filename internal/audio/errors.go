package audio

import "errors"

var (
	ErrEndpointUnavailable = errors.New("audio: no default render endpoint")
	ErrActivation          = errors.New("audio: volume control activation failed")
	ErrRegistration        = errors.New("audio: notification registration failed")
	ErrQuery               = errors.New("audio: volume query failed")
	ErrDisposed            = errors.New("audio: monitor disposed")

	// ErrNotFound is returned by Enumerator implementations when no device
	// currently holds the requested default role.
	ErrNotFound = errors.New("audio: device not found")
)
