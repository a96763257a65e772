package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when registering a device_id already in use.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDeviceID is returned when a device_id is empty or malformed.
	ErrInvalidDeviceID = errors.New("device: invalid device id")

	// ErrInvalidData is returned when a data payload is missing or too large.
	ErrInvalidData = errors.New("device: invalid data")

	// ErrInvalidNotes is returned when notes exceed the length limit.
	ErrInvalidNotes = errors.New("device: invalid notes")

	// ErrInvalidAPIKey is returned when a presented API key matches no device.
	ErrInvalidAPIKey = errors.New("device: invalid api key")

	// ErrMismatchedDevice is returned when a valid key is used to post data
	// for a different device_id.
	ErrMismatchedDevice = errors.New("device: mismatched device id")
)
