package device

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Validation limits.
const (
	maxNotesLength = 2048

	// maxDataKeys and maxDataBytes bound a single reading.
	maxDataKeys  = 100
	maxDataBytes = 16 * 1024
)

var deviceIDRegex = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// ValidateDeviceID checks a device_id: 1-128 characters of letters,
// digits, dot, underscore, colon or hyphen.
func ValidateDeviceID(id string) error {
	if !deviceIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
	}
	return nil
}

// ValidateNotes checks free-form notes.
func ValidateNotes(notes string) error {
	if len(notes) > maxNotesLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidNotes, maxNotesLength)
	}
	return nil
}

// ValidateData checks a reading payload: a non-nil object with at most
// maxDataKeys keys encoding to at most maxDataBytes.
func ValidateData(data map[string]any) error {
	if data == nil {
		return fmt.Errorf("%w: missing", ErrInvalidData)
	}
	if len(data) > maxDataKeys {
		return fmt.Errorf("%w: more than %d keys", ErrInvalidData, maxDataKeys)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if len(b) > maxDataBytes {
		return fmt.Errorf("%w: exceeds %d bytes", ErrInvalidData, maxDataBytes)
	}
	return nil
}
