package ota

import "errors"

var (
	// ErrSessionInProgress is returned by UpdateFirmware when the target
	// device already has an active upgrade session.
	ErrSessionInProgress = errors.New("ota: upgrade session already in progress for this device")

	// ErrNoImage is returned when the index has no image matching the key
	// UpdateFirmware was asked to send.
	ErrNoImage = errors.New("ota: no matching image in index")

	// ErrMalformedFrame is returned when an inbound OTA command's bytes
	// don't match its declared schema.
	ErrMalformedFrame = errors.New("ota: malformed frame")
)
