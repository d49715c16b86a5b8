package zdo

import "errors"

var (
	// ErrUnknownDevice is returned when an operation names a NWK address
	// absent from the controller's device table.
	ErrUnknownDevice = errors.New("zdo: unknown device")

	// ErrRequestFailed wraps a response whose status was not SUCCESS; the
	// status's name is appended to the error text only, so errors.As
	// cannot recover the Status value itself.
	ErrRequestFailed = errors.New("zdo: request failed")

	// ErrMalformedFrame is returned when an inbound or outbound frame's
	// bytes don't match the command's declared schema.
	ErrMalformedFrame = errors.New("zdo: malformed frame")

	// ErrUnsupportedCommand is returned by request helpers for a command
	// id the registry knows by name but has no wire codec for.
	ErrUnsupportedCommand = errors.New("zdo: unsupported command")
)
