package group

import "errors"

var (
	// ErrGroupNotFound is returned by operations on a group id the Manager
	// has no record of.
	ErrGroupNotFound = errors.New("group: not found")

	// ErrDeviceNotFound is returned when AddMember names an IEEE address
	// the device table has no entry for.
	ErrDeviceNotFound = errors.New("group: device not found")

	// ErrEndpointNotFound is returned when AddMember names an endpoint id
	// the device has no entry for.
	ErrEndpointNotFound = errors.New("group: endpoint not found")
)
