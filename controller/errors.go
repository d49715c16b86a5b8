package controller

import "errors"

var (
	// ErrAlreadyStarted is returned by Startup when the controller has
	// already formed or loaded a network.
	ErrAlreadyStarted = errors.New("controller: already started")

	// ErrNotStarted is returned by operations that require a formed
	// network (Send, PermitJoin, Broadcast) before Startup has run.
	ErrNotStarted = errors.New("controller: not started")

	// ErrDeliveryNotConfirmed is returned when the radio reports a
	// send_packet call completed but the MAC/NWK layer did not confirm
	// delivery.
	ErrDeliveryNotConfirmed = errors.New("controller: packet not delivered")

	// ErrUnknownDevice is returned when an operation names an IEEE
	// address absent from the device table.
	ErrUnknownDevice = errors.New("controller: unknown device")

	// ErrNWKAddressConflict marks the supplemented handle_join case (e):
	// a join announces a NWK address already held by a different IEEE,
	// requiring eviction of the stale entry before the new one can take
	// the slot.
	ErrNWKAddressConflict = errors.New("controller: nwk address reassigned to a different device")
)
