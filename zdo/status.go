package zdo

import "fmt"

// Status is a ZDO response status byte. It shares its shape with
// types.Status (a known/unknown sum that always remembers the raw byte)
// but not its table: ZDO's status space is its own, unrelated to the ZCL
// general-command status codes a cluster response carries, and the two
// overlap at several byte values with different meanings.
type Status struct {
	known   KnownStatus
	raw     uint8
	isKnown bool
}

// KnownStatus enumerates the ZDO status codes.
type KnownStatus uint8

const (
	StatusSuccess            KnownStatus = 0x00
	StatusInvRequestType     KnownStatus = 0x80
	StatusDeviceNotFound     KnownStatus = 0x81
	StatusInvalidEP          KnownStatus = 0x82
	StatusNotActive          KnownStatus = 0x83
	StatusNotSupported       KnownStatus = 0x84
	StatusTimeout            KnownStatus = 0x85
	StatusNoMatch            KnownStatus = 0x86
	StatusNoEntry            KnownStatus = 0x88
	StatusNoDescriptor       KnownStatus = 0x89
	StatusInsufficientSpace  KnownStatus = 0x8A
	StatusNotPermitted       KnownStatus = 0x8B
	StatusTableFull          KnownStatus = 0x8C
	StatusNotAuthorized      KnownStatus = 0x8D
)

var knownStatusNames = map[KnownStatus]string{
	StatusSuccess:           "SUCCESS",
	StatusInvRequestType:    "INV_REQUESTTYPE",
	StatusDeviceNotFound:    "DEVICE_NOT_FOUND",
	StatusInvalidEP:         "INVALID_EP",
	StatusNotActive:         "NOT_ACTIVE",
	StatusNotSupported:      "NOT_SUPPORTED",
	StatusTimeout:           "TIMEOUT",
	StatusNoMatch:           "NO_MATCH",
	StatusNoEntry:           "NO_ENTRY",
	StatusNoDescriptor:      "NO_DESCRIPTOR",
	StatusInsufficientSpace: "INSUFFICIENT_SPACE",
	StatusNotPermitted:      "NOT_PERMITTED",
	StatusTableFull:         "TABLE_FULL",
	StatusNotAuthorized:     "NOT_AUTHORIZED",
}

// NewStatus wraps a known status constant.
func NewStatus(k KnownStatus) Status {
	return Status{known: k, raw: uint8(k), isKnown: true}
}

// NewStatusFromByte decodes a wire status byte, falling back to Unknown
// rather than erroring for a byte this core has no name for.
func NewStatusFromByte(b uint8) Status {
	if _, ok := knownStatusNames[KnownStatus(b)]; ok {
		return Status{known: KnownStatus(b), raw: b, isKnown: true}
	}
	return Status{raw: b, isKnown: false}
}

// Byte returns the wire encoding of the status.
func (s Status) Byte() uint8 { return s.raw }

// IsSuccess reports whether the status is the known SUCCESS value.
func (s Status) IsSuccess() bool {
	return s.isKnown && s.known == StatusSuccess
}

// String renders the known name, or "UNKNOWN(0xNN)" for an unrecognized byte.
func (s Status) String() string {
	if s.isKnown {
		return knownStatusNames[s.known]
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", s.raw)
}
