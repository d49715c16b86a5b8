// Package wire implements the ZCL/Zigbee primitive wire types: fixed and
// variable width integers, length-prefixed collections, booleans, enums,
// bitmaps, and the handful of composite encodings (IEEE/NWK addresses,
// channel masks) every higher layer builds on.
//
// Every type in this package follows the same two-operation contract: a
// Serialize function that returns the encoded bytes, and a Deserialize
// function that consumes a prefix of its input and returns the decoded
// value plus whatever bytes remain. Fixed-width integers are little-endian,
// matching the Zigbee NWK/APS wire format. Deserialize functions never
// panic on short input; they return ErrShortBuffer.
package wire

import "errors"

// ErrShortBuffer is returned when a Deserialize call needs more bytes than
// are present in its input.
var ErrShortBuffer = errors.New("wire: buffer too short")
