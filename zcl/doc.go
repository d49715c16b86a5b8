// Package zcl implements the Zigbee Cluster Library frame format: the frame
// header (frame-control bits, optional manufacturer code, transaction
// sequence number, command id), the foundation/general command set (read,
// write, report, configure-reporting, discover), and the attribute value
// tagged union that every one of those commands carries.
//
// Cluster-specific command schemas live in package cluster, which builds on
// the types defined here; zcl itself only knows about the ~50 wire type
// tags and the general commands that are common to every cluster.
package zcl

import "errors"

// ErrShortFrame is returned when a buffer is too short to contain a valid
// frame header.
var ErrShortFrame = errors.New("zcl: buffer too short for frame header")

// ErrUnknownType is returned when an attribute type tag has no registered
// codec.
var ErrUnknownType = errors.New("zcl: unknown attribute type tag")
