// Package cluster implements the per-cluster registry (schema metadata:
// attributes by id and name, server/client command schemas) and the
// runtime cluster instance (attribute cache, constant-attribute overlay,
// configure-reporting, command dispatch, listener emission) that an
// endpoint owns one of per (cluster id, role).
package cluster

import "errors"

// ErrUnknownAttribute is returned when a name or id does not resolve
// against a cluster's registered attribute schema.
var ErrUnknownAttribute = errors.New("cluster: unknown attribute")

// ErrUnknownCommand is returned when a command id or name does not resolve
// against a cluster's registered command schema.
var ErrUnknownCommand = errors.New("cluster: unknown command")
