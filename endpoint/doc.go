// Package endpoint implements the per-endpoint cluster maps and the ZCL
// deserialize entry point: given a cluster id and inbound frame bytes, pick
// the right cluster instance and decode the header and payload against its
// schema.
package endpoint

import "errors"

// ErrZDOEndpoint is returned when application-layer endpoint operations are
// attempted against endpoint 0, which speaks ZDO, not ZCL.
var ErrZDOEndpoint = errors.New("endpoint: endpoint 0 is reserved for ZDO")
