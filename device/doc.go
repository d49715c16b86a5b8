// Package device implements the per-device endpoint map and the
// NEW→ZDO_INIT→ENDPOINTS_INIT initialization state machine: discover
// active endpoints, populate each one's simple descriptor and clusters,
// then resolve model/manufacturer strings from the Basic cluster.
package device

import "errors"

// ErrNotInitialized is returned by operations that require
// ENDPOINTS_INIT status on a device that hasn't reached it yet.
var ErrNotInitialized = errors.New("device: not initialized")
