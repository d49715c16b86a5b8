package ota

import (
	"time"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/types"
)

// sessionState is the internal progress marker; the caller-visible outcome
// of a session is always a single types.Status (SUCCESS, NO_IMAGE_AVAILABLE,
// TIMEOUT, FAILURE, MALFORMED_COMMAND, or the non-success status a device
// reports in its upgrade end request), not this state.
type sessionState int

const (
	stateWaitQuery sessionState = iota
	stateStream
	stateTerminal
)

// session is one device's upgrade attempt, from image_notify through
// upgrade_end or abort.
type session struct {
	dev   *device.Device
	ep    types.EndpointID
	image Image
	force bool
	send  cluster.Sender

	state sessionState

	progress chan struct{}
	closed   chan struct{}
	result   chan types.Status
}

func newSession(dev *device.Device, ep types.EndpointID, image Image, force bool, send cluster.Sender) *session {
	return &session{
		dev:      dev,
		ep:       ep,
		image:    image,
		force:    force,
		send:     send,
		state:    stateWaitQuery,
		progress: make(chan struct{}, 1),
		closed:   make(chan struct{}),
		result:   make(chan types.Status, 1),
	}
}

// touch records forward progress, resetting the stall watchdog.
func (s *session) touch() {
	select {
	case s.progress <- struct{}{}:
	default:
	}
}

// finish marks the session terminal and wakes its watchdog and any waiter.
// Safe to call more than once; only the first call has an effect.
func (s *session) finish(status types.Status) {
	if s.state == stateTerminal {
		return
	}
	s.state = stateTerminal
	s.result <- status
	close(s.closed)
}

// watchdog aborts the session with TIMEOUT if touch is not called within
// maxTimeWithoutProgress of the last call (or session start).
func (s *session) watchdog(maxTimeWithoutProgress time.Duration, finish func(types.Status)) {
	timer := time.NewTimer(maxTimeWithoutProgress)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			finish(types.NewStatus(types.StatusTimeout))
			return
		case <-s.progress:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(maxTimeWithoutProgress)
		case <-s.closed:
			return
		}
	}
}
