package topology

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/internal/logging"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zdo"
)

type tableKind int

const (
	tableNeighbor tableKind = iota
	tableRouting
)

func (k tableKind) String() string {
	if k == tableRouting {
		return "routing"
	}
	return "neighbor"
}

// Scanner polls every router-class device's neighbor and routing tables.
// Exactly one scan runs at a time: Scan cancels whatever scan is currently
// active and starts a new one in the background.
type Scanner struct {
	zdo     ZDOClient
	devices DeviceProvider
	joins   JoinHandler
	opts    *options
	log     zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu          sync.Mutex
	gen         uint64
	unsupported map[types.IEEEAddress]map[tableKind]bool
}

// NewScanner binds a Scanner to the collaborators it polls and reports
// discoveries through.
func NewScanner(zdoClient ZDOClient, devices DeviceProvider, joins JoinHandler, opts ...Option) *Scanner {
	return &Scanner{
		zdo:         zdoClient,
		devices:     devices,
		joins:       joins,
		opts:        applyOptions(opts),
		log:         logging.For("topology"),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		unsupported: make(map[types.IEEEAddress]map[tableKind]bool),
	}
}

// Scan cancels whatever scan is currently running and starts a new one,
// returning a channel that closes once this scan (not a later one that may
// preempt it) finishes. ctx bounds the whole scan, not just one device.
func (s *Scanner) Scan(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	s.gen++
	myGen := s.gen
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.runScan(ctx, myGen)
	}()
	return done
}

// StartPeriodicScans runs scans back to back, sleeping period between each
// completion. A scan of this loop that an explicit Scan call elsewhere
// preempts counts as completed: the loop still waits out period before
// starting its own next scan.
func (s *Scanner) StartPeriodicScans(ctx context.Context, period time.Duration) {
	go func() {
		<-s.Scan(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(period):
			}
			<-s.Scan(ctx)
		}
	}()
}

func (s *Scanner) currentGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Scanner) preempted(myGen uint64) bool {
	return s.currentGen() != myGen
}

func (s *Scanner) runScan(ctx context.Context, myGen uint64) {
	for _, dev := range s.devices.Devices() {
		if ctx.Err() != nil || s.preempted(myGen) {
			return
		}
		if !s.eligible(dev) {
			continue
		}
		s.scanDevice(ctx, dev)
		if s.preempted(myGen) {
			return
		}
		if err := s.pace(ctx); err != nil {
			return
		}
	}
}

func (s *Scanner) eligible(dev *device.Device) bool {
	lt := dev.NodeDescriptor().LogicalType
	if lt == types.LogicalTypeEndDevice {
		return false
	}
	return lt != types.LogicalTypeCoordinator || !s.opts.skipCoordinator
}

func (s *Scanner) pace(ctx context.Context) error {
	s.rngMu.Lock()
	span := s.opts.paceMax - s.opts.paceMin
	d := s.opts.paceMin
	if span > 0 {
		d += time.Duration(s.rng.Int63n(int64(span)))
	}
	s.rngMu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// scanDevice fans the neighbor and routing table polls for dev out onto
// two goroutines: the two tables share nothing but the device, and a
// device slow to answer one table poll shouldn't delay the start of the
// other. The group's context is canceled the moment the scan's own ctx is,
// so an expired or canceled scan stops both in-flight polls promptly
// rather than waiting for the slower one to finish on its own. Preemption
// by a newer scan does not reach the polls: runScan checks it only between
// devices, so the current device's polls run to completion.
func (s *Scanner) scanDevice(ctx context.Context, dev *device.Device) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.scanTable(gctx, dev, tableNeighbor)
		return nil
	})
	g.Go(func() error {
		s.scanTable(gctx, dev, tableRouting)
		return nil
	})
	g.Wait()
}

func (s *Scanner) scanTable(ctx context.Context, dev *device.Device, kind tableKind) {
	if s.isUnsupported(dev.IEEE, kind) {
		return
	}

	var startIndex uint8
	for page := 0; page < s.opts.maxPages; page++ {
		fetched, total, status, err := s.fetchPage(ctx, dev, kind, startIndex)
		if err != nil {
			s.log.Debug().Err(err).Str("ieee", dev.IEEE.String()).Str("table", kind.String()).Msg("table page request failed")
			return
		}
		if status == zdo.NewStatus(zdo.StatusNotSupported) {
			s.markUnsupported(dev.IEEE, kind)
			return
		}
		if !status.IsSuccess() {
			s.log.Debug().Str("ieee", dev.IEEE.String()).Str("table", kind.String()).Str("status", status.String()).Msg("table page request refused")
			return
		}
		startIndex += uint8(fetched)
		if fetched == 0 || int(startIndex) >= total {
			return
		}
	}
}

// fetchPage issues one Mgmt_Lqi_req/Mgmt_Rtg_req page and returns how many
// entries it carried, the table's total entry count as reported by the
// device, and the response status. Discovered neighbors/routes are handed
// off to maybeDiscover before returning.
func (s *Scanner) fetchPage(ctx context.Context, dev *device.Device, kind tableKind, startIndex uint8) (int, int, zdo.Status, error) {
	if kind == tableNeighbor {
		rsp, err := s.zdo.MgmtLqi(ctx, dev.NWK(), startIndex)
		if err != nil {
			return 0, 0, zdo.Status{}, err
		}
		for _, n := range rsp.Neighbors {
			s.maybeDiscover(ctx, n.NWK, dev.NWK())
		}
		return len(rsp.Neighbors), int(rsp.Entries), rsp.Status, nil
	}
	rsp, err := s.zdo.MgmtRtg(ctx, dev.NWK(), startIndex)
	if err != nil {
		return 0, 0, zdo.Status{}, err
	}
	for _, r := range rsp.Routes {
		s.maybeDiscover(ctx, r.DstNWK, dev.NWK())
		s.maybeDiscover(ctx, r.NextHop, dev.NWK())
	}
	return len(rsp.Routes), int(rsp.Entries), rsp.Status, nil
}

// maybeDiscover resolves nwk's IEEE and admits it via HandleJoin if it has
// no device-table entry yet. It runs in its own goroutine: a discovery
// that stalls must not hold up the table page it was found in.
func (s *Scanner) maybeDiscover(ctx context.Context, nwk, via types.NWKAddress) {
	if nwk == 0 || nwk == via {
		return
	}
	if _, ok := s.devices.DeviceByNWK(nwk); ok {
		return
	}
	go func() {
		discCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.discoveryTimeout)
		defer cancel()
		ieee, err := s.zdo.ResolveIEEE(discCtx, nwk)
		if err != nil {
			s.log.Debug().Err(err).Str("nwk", nwk.String()).Msg("unknown device ieee resolution failed")
			return
		}
		s.joins.HandleJoin(discCtx, nwk, ieee, via)
	}()
}

func (s *Scanner) isUnsupported(ieee types.IEEEAddress, kind tableKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsupported[ieee][kind]
}

func (s *Scanner) markUnsupported(ieee types.IEEEAddress, kind tableKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsupported[ieee] == nil {
		s.unsupported[ieee] = make(map[tableKind]bool)
	}
	s.unsupported[ieee][kind] = true
}
