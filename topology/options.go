package topology

import "time"

// Defaults: a handful of pages bounds per-device scan latency, and a
// small inter-device jitter window avoids hammering the network.
const (
	defaultMaxPages         = 8
	defaultPaceMin          = 100 * time.Millisecond
	defaultPaceMax          = 500 * time.Millisecond
	defaultSkipCoordinator  = true
	defaultDiscoveryTimeout = 10 * time.Second
)

type options struct {
	maxPages         int
	paceMin, paceMax time.Duration
	skipCoordinator  bool
	discoveryTimeout time.Duration
}

func defaultOptions() *options {
	return &options{
		maxPages:         defaultMaxPages,
		paceMin:          defaultPaceMin,
		paceMax:          defaultPaceMax,
		skipCoordinator:  defaultSkipCoordinator,
		discoveryTimeout: defaultDiscoveryTimeout,
	}
}

// Option configures a Scanner at construction time.
type Option func(*options)

// WithMaxPages caps how many StartIndex pages a single table fetch issues
// per device before giving up, bounding one device's contribution to scan
// latency regardless of how large its neighbor or routing table is.
func WithMaxPages(n int) Option {
	return func(o *options) { o.maxPages = n }
}

// WithPacing sets the uniformly random delay range between devices within
// one scan pass.
func WithPacing(min, max time.Duration) Option {
	return func(o *options) { o.paceMin, o.paceMax = min, max }
}

// WithSkipCoordinator controls whether the coordinator's own entry (if
// ever present in the device table) is polled like any other router.
func WithSkipCoordinator(skip bool) Option {
	return func(o *options) { o.skipCoordinator = skip }
}

// WithDiscoveryTimeout bounds how long an unknown-NWK IEEE resolution
// (triggered by a neighbor or route referencing an address this core has
// never seen) is allowed to take before it's abandoned.
func WithDiscoveryTimeout(d time.Duration) Option {
	return func(o *options) { o.discoveryTimeout = d }
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}
	return o
}
