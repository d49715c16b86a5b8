package controller

// defaultMaxConcurrentRequests is the initial DynamicBoundedSemaphore
// capacity: config key max_concurrent_requests overrides it.
const defaultMaxConcurrentRequests = 16

type options struct {
	maxConcurrentRequests int
	autoForm              bool
	coordinatorEndpoint   uint8
}

func defaultOptions() *options {
	return &options{
		maxConcurrentRequests: defaultMaxConcurrentRequests,
		autoForm:              false,
		coordinatorEndpoint:   1,
	}
}

// Option configures a Controller at construction time.
type Option func(*options)

// WithMaxConcurrentRequests sets the initial concurrency-gate capacity.
func WithMaxConcurrentRequests(n int) Option {
	return func(o *options) { o.maxConcurrentRequests = n }
}

// WithAutoForm controls Startup's behavior when load_network_info reports
// the network is not yet formed: true forms one before retrying the load,
// false propagates the error.
func WithAutoForm(enabled bool) Option {
	return func(o *options) { o.autoForm = enabled }
}

// WithCoordinatorEndpoint overrides the application endpoint (default 1)
// outbound packets are sourced from.
func WithCoordinatorEndpoint(ep uint8) Option {
	return func(o *options) { o.coordinatorEndpoint = ep }
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}
	return o
}
