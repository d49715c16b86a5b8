package ota

import "time"

// defaultMaxTimeWithoutProgress is how long a session may go without a
// query_next_image, image_block, or upgrade_end before the watchdog calls
// it stalled.
const defaultMaxTimeWithoutProgress = 60 * time.Second

type options struct {
	maxTimeWithoutProgress time.Duration
}

func defaultOptions() *options {
	return &options{maxTimeWithoutProgress: defaultMaxTimeWithoutProgress}
}

// Option configures a Manager.
type Option func(*options)

// WithMaxTimeWithoutProgress overrides the stall watchdog's timeout.
func WithMaxTimeWithoutProgress(d time.Duration) Option {
	return func(o *options) { o.maxTimeWithoutProgress = d }
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
