package backup

import "time"

// defaultCounterIncrement is how far ahead of a restored backup's
// network-key frame counter the radio is told to start, to tolerate
// in-flight transmissions by devices that still believe the old counter.
const defaultCounterIncrement = 10_000

// defaultBackupInterval is how often StartPeriodicBackups snapshots the
// network when the caller doesn't override it.
const defaultBackupInterval = time.Hour

type options struct {
	counterIncrement uint32
	backupInterval   time.Duration
}

func defaultOptions() *options {
	return &options{
		counterIncrement: defaultCounterIncrement,
		backupInterval:   defaultBackupInterval,
	}
}

// Option configures a Manager.
type Option func(*options)

// WithCounterIncrement overrides the frame-counter gap RestoreBackup
// writes ahead of the restored backup's own counter.
func WithCounterIncrement(n uint32) Option {
	return func(o *options) { o.counterIncrement = n }
}

// WithBackupInterval overrides StartPeriodicBackups' default period.
func WithBackupInterval(d time.Duration) Option {
	return func(o *options) { o.backupInterval = d }
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RestoreOptions controls RestoreBackup's behavior.
type RestoreOptions struct {
	// Force restores an incomplete backup anyway, instead of failing
	// with ErrIncompleteBackup.
	Force bool

	// CreateAfter takes a fresh backup immediately after a successful
	// restore, capturing the post-restore counter state.
	CreateAfter bool
}

// DefaultRestoreOptions returns the default restore options: refuse
// incomplete backups, and snapshot again once the restore succeeds.
func DefaultRestoreOptions() *RestoreOptions {
	return &RestoreOptions{Force: false, CreateAfter: true}
}
