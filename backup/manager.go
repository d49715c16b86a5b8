package backup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/internal/logging"
	"github.com/tj-smith47/zigbee-core/transport"
)

// Manager retains a history of network backups and can snapshot, restore,
// and periodically refresh them. A backup only enters the history if it
// isn't fully superseded by one already there, and any backups it itself
// supersedes are evicted on the way in.
type Manager struct {
	radio transport.Radio
	bus   *events.EventBus
	opts  *options
	log   zerolog.Logger

	mu      sync.Mutex
	history []Backup
	cancel  context.CancelFunc
	loop    errgroup.Group
}

// NewManager binds a Manager to the radio it snapshots and restores, and
// the event bus it reports backup lifecycle events on.
func NewManager(radio transport.Radio, bus *events.EventBus, opts ...Option) *Manager {
	return &Manager{
		radio: radio,
		bus:   bus,
		opts:  applyOptions(opts),
		log:   logging.For("backup"),
	}
}

// CreateBackup loads the radio's current network state and retains it.
func (m *Manager) CreateBackup(ctx context.Context, loadDevices bool) (Backup, error) {
	node, network, err := m.radio.LoadNetworkInfo(ctx, loadDevices)
	if err != nil {
		return Backup{}, err
	}
	b := Backup{Version: FormatVersion, CreatedAt: time.Now(), Node: node, Network: network}
	m.AddBackup(b)
	return b, nil
}

// AddBackup inserts b into the history, evicting any existing backup that b
// supersedes, and dropping b itself if an existing backup already
// supersedes it. A retained b is appended at the end of the history.
func (m *Manager) AddBackup(b Backup) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, old := range m.history {
		if Compatible(b, old) && old.Network.NetworkKey.TXCounter > b.Network.NetworkKey.TXCounter {
			m.log.Debug().Time("created_at", b.CreatedAt).Msg("backup already superseded, not retained")
			return
		}
	}

	kept := m.history[:0]
	for _, old := range m.history {
		if Compatible(b, old) && b.Network.NetworkKey.TXCounter >= old.Network.NetworkKey.TXCounter {
			m.log.Debug().Time("superseded", old.CreatedAt).Msg("dropping superseded backup")
			if m.bus != nil {
				m.bus.PublishAsync(events.NewNetworkBackupRemovedEvent(old.CreatedAt))
			}
			continue
		}
		kept = append(kept, old)
	}
	m.history = append(kept, b)
	m.log.Info().Time("created_at", b.CreatedAt).Int("history", len(m.history)).Msg("retained network backup")
	if m.bus != nil {
		m.bus.PublishAsync(events.NewNetworkBackupCreatedEvent(b.CreatedAt))
	}
}

// MostRecentBackup returns the newest retained backup, if any.
func (m *Manager) MostRecentBackup() (Backup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Backup{}, false
	}
	newest := m.history[0]
	for _, b := range m.history[1:] {
		if b.CreatedAt.After(newest.CreatedAt) {
			newest = b
		}
	}
	return newest, true
}

// History returns a copy of every retained backup, oldest first.
func (m *Manager) History() []Backup {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Backup, len(m.history))
	copy(out, m.history)
	return out
}

// RestoreBackup writes b's network state back to the radio. Unless opts.Force
// is set, an incomplete backup is refused. The network key's frame counter
// is advanced by the manager's counter increment before writing, so devices
// that transmitted against the old counter since the backup was taken are
// not replayed against. If opts.CreateAfter, a fresh backup is taken
// immediately after a successful restore.
func (m *Manager) RestoreBackup(ctx context.Context, b Backup, opts *RestoreOptions) error {
	if opts == nil {
		opts = DefaultRestoreOptions()
	}
	if !b.IsComplete() && !opts.Force {
		return ErrIncompleteBackup
	}

	restored := b
	restored.Network.NetworkKey.TXCounter += m.opts.counterIncrement

	if err := m.radio.WriteNetworkInfo(ctx, restored.Node, restored.Network); err != nil {
		return err
	}
	m.log.Info().Time("backup_created_at", b.CreatedAt).Msg("restored network backup")

	if opts.CreateAfter {
		if _, err := m.CreateBackup(ctx, false); err != nil {
			return err
		}
	}
	return nil
}

// StartPeriodicBackups takes a backup immediately, then again every
// interval (or the manager's configured default) until ctx is canceled or
// StopPeriodicBackups is called.
func (m *Manager) StartPeriodicBackups(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.opts.backupInterval
	}
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = cancel
	m.mu.Unlock()

	m.loop.Go(func() error {
		if _, err := m.CreateBackup(ctx, false); err != nil {
			m.log.Warn().Err(err).Msg("periodic backup failed")
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := m.CreateBackup(ctx, false); err != nil {
					m.log.Warn().Err(err).Msg("periodic backup failed")
				}
			}
		}
	})
}

// StopPeriodicBackups cancels a running periodic backup loop, if any, and
// blocks until it has actually exited before returning. Waiting here (rather
// than just canceling) means a caller that immediately calls
// StartPeriodicBackups again never races the outgoing loop's last tick.
func (m *Manager) StopPeriodicBackups() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.loop.Wait()
}
