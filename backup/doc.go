// Package backup snapshots and restores the network's formed state: PAN
// addressing, channel, and key material. A Backup captures what a radio's
// LoadNetworkInfo returns; Manager keeps a de-duplicated history of them
// and can write one back to the radio during a restore.
//
// # Basic usage
//
//	mgr := backup.NewManager(radio, bus)
//	b, err := mgr.CreateBackup(ctx, false)
//
//	// later, on a replacement coordinator
//	err = mgr.RestoreBackup(ctx, b, backup.DefaultRestoreOptions())
//
// # Compatibility and supersession
//
// Two backups are compatible when they describe the same network (same
// node identity, PAN, channel, and key material) ignoring frame counters;
// Manager.AddBackup uses this to retire older backups from the same
// network rather than growing the list unbounded, keeping the most
// recent compatible one (the one with the higher network key frame
// counter).
//
// # Interchange format
//
// MarshalOCB/UnmarshalOCB speak the Open Coordinator Backup JSON format:
// address and key fields are hex strings, everything else a plain JSON
// number or string. This is the same format exported by other Zigbee
// coordinator implementations, so a backup taken here can seed a different
// stack's coordinator and vice versa. EncryptBackup/DecryptBackup wrap the
// document in an AES-256-GCM envelope for storage at rest.
package backup
