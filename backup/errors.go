package backup

import "errors"

var (
	// ErrIncompleteBackup is returned by RestoreBackup when the backup
	// lacks enough state to recreate a network and force was not set.
	ErrIncompleteBackup = errors.New("backup: incomplete, cannot restore without forcing")

	// ErrInvalidDocument is returned when an Open Coordinator Backup JSON
	// document is malformed or missing a required field.
	ErrInvalidDocument = errors.New("backup: invalid open coordinator backup document")

	// ErrEncryptionFailed and ErrDecryptionFailed wrap AES-GCM failures
	// from Encryptor.
	ErrEncryptionFailed = errors.New("backup: encryption failed")
	ErrDecryptionFailed = errors.New("backup: decryption failed")
)
