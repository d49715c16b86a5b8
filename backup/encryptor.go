package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"time"
)

// Encryptor protects an Open Coordinator Backup document at rest: the
// network key and trust-center link key it carries are enough to join the
// network cold, so an exported document is worth encrypting by default.
type Encryptor struct {
	key []byte
}

// NewEncryptor derives a 32-byte AES-256 key from password via SHA-256.
func NewEncryptor(password string) *Encryptor {
	hash := sha256.Sum256([]byte(password))
	return &Encryptor{key: hash[:]}
}

// Encrypt seals data with AES-256-GCM, prefixing the output with its nonce.
func (e *Encryptor) Encrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// EncryptToBase64 encrypts data and returns it base64-encoded.
func (e *Encryptor) EncryptToBase64(data []byte) (string, error) {
	encrypted, err := e.Encrypt(data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// DecryptFromBase64 reverses EncryptToBase64.
func (e *Encryptor) DecryptFromBase64(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecryptionFailed, err)
	}
	return e.Decrypt(data)
}

// EncryptedBackupVersion is the current encrypted-envelope format version.
const EncryptedBackupVersion = 1

// EncryptedBackup wraps an OCB document's JSON bytes, AES-256-GCM sealed
// and base64-encoded, alongside the plaintext metadata needed to locate it
// without decrypting.
type EncryptedBackup struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	EncryptedData string    `json:"encrypted_data"`
}

// EncryptBackup marshals b to its OCB document and seals it with password.
func EncryptBackup(b Backup, password string) (*EncryptedBackup, error) {
	data, err := MarshalOCB(b)
	if err != nil {
		return nil, err
	}
	enc := NewEncryptor(password)
	encoded, err := enc.EncryptToBase64(data)
	if err != nil {
		return nil, err
	}
	return &EncryptedBackup{Version: EncryptedBackupVersion, CreatedAt: b.CreatedAt, EncryptedData: encoded}, nil
}

// DecryptBackup reverses EncryptBackup.
func DecryptBackup(eb *EncryptedBackup, password string) (Backup, error) {
	enc := NewEncryptor(password)
	data, err := enc.DecryptFromBase64(eb.EncryptedData)
	if err != nil {
		return Backup{}, err
	}
	return UnmarshalOCB(data)
}
