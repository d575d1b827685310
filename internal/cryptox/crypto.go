// Package cryptox protects backup files with a user passphrase: the key is
// derived with Argon2id and the payload sealed with AES-256-GCM.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/famlink/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// EnvelopeFormat marks an encrypted backup file.
	EnvelopeFormat = "famlink-encrypted-backup"
	// EnvelopeVersion changes whenever the KDF parameters or cipher change.
	EnvelopeVersion = 1

	saltSize = 16
	keySize  = 32
)

// Envelope is the JSON form of an encrypted backup.
type Envelope struct {
	Format     string `json:"format"`
	Version    int    `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeriveKey stretches a passphrase into a 32-byte AES key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, keySize)
}

// Encrypt seals plaintext with key using a fresh random nonce.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext sealed by Encrypt. A wrong key and a tampered
// ciphertext both fail authentication.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("nonce: want %d bytes, got %d", aesgcm.NonceSize(), len(nonce))
	}
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

// Seal encrypts plaintext under a key derived from passphrase.
func Seal(plaintext, passphrase []byte) (*Envelope, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("empty passphrase")
	}
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ct, nonce, err := Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}
	return &Envelope{Format: EnvelopeFormat, Version: EnvelopeVersion, Salt: salt, Nonce: nonce, Ciphertext: ct}, nil
}

// Open returns the plaintext of env. Authentication failures are reported
// as common.ErrWrongPassword.
func Open(env *Envelope, passphrase []byte) ([]byte, error) {
	if env == nil || env.Format != EnvelopeFormat {
		return nil, fmt.Errorf("%w: not an encrypted backup", common.ErrInvalidBackup)
	}
	if env.Version != EnvelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", common.ErrInvalidBackup, env.Version)
	}
	key := DeriveKey(passphrase, env.Salt)
	defer common.WipeByteArray(key)

	pt, err := Decrypt(env.Ciphertext, env.Nonce, key)
	if err != nil {
		return nil, common.ErrWrongPassword
	}
	return pt, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
