// Package session seals the portal session of a student so it can be stored at rest.
//
// Payloads are encrypted with AES-256-GCM under a fresh random 12 byte nonce, the nonce
// and the ciphertext are stored as independent standard base64 strings.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mazen160/go-random"
)

// KeySize is the number of key bytes used, longer keys are truncated.
const KeySize = 32

// NonceSize is the size of the GCM nonce generated for every seal.
const NonceSize = 12

// KeyEnv is the environment variable the key is read from.
const KeyEnv = "CAMPUS_AES_KEY"

var (
	ErrKeyMissing  = errors.New("session key is missing")
	ErrKeyTooShort = fmt.Errorf("session key must be at least %d bytes long", KeySize)
	ErrDecrypt     = errors.New("session payload could not be decrypted")
)

// Payload is what a sealed session contains.
type Payload struct {
	Cookie   string `json:"cookie"`
	Hash     string `json:"hash"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Sealed is an encrypted Payload.
type Sealed struct {
	Nonce  string `json:"nonce"`
	Cipher string `json:"cipher"`
}

// Sealer encrypts and decrypts payloads with a single key.
type Sealer struct {
	aead cipher.AEAD
}

// KeyFromEnv reads the key from KeyEnv.
func KeyFromEnv() ([]byte, error) {
	value, ok := os.LookupEnv(KeyEnv)
	if !ok || value == "" {
		return nil, fmt.Errorf("%s: %w", KeyEnv, ErrKeyMissing)
	}
	return []byte(value), nil
}

// GenerateKey returns a random alphanumeric key suitable for KeyEnv.
func GenerateKey() (string, error) {
	return random.String(KeySize + KeySize/2)
}

// NewSealer creates a Sealer from the first KeySize bytes of key.
func NewSealer(key []byte) (Sealer, error) {
	if len(key) < KeySize {
		return Sealer{}, ErrKeyTooShort
	}
	block, err := aes.NewCipher(key[:KeySize])
	if err != nil {
		return Sealer{}, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return Sealer{}, err
	}
	return Sealer{aead: aead}, nil
}

// SealBytes encrypts plaintext under a fresh nonce.
func (s Sealer) SealBytes(plaintext []byte) (Sealed, error) {
	nonce := make([]byte, NonceSize)
	_, err := rand.Read(nonce)
	if err != nil {
		return Sealed{}, fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := s.aead.Seal(nil, nonce, plaintext, nil)
	return Sealed{
		Nonce:  base64.StdEncoding.EncodeToString(nonce),
		Cipher: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// OpenBytes decrypts a sealed value, any malformed or tampered input is ErrDecrypt.
func (s Sealer) OpenBytes(sealed Sealed) ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(sealed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", errors.Join(ErrDecrypt, err))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce is %d bytes: %w", len(nonce), ErrDecrypt)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Cipher)
	if err != nil {
		return nil, fmt.Errorf("decode cipher: %w", errors.Join(ErrDecrypt, err))
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Seal encrypts a session payload.
func (s Sealer) Seal(payload Payload) (Sealed, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return Sealed{}, err
	}
	return s.SealBytes(plaintext)
}

// Open decrypts a session payload.
func (s Sealer) Open(sealed Sealed) (Payload, error) {
	plaintext, err := s.OpenBytes(sealed)
	if err != nil {
		return Payload{}, err
	}
	var payload Payload
	err = json.Unmarshal(plaintext, &payload)
	if err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

// ReadFile reads a sealed session written by WriteFile.
func ReadFile(path string) (Sealed, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Sealed{}, err
	}
	var sealed Sealed
	err = json.Unmarshal(contents, &sealed)
	if err != nil {
		return Sealed{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return sealed, nil
}

// WriteFile stores a sealed session readable only by the current user.
func WriteFile(path string, sealed Sealed) error {
	contents, err := json.MarshalIndent(sealed, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0o600)
}
