package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the fixed symmetric key length of the codec.
const KeySize = 32

const nonceSize = 24

// ErrDecrypt is returned whenever a ciphertext cannot be authenticated or
// decoded. Callers must not distinguish the causes to the remote side.
var ErrDecrypt = errors.New("crypto: decryption failed")

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// GenerateSecret returns a random alpha-numeric secret of length n.
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("length must be positive")
	}
	b := make([]rune, n)
	buf := make([]byte, len(b))
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(buf[i])%len(letters)]
	}
	return string(b), nil
}

// KeyFromSecret derives the fixed-length key from an arbitrary secret string
// by truncating or zero-padding. The derivation is deterministic; devices
// apply the same rule on their side.
func KeyFromSecret(secret string) *[KeySize]byte {
	var key [KeySize]byte
	copy(key[:], secret)
	return &key
}

// Encrypt seals plaintext with an authenticated cipher and returns
// base64(nonce || box).
func Encrypt(plaintext []byte, key *[KeySize]byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It returns ErrDecrypt for malformed input and
// for ciphertexts that fail authentication.
func Decrypt(encoded string, key *[KeySize]byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(raw) < nonceSize {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
