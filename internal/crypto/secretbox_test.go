package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		plaintext string
	}{
		{"short secret is zero padded", "abc", `{"type":"fire_event"}`},
		{"exact length secret", strings.Repeat("k", KeySize), `{"state":12.5}`},
		{"over-long secret is truncated", strings.Repeat("x", KeySize+10), "payload"},
		{"empty plaintext", "secret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := KeyFromSecret(tt.secret)
			ciphertext, err := Encrypt([]byte(tt.plaintext), key)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			plaintext, err := Decrypt(ciphertext, key)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(plaintext, []byte(tt.plaintext)) {
				t.Errorf("round trip = %q, want %q", plaintext, tt.plaintext)
			}
		})
	}
}

func TestKeyDerivationDeterministic(t *testing.T) {
	a := KeyFromSecret("my-device-secret")
	b := KeyFromSecret("my-device-secret")
	if *a != *b {
		t.Error("same secret produced different keys")
	}
	// Truncation means only the first KeySize bytes matter.
	long := strings.Repeat("z", KeySize)
	if *KeyFromSecret(long) != *KeyFromSecret(long+"tail") {
		t.Error("truncated keys differ")
	}
}

func TestDecryptFailures(t *testing.T) {
	key := KeyFromSecret("right-key")
	ciphertext, err := Encrypt([]byte(`{"ok":true}`), key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tests := []struct {
		name   string
		input  string
		key    *[KeySize]byte
	}{
		{"wrong key", ciphertext, KeyFromSecret("wrong-key")},
		{"not base64", "%%%not-base64%%%", key},
		{"too short", "YWJj", key},
		{"tampered ciphertext", "A" + ciphertext[1:], key},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decrypt(tt.input, tt.key); !errors.Is(err, ErrDecrypt) {
				t.Errorf("Decrypt error = %v, want ErrDecrypt", err)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(KeySize)
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if len(secret) != KeySize {
		t.Errorf("secret length = %d, want %d", len(secret), KeySize)
	}
	other, err := GenerateSecret(KeySize)
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	if secret == other {
		t.Error("two generated secrets are identical")
	}
	if _, err := GenerateSecret(0); err == nil {
		t.Error("expected error for zero length")
	}
}
