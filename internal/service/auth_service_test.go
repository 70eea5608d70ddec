package service

import (
	"testing"

	"github.com/homegrid-labs/mobile-gateway/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func authConfig(enabled bool, password string) *config.Config {
	cfg := &config.Config{}
	cfg.Auth.Enabled = enabled
	cfg.Auth.Username = "admin"
	cfg.Auth.Password = password
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

func TestAuthenticateAndValidate(t *testing.T) {
	svc := NewAuthService(authConfig(true, "hunter2"))

	token, err := svc.Authenticate("admin", "hunter2")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("username = %q", claims.Username)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(authConfig(true, "hunter2"))

	tests := []struct {
		name, username, password string
	}{
		{"wrong password", "admin", "nope"},
		{"wrong username", "root", "hunter2"},
		{"both wrong", "root", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(tt.username, tt.password); err == nil {
				t.Error("expected authentication failure")
			}
		})
	}
}

func TestAuthenticateBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	svc := NewAuthService(authConfig(true, string(hash)))

	if _, err := svc.Authenticate("admin", "hunter2"); err != nil {
		t.Errorf("Authenticate with bcrypt hash: %v", err)
	}
	if _, err := svc.Authenticate("admin", "wrong"); err == nil {
		t.Error("wrong password accepted against bcrypt hash")
	}
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	svc := NewAuthService(authConfig(true, "hunter2"))
	if _, err := svc.Validate("not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestDisabledAuth(t *testing.T) {
	svc := NewAuthService(authConfig(false, ""))
	if svc.Enabled() {
		t.Error("Enabled = true for disabled auth")
	}
	claims, err := svc.Validate("anything")
	if err != nil {
		t.Fatalf("Validate with disabled auth: %v", err)
	}
	if claims.Username != "anonymous" {
		t.Errorf("username = %q", claims.Username)
	}
}
