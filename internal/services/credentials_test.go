package services

import (
	"testing"

	"github.com/regdesk/portalserver/config"
)

func TestPlainVerifier(t *testing.T) {
	verifier := PlainVerifier{}

	stored, err := verifier.Store("hunter2")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if stored != "hunter2" {
		t.Fatalf("plain scheme must store verbatim, got %q", stored)
	}

	if !verifier.Verify(stored, "hunter2") {
		t.Fatalf("expected match")
	}
	if verifier.Verify(stored, "hunter3") {
		t.Fatalf("expected mismatch")
	}
}

func TestBcryptVerifier(t *testing.T) {
	verifier := BcryptVerifier{}

	stored, err := verifier.Store("hunter2")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if stored == "hunter2" {
		t.Fatalf("bcrypt scheme must not store verbatim")
	}

	if !verifier.Verify(stored, "hunter2") {
		t.Fatalf("expected match")
	}
	if verifier.Verify(stored, "hunter3") {
		t.Fatalf("expected mismatch")
	}
}

func TestNewCredentialVerifier(t *testing.T) {
	tests := []struct {
		scheme  string
		want    CredentialVerifier
		wantErr bool
	}{
		{scheme: "", want: PlainVerifier{}},
		{scheme: config.PasswordSchemePlain, want: PlainVerifier{}},
		{scheme: config.PasswordSchemeBcrypt, want: BcryptVerifier{}},
		{scheme: "argon2", wantErr: true},
	}

	for _, tt := range tests {
		verifier, err := NewCredentialVerifier(tt.scheme)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("scheme %q: expected error", tt.scheme)
			}
			continue
		}
		if err != nil {
			t.Fatalf("scheme %q: %v", tt.scheme, err)
		}
		if verifier != tt.want {
			t.Fatalf("scheme %q: got %T", tt.scheme, verifier)
		}
	}
}
