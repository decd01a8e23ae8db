package services

import (
	"crypto/subtle"
	"fmt"

	"github.com/regdesk/portalserver/config"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier turns a submitted password into its stored form
// and checks a submitted password against a stored one.
type CredentialVerifier interface {
	// Store prepares a submitted password for persistence.
	Store(password string) (string, error)
	// Verify reports whether the submitted password matches the
	// stored credential.
	Verify(stored, submitted string) bool
}

// NewCredentialVerifier selects a verifier by configured scheme.
func NewCredentialVerifier(scheme string) (CredentialVerifier, error) {
	switch scheme {
	case "", config.PasswordSchemePlain:
		return PlainVerifier{}, nil
	case config.PasswordSchemeBcrypt:
		return BcryptVerifier{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// PlainVerifier stores and compares passwords verbatim, matching the
// original portal's behavior.
type PlainVerifier struct{}

func (PlainVerifier) Store(password string) (string, error) {
	return password, nil
}

func (PlainVerifier) Verify(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// BcryptVerifier stores bcrypt digests instead of raw passwords.
type BcryptVerifier struct{}

func (BcryptVerifier) Store(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptVerifier) Verify(stored, submitted string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
}
