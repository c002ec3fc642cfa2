package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPIN = errors.New("invalid pin")
	ErrEmptyPIN   = errors.New("pin is empty")
)

// Lock checks the manager PIN against a bcrypt hash. A Lock without a hash
// is disabled and lets every request through.
type Lock struct {
	hash []byte
}

// NewLock validates pinHash. An empty hash gives a disabled lock.
func NewLock(pinHash string) (*Lock, error) {
	pinHash = strings.TrimSpace(pinHash)
	if pinHash == "" {
		return &Lock{}, nil
	}
	if _, err := bcrypt.Cost([]byte(pinHash)); err != nil {
		return nil, err
	}
	return &Lock{hash: []byte(pinHash)}, nil
}

func (l *Lock) Enabled() bool {
	return l != nil && len(l.hash) > 0
}

func (l *Lock) Verify(pin string) error {
	if !l.Enabled() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(l.hash, []byte(strings.TrimSpace(pin))); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

// HashPIN produces the value for manager.pin_hash.
func HashPIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return "", ErrEmptyPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
