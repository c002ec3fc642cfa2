// Package storage persists the catalog as two named records, "prices" and
// "quantities", over a small key-value substrate.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	KeyPrices     = "prices"
	KeyQuantities = "quantities"

	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

var (
	ErrCorrupt       = errors.New("stored record is malformed")
	ErrRead          = errors.New("storage read failed")
	ErrWrite         = errors.New("storage write failed")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrBadKey        = errors.New("invalid record key")

	// ErrQuantities marks a Load diagnostic where the prices loaded but some
	// or all stored counts were reset to zero.
	ErrQuantities = errors.New("stored quantities unusable")
)

// KV is the durable substrate: the local-storage of this app.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func quota(err error) error {
	return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
}
