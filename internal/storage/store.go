package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"TeaCounter/internal/catalog"
)

// Store reads and writes the catalog records. It is best-effort: Load always
// yields a usable catalog and Save failures are for the caller to report.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) Ping(ctx context.Context) error { return s.kv.Ping(ctx) }
func (s *Store) Close() error                   { return s.kv.Close() }

// Load returns the stored catalog, or the default catalog when nothing usable
// is stored. A non-nil error is a diagnostic; the catalog is valid regardless.
func (s *Store) Load(ctx context.Context) (*catalog.Catalog, error) {
	rawPrices, ok, err := s.kv.Get(ctx, KeyPrices)
	if err != nil {
		return catalog.Default(), fmt.Errorf("%w: %s: %w", ErrRead, KeyPrices, err)
	}
	if !ok {
		return catalog.Default(), nil
	}

	entries, err := parsePrices(rawPrices)
	if err != nil {
		return catalog.Default(), fmt.Errorf("%w: %s: %w", ErrCorrupt, KeyPrices, err)
	}

	var diag error
	counts, err := s.loadQuantities(ctx)
	if err != nil {
		diag = fmt.Errorf("%w: %w", ErrQuantities, err)
	}
	for i := range entries {
		entries[i].Quantity = counts[entries[i].Name]
	}

	return catalog.FromEntries(entries), diag
}

func (s *Store) loadQuantities(ctx context.Context) (map[string]int, error) {
	raw, ok, err := s.kv.Get(ctx, KeyQuantities)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, KeyQuantities, err)
	}
	if !ok {
		return nil, nil
	}

	fields, err := decodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, KeyQuantities, err)
	}

	out := make(map[string]int, len(fields))
	var bad []error
	for _, f := range fields {
		n, err := parseCount(f.raw)
		if err != nil {
			bad = append(bad, fmt.Errorf("%w: %s[%q]: %w", ErrCorrupt, KeyQuantities, f.key, err))
			continue
		}
		out[catalog.Normalize(f.key)] = n
	}
	return out, errors.Join(bad...)
}

// Save writes both records. Writes are not transactional: prices may land
// while quantities fail, which Load repairs by zeroing unknown counts.
func (s *Store) Save(ctx context.Context, c *catalog.Catalog) error {
	entries := c.Entries()
	keys := make([]string, len(entries))
	prices := make(map[string]float64, len(entries))
	counts := make(map[string]int, len(entries))
	for i, e := range entries {
		keys[i] = e.Name
		prices[e.Name] = e.Price
		counts[e.Name] = e.Quantity
	}

	pb, err := encodeRecord(keys, func(k string) float64 { return prices[k] })
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, KeyPrices, err)
	}
	qb, err := encodeRecord(keys, func(k string) int { return counts[k] })
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, KeyQuantities, err)
	}

	if err := s.kv.Set(ctx, KeyPrices, pb); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, KeyPrices, err)
	}
	if err := s.kv.Set(ctx, KeyQuantities, qb); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, KeyQuantities, err)
	}
	return nil
}

func parsePrices(raw []byte) ([]catalog.Entry, error) {
	fields, err := decodeRecord(raw)
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Entry, 0, len(fields))
	for _, f := range fields {
		var n json.Number
		if err := json.Unmarshal(f.raw, &n); err != nil {
			return nil, fmt.Errorf("price of %q: %w", f.key, err)
		}
		p, err := n.Float64()
		if err != nil || math.IsInf(p, 0) {
			return nil, fmt.Errorf("price of %q is not a finite number", f.key)
		}
		name := catalog.Normalize(f.key)
		if name == "" {
			return nil, errors.New("empty item name")
		}
		out = append(out, catalog.Entry{Name: name, Price: p})
	}
	return out, nil
}

func parseCount(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("count %s is not a non-negative integer", n)
	}
	return int(f), nil
}
