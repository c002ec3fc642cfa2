package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TeaCounter/internal/catalog"
)

type failingKV struct {
	*MemKV
	failKey string
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if key == f.failKey {
		return quota(errors.New("disk full"))
	}
	return f.MemKV.Set(ctx, key, value)
}

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.Default()
	_, err := c.Add("Masala Chai", 22.5)
	require.NoError(t, err)
	_, err = c.Adjust("masala chai", 2)
	require.NoError(t, err)
	_, err = c.Adjust("tea", 3)
	require.NoError(t, err)
	return c
}

func roundTrip(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()
	s := NewStore(kv)

	want := sampleCatalog(t)
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Entries(), got.Entries())
}

func TestStore_LoadEmptyReturnsDefaults(t *testing.T) {
	got, err := NewStore(NewMemKV()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.Default().Entries(), got.Entries())
}

func TestStore_RoundTripMemory(t *testing.T) {
	roundTrip(t, NewMemKV())
}

func TestStore_RoundTripFile(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	roundTrip(t, kv)
}

func TestStore_RoundTripSQLite(t *testing.T) {
	kv, err := NewSQLiteKV(context.Background(), filepath.Join(t.TempDir(), "counter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	roundTrip(t, kv)
}

func TestStore_RoundTripPostgres(t *testing.T) {
	dsn := os.Getenv("TEACOUNTER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEACOUNTER_TEST_POSTGRES_DSN not set")
	}
	kv, err := OpenPostgresKV(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	roundTrip(t, kv)
}

func TestStore_RoundTripRedis(t *testing.T) {
	addr := os.Getenv("TEACOUNTER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEACOUNTER_TEST_REDIS_ADDR not set")
	}
	kv, err := OpenRedisKV(context.Background(), addr, "teacounter-test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	roundTrip(t, kv)
}

func TestStore_SaveWritesOrderedRecords(t *testing.T) {
	kv := NewMemKV()
	require.NoError(t, NewStore(kv).Save(context.Background(), sampleCatalog(t)))

	prices, ok, err := kv.Get(context.Background(), KeyPrices)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"tea":20,"coffee":50,"samosa":30,"biscuit":10,"masala chai":22.5}`, string(prices))

	counts, _, err := kv.Get(context.Background(), KeyQuantities)
	require.NoError(t, err)
	assert.Equal(t, `{"tea":3,"coffee":0,"samosa":0,"biscuit":0,"masala chai":2}`, string(counts))
}

func TestStore_MalformedPricesFallBackToDefaults(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":      `{"tea":`,
		"array":         `[1,2]`,
		"null":          `null`,
		"string price":  `{"tea":"cheap"}`,
		"trailing data": `{"tea":20}{}`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := NewMemKV()
			require.NoError(t, kv.Set(context.Background(), KeyPrices, []byte(raw)))

			got, err := NewStore(kv).Load(context.Background())
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.NotErrorIs(t, err, ErrQuantities)
			assert.Equal(t, catalog.Default().Entries(), got.Entries())
		})
	}
}

func TestStore_QuantitiesMergedOntoPrices(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	require.NoError(t, kv.Set(ctx, KeyPrices, []byte(`{"tea":20,"Bun":15,"cake":40}`)))
	require.NoError(t, kv.Set(ctx, KeyQuantities, []byte(`{"tea":2,"bun":-1,"cake":1.5,"ghost":7}`)))

	got, err := NewStore(kv).Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, ErrQuantities)
	assert.Equal(t, []catalog.Entry{
		{Name: "tea", Price: 20, Quantity: 2},
		{Name: "bun", Price: 15, Quantity: 0},
		{Name: "cake", Price: 40, Quantity: 0},
	}, got.Entries())
}

func TestStore_MissingQuantitiesAreZero(t *testing.T) {
	ctx := context.Background()
	kv := NewMemKV()
	require.NoError(t, kv.Set(ctx, KeyPrices, []byte(`{"tea":20}`)))

	got, err := NewStore(kv).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Entry{{Name: "tea", Price: 20}}, got.Entries())
}

func TestStore_SaveFailureIsReported(t *testing.T) {
	kv := &failingKV{MemKV: NewMemKV(), failKey: KeyQuantities}

	err := NewStore(kv).Save(context.Background(), catalog.Default())
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestFileKV_RejectsPathKeys(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	err = kv.Set(context.Background(), "../escape", []byte("{}"))
	assert.ErrorIs(t, err, ErrBadKey)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "floppy"})
	assert.Error(t, err)
}
