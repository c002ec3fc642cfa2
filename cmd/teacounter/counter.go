package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"TeaCounter/internal/catalog"
	"TeaCounter/internal/config"
	"TeaCounter/internal/notify"
	"TeaCounter/internal/register"
	"TeaCounter/internal/storage"
)

// counter is the controller with its storage and notifications, shared by
// both front-ends.
type counter struct {
	kv    storage.KV
	store *storage.Store
	notes *notify.Service
	ctl   *register.Controller
}

func openStore(ctx context.Context, c config.Config) (storage.KV, *storage.Store, error) {
	kv, err := storage.Open(ctx, c.StorageOptions())
	if err != nil {
		return nil, nil, err
	}
	return kv, storage.NewStore(kv), nil
}

// loadCatalog always yields a catalog. Unreadable prices fall back to the
// defaults; unreadable counts only reset those counts.
func loadCatalog(ctx context.Context, store *storage.Store, log *zap.Logger) *catalog.Catalog {
	cat, err := store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrQuantities):
		log.Warn("stored quantities unusable, affected counts reset to zero", zap.Error(err))
	default:
		log.Warn("stored catalog unusable, starting from defaults", zap.Error(err))
	}
	return cat
}

func openCounter(ctx context.Context, c config.Config, log *zap.Logger, r register.Renderer, reg prometheus.Registerer) (*counter, error) {
	kv, store, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	cat := loadCatalog(ctx, store, log)
	log.Info("catalog loaded",
		zap.String("driver", c.Storage.Driver),
		zap.Int("items", cat.Len()),
	)

	notes := notify.New(notify.Options{
		Display: c.Notify.Display,
		Fade:    c.Notify.Fade,
	})
	ctl := register.New(cat, register.Deps{
		Store:    store,
		Renderer: r,
		Notifier: notes,
		Log:      log,
		Registry: reg,
	})
	notes.SetOnChange(ctl.Refresh)

	return &counter{kv: kv, store: store, notes: notes, ctl: ctl}, nil
}

func (c *counter) Close() error {
	c.notes.Close()
	return c.kv.Close()
}
