package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TeaCounter/internal/auth"
	"TeaCounter/internal/view"
	"TeaCounter/internal/web"
	"TeaCounter/pkg/kit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the counter page over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, closeFn, err := buildServer(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	return kit.RunHTTPServer(ctx, cfg.HTTP.Addr, h, logger)
}

// buildServer wires storage, controller and HTTP surface from cfg.
func buildServer(ctx context.Context) (http.Handler, func() error, error) {
	lock, err := auth.NewLock(cfg.Manager.PINHash)
	if err != nil {
		return nil, nil, err
	}

	secret := cfg.Manager.Secret
	if lock.Enabled() && secret == "" {
		secret = uuid.NewString()
		logger.Warn("manager.secret not set; manager sessions end on restart")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	page := &view.HTML{ManagerLock: lock.Enabled(), Log: logger}
	c, err := openCounter(ctx, cfg, logger, page, reg)
	if err != nil {
		return nil, nil, err
	}

	s := &web.Server{
		Log:        logger,
		Controller: c.ctl,
		Page:       page,
		Store:      c.store,
	}
	if lock.Enabled() {
		s.Auth = &auth.Server{
			Log:          logger,
			Lock:         lock,
			JWT:          auth.NewTokenMaker(secret),
			TTL:          cfg.Manager.TokenTTL,
			SecureCookie: cfg.Manager.SecureCookie,
		}
	}

	h := web.NewHandler(s, web.HTTPDeps{
		Log:            logger,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})
	return h, c.Close, nil
}
