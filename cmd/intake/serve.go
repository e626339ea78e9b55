package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-intake-backend/internal/config"
	httpapi "github.com/tbourn/go-intake-backend/internal/http"
	"github.com/tbourn/go-intake-backend/internal/observability"
	"github.com/tbourn/go-intake-backend/internal/repo"
)

const (
	janitorInterval = time.Minute
	purgeInterval   = time.Hour
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	lg := log.Logger

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion())
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			lg.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	backend, closeBackend, err := newDraftBackend(ctx, cfg.Store, db)
	if err != nil {
		return err
	}
	defer func() { _ = closeBackend() }()

	svc := newIntakeService(cfg, backend, db, lg)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, svc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info().Str("addr", srv.Addr).Str("version", appVersion()).
			Str("store", cfg.Store.Backend).Str("ai", cfg.AI.Provider).Str("submit", cfg.Submit.Backend).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return svc.RunJanitor(gctx, janitorInterval) })
	if cfg.Store.Backend == "sqlite" && cfg.Store.DraftTTL > 0 {
		g.Go(func() error { return purgeLoop(gctx, db, cfg.Store.DraftTTL, purgeInterval) })
	}
	g.Go(func() error {
		<-gctx.Done()
		lg.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		svc.Shutdown()
		return err
	})
	return g.Wait()
}

// purgeLoop deletes stale drafts once at start and then every interval.
func purgeLoop(ctx context.Context, db *gorm.DB, ttl, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		n, err := repo.PurgeDrafts(ctx, db, time.Now().Add(-ttl))
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn().Err(err).Msg("draft purge failed")
		case n > 0:
			log.Info().Int64("rows", n).Msg("stale drafts purged")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
