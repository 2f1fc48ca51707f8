package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/config"
	"github.com/darielruizg/Puntodeventa/internal/eventos"
	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/metrics"
	"github.com/darielruizg/Puntodeventa/internal/repository"
	"github.com/darielruizg/Puntodeventa/internal/router"
	"github.com/darielruizg/Puntodeventa/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger — dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("zona", cfg.ZonaHoraria).Msg("invalid ZONA_HORARIA")
	}

	dsn := cfg.SQLitePath
	if cfg.StoreDriver == "postgres" {
		dsn = cfg.DatabaseURL
	}
	db, err := infra.NewDatabase(cfg.StoreDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mailer := infra.NewMailer(cfg)

	// With redis the change feed, the lookup cache and the job queue are
	// shared; without it events stay in-process and no email is queued.
	var feed eventos.Publicador = eventos.NewLocal()
	var dispatcher *worker.Dispatcher
	if rdb != nil {
		feed = eventos.NewRedis(rdb)
		dispatcher = worker.NewDispatcher(rdb)

		// Worker handlers are wired here (composition root) so that the pool
		// has full access to all infrastructure dependencies.
		pool := worker.NewPool(rdb, m)
		emailWorker := worker.NewEmailWorker(
			repository.NewVentaRepository(db),
			mailer,
			infra.GenerateTicketPDF,
			cfg.NombreNegocio,
			cfg.PDFStoragePath,
			loc,
		)
		pool.Register(worker.JobTicketEmail, emailWorker.Process)
		pool.Start(ctx, cfg.WorkerPoolSize)
	} else {
		log.Warn().Msg("REDIS_URL not set: cache, shared events and email jobs disabled")
	}

	r := router.New(cfg, router.Deps{
		DB:         db,
		Redis:      rdb,
		Feed:       feed,
		Metrics:    m,
		Dispatcher: dispatcher,
		Mailer:     mailer,
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /v1/eventos is a long-lived stream.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("store", cfg.StoreDriver).Msgf("punto de venta listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
