package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/muhammadolammi/thumbworker/internal/config"
	"github.com/muhammadolammi/thumbworker/internal/database"
	"github.com/muhammadolammi/thumbworker/internal/logging"
	"github.com/muhammadolammi/thumbworker/internal/thumbnail"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBURL)
	if err != nil {
		log.Fatal().Err(err).Msg("error opening db")
	}
	defer db.Close()
	if _, err := retry(5, 2*time.Second, func() (any, error) {
		return nil, db.PingContext(ctx)
	}); err != nil {
		log.Fatal().Err(err).Msg("error connecting to db")
	}
	dbqueries := database.New(db)

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.StorageProvider).Msg("error creating storage client")
	}

	observer, err := thumbnail.NewPrometheusObserver("thumbworker", prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("error registering metrics")
	}
	generator := thumbnail.NewGenerator(store, dbqueries, thumbnail.WithObserver(observer))

	conn, err := retry(10, 5*time.Second, func() (*amqp.Connection, error) {
		return amqp.Dial(cfg.RabbitMQ.URL)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to RabbitMQ")
	}
	defer conn.Close()

	workerConfig := WorkerConfig{
		DB:         dbqueries,
		Generator:  generator,
		RabbitConn: conn,
		RabbitMQ:   cfg.RabbitMQ,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           newRouter(&workerConfig, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	log.Info().Int("workers", cfg.Workers).Str("queue", cfg.RabbitMQ.Queue).Msg("starting consumer pool")
	workerConfig.StartConsumerWorkerPool(ctx, cfg.Workers)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	log.Info().Msg("stopped")
}
