package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/summitgear/internal/auth"
	"github.com/hongminglow/summitgear/internal/config"
	"github.com/hongminglow/summitgear/internal/logging"
	"github.com/hongminglow/summitgear/internal/server"
	"github.com/hongminglow/summitgear/internal/storage"
	"github.com/hongminglow/summitgear/internal/storage/memory"
	"github.com/hongminglow/summitgear/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, os.Stdout)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.GetLevel())
	if envErr != nil {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init storage")
	}
	defer store.Close()

	denylist, closeDenylist, err := openDenylist(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init token deny-list")
	}
	defer closeDenylist()

	srv := server.New(cfg, store, denylist, log)
	if err := srv.SeedAdmin(ctx); err != nil {
		log.WithError(err).Fatal("seed administrator")
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddress()).Info("SummitGear API listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Warn("graceful shutdown error")
	}
}

func openStore(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	}
	return postgres.NewStore(ctx, cfg.DatabaseURL)
}

func openDenylist(ctx context.Context, cfg config.Config, log *logrus.Logger) (auth.Denylist, func(), error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryDenylist(), func() {}, nil
	}
	d, err := auth.NewRedisDenylist(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("token deny-list backed by redis")
	return d, func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Warn("close redis")
		}
	}, nil
}
