package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"medchart/m/internal/api"
	"medchart/m/internal/catalog"
	"medchart/m/internal/config"
	"medchart/m/internal/database"
	"medchart/m/internal/logging"
	"medchart/m/internal/migrations"
	"medchart/m/internal/seed"
	"medchart/m/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	st, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to open medicine store", zap.Error(err))
	}
	defer closeStore()

	if cfg.SeedCSV != "" {
		seed.LoadMedicines(st, cfg.SeedCSV, logger)
	}

	var opts []catalog.Option
	if cfg.Store.Serialize {
		opts = append(opts, catalog.WithSerializedAccess())
	}
	svc := catalog.NewService(st, opts...)
	handler := api.New(svc, logger, cfg.CORSOrigins)

	logger.Info("Medicine Chart API starting",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store", cfg.Store.Driver),
		zap.String("data", cfg.Store.Location()),
		zap.Bool("serialized", svc.Serialized()),
		zap.String("env", cfg.Env),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// openStore builds the configured snapshot store and a func releasing it.
func openStore(cfg config.StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.Driver != config.DriverSQLite {
		return store.NewFileStore(cfg.File, logger), func() {}, nil
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
	if err := migrations.Run(db); err != nil {
		closeDB()
		return nil, nil, err
	}
	return store.NewSQLiteStore(db, cfg.DatabaseDSN, logger), closeDB, nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
