package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"inventory/m/internal/api"
	"inventory/m/internal/cache"
	"inventory/m/internal/config"
	"inventory/m/internal/database"
	"inventory/m/internal/imports"
	"inventory/m/internal/ledger"
	"inventory/m/internal/migrations"
	"inventory/m/internal/progress"
	"inventory/m/internal/seed"
	"inventory/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := store.New(db)
	if cfg.SeedProductsCSV != "" {
		seed.LoadProducts(ctx, s, cfg.SeedProductsCSV)
	}

	products, err := cache.NewProductCache(cfg.RedisAddr)
	if err != nil {
		log.Printf("product cache disabled: %v", err)
	}
	defer products.Close()

	registry := progress.NewRegistry()
	if cfg.ImportJobTTL > 0 {
		go registry.RunJanitor(ctx, time.Hour, cfg.ImportJobTTL)
	}

	// Import jobs outlive the request that accepted them and are drained on
	// shutdown, so they do not run on the signal context.
	pool := imports.NewPool(context.Background(), cfg.ImportWorkers)
	importer := imports.NewService(cfg.ImportDir, registry, pool, imports.NewWorker(s, registry))

	handler := api.New(s, ledger.New(s, products), importer, registry, products, api.Options{
		Secret:         cfg.Secret,
		TokenTTL:       cfg.TokenTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Inventory API starting on :%s (driver %s, %d import workers)", cfg.HTTPPort, cfg.DatabaseDriver, cfg.ImportWorkers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	log.Printf("waiting for %d queued import jobs", pool.Queued())
	pool.Wait()
}
