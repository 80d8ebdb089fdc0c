package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/config"
	"github.com/sleepoutside/backend/internal/events"
	"github.com/sleepoutside/backend/internal/handlers"
	"github.com/sleepoutside/backend/internal/logging"
	appMiddleware "github.com/sleepoutside/backend/internal/middleware"
	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
	"github.com/sleepoutside/backend/internal/storage"
	"github.com/sleepoutside/backend/internal/validation"
)

func main() {
	os.Exit(serve())
}

// serve returns the process exit code so deferred cleanup runs first.
func serve() int {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Persistent storage shared by the cart and every inventory category
	store, closeStore, err := storage.Open(ctx, storage.Options{
		Driver:     cfg.StorageDriver,
		DataDir:    cfg.DataDir,
		MongoURI:   cfg.MongoURI,
		MongoDB:    cfg.MongoDB,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	catalogSource, closeCatalog, err := newCatalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCatalog()

	// Initialize services
	cart := services.NewCartManager(store, logger)
	managers := services.NewInventoryManagers(store, logger)
	catalog := services.NewCatalogService(catalogSource, logger)
	images, err := services.NewImageService(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}
	if cfg.ScreenUploads {
		screener, err := services.NewVisionScreener(ctx)
		if err != nil {
			return fmt.Errorf("upload screening: %w", err)
		}
		images.SetScreener(screener)
	}
	mailer := services.NewOrderMailer(cfg.SendGridAPIKey, cfg.OrderFromEmail, cfg.OrderBccEmail)
	if !mailer.Enabled() {
		logger.Info("order confirmation mail disabled")
	}

	// Auth: admin JWTs always, Firebase ID tokens when configured
	tokens := appMiddleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTExpiration)
	verifiers := []appMiddleware.TokenVerifier{tokens}
	firebaseVerifier, err := appMiddleware.NewFirebaseVerifier(ctx, appMiddleware.FirebaseAuthConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
	}, cfg.FirebaseAdminUIDs...)
	if err != nil {
		logger.Warn("failed to initialize Firebase Auth client", zap.Error(err))
	} else if firebaseVerifier != nil {
		verifiers = append(verifiers, firebaseVerifier)
	}

	hub := events.NewHub(32, logger)
	eventsHandler := handlers.NewEventsHandler(hub, cart, logger)
	detach := eventsHandler.Attach(managers)
	defer detach()

	if cfg.WatchStore && cfg.StorageDriver == "file" {
		watcher, err := storage.NewWatcher(cfg.DataDir, cfg.WatchDebounce, reloadOnChange(cart, managers, logger), logger)
		if err != nil {
			return fmt.Errorf("store watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("store watcher: %w", err)
		}
		defer watcher.Stop()
	}

	router := handlers.NewRouter(handlers.Routes{
		Catalog:        handlers.NewCatalogHandler(catalog, logger),
		Cart:           handlers.NewCartHandler(cart, catalog, logger),
		Checkout:       handlers.NewCheckoutHandler(cart, validation.NewCheckoutValidator(nil), mailer, logger),
		Inventory:      handlers.NewInventoryHandler(managers, validation.NewProductValidator(), logger),
		Auth:           handlers.NewAuthHandler(cfg.AdminPasswordHash, tokens, logger),
		Images:         handlers.NewImageHandler(images, cfg.MaxUploadSizeMB, logger),
		Events:         eventsHandler,
		Admin:          appMiddleware.AdminAuth(verifiers...),
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Sleep Outside API server starting",
			zap.String("addr", cfg.ServerAddress),
			zap.String("storage", cfg.StorageDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCatalogSource prefers the GCS bucket when one is configured.
func newCatalogSource(ctx context.Context, cfg *config.Config) (services.CatalogSource, func(), error) {
	if cfg.CatalogBucket == "" {
		return services.FileCatalogSource{Dir: cfg.CatalogDir}, func() {}, nil
	}
	src, err := services.NewGCSCatalogSource(ctx, cfg.CatalogBucket, cfg.CatalogPrefix)
	if err != nil {
		return nil, nil, err
	}
	return src, func() { _ = src.Close() }, nil
}

// reloadOnChange routes a store change to the manager that owns the key.
func reloadOnChange(cart *services.CartManager, managers map[models.Category]*services.InventoryManager, logger *zap.Logger) func(storage.Change) {
	byKey := make(map[string]*services.InventoryManager, len(managers))
	for c, m := range managers {
		byKey[c.StorageKey()] = m
	}
	return func(ch storage.Change) {
		var err error
		switch {
		case ch.Key == services.CartKey:
			err = cart.Reload()
		case byKey[ch.Key] != nil:
			err = byKey[ch.Key].Reload()
		default:
			return
		}
		if err != nil {
			logger.Warn("reload after store change", zap.String("key", ch.Key), zap.Error(err))
		}
	}
}
