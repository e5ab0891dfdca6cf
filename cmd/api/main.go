package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promo-service/internal/auth"
	"promo-service/internal/config"
	"promo-service/internal/database"
	"promo-service/internal/handler"
	"promo-service/internal/importer"
	"promo-service/internal/middleware"
	"promo-service/internal/repository"
	"promo-service/internal/router"
	"promo-service/internal/service"
	"promo-service/internal/tracing"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting promo-service API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialise tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shut down tracing")
		}
	}()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	promoRepo := repository.NewPromoCodeRepository(pool, logger)
	redemptionRepo := repository.NewRedemptionRepository(pool, logger)

	promoService := service.NewPromoCodeService(promoRepo, logger)
	redemptionService := service.NewRedemptionService(redemptionRepo, promoRepo, logger)

	if cfg.Import.Enabled {
		if err := runImport(ctx, cfg.Import, promoService, logger); err != nil {
			return fmt.Errorf("failed to import promo code definitions: %w", err)
		}
	}

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
	}

	promoHandler := handler.NewPromoCodeHandler(promoService, logger)
	redemptionHandler := handler.NewRedemptionHandler(redemptionService, logger)

	mux := router.New(promoHandler, redemptionHandler, tokens, limiter, cfg, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// runImport seeds the store from the configured definition files before the
// server starts accepting traffic.
func runImport(ctx context.Context, cfg config.ImportConfig, promoService service.PromoCodeService, logger zerolog.Logger) error {
	var loader importer.Loader
	if cfg.S3Enabled {
		// The configured paths are S3 object keys; a local fallback would
		// only fail later with a misleading not-found error.
		s3Loader, err := importer.NewS3Loader(ctx, cfg.S3Bucket, cfg.S3Region, logger)
		if err != nil {
			return fmt.Errorf("failed to initialise S3 loader: %w", err)
		}
		loader = s3Loader
	} else {
		loader = importer.NewFileLoader(logger)
	}

	result, err := importer.New(promoService, loader, logger).Run(ctx, cfg.FilePaths)
	if err != nil {
		return err
	}

	logger.Info().
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("promo code definitions imported")

	return nil
}
