// Package importer seeds the promo code store in bulk from gzipped
// JSON-lines files, read from the local file system or from S3. Each line is
// one promo code definition in the same shape as the create API payload.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"promo-service/internal/model"
	"promo-service/internal/service"

	"github.com/rs/zerolog"
)

// Loader defines the interface for reading promo code definition files.
type Loader interface {
	// Load reads a gzipped JSON-lines file and returns the definitions it
	// contains.
	Load(ctx context.Context, path string) ([]model.PromoCodeCreateRequest, error)
}

// Importer loads definition files and creates the promo codes they describe.
type Importer struct {
	promoService service.PromoCodeService
	loader       Loader
	logger       zerolog.Logger
}

// New creates an importer.
func New(promoService service.PromoCodeService, loader Loader, logger zerolog.Logger) *Importer {
	return &Importer{
		promoService: promoService,
		loader:       loader,
		logger:       logger.With().Str("component", "importer").Logger(),
	}
}

// Result summarises one import run.
type Result struct {
	Created int
	Skipped int
}

// Run loads all files concurrently and creates the promo codes they define.
// Codes that already exist and definitions that fail validation are skipped
// and logged, never fatal: re-running an import over the same files is
// harmless.
func (i *Importer) Run(ctx context.Context, paths []string) (Result, error) {
	type loadResult struct {
		path string
		defs []model.PromoCodeCreateRequest
		err  error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defs, err := i.loader.Load(ctx, path)
			resultChan <- loadResult{path: path, defs: defs, err: err}
		}(path)
	}

	wg.Wait()
	close(resultChan)

	// Creation is run by a synthetic admin caller: import is an
	// operator-level action.
	admin := model.Caller{Admin: true, Authenticated: true}

	var res Result
	for lr := range resultChan {
		if lr.err != nil {
			return res, fmt.Errorf("failed to load definition file %s: %w", lr.path, lr.err)
		}

		for _, def := range lr.defs {
			if _, err := i.promoService.Create(ctx, admin, def); err != nil {
				var verr *model.ValidationError
				if errors.As(err, &verr) {
					i.logger.Debug().
						Str("code", def.Code).
						Str("file", lr.path).
						Str("reason", verr.Message).
						Msg("definition skipped")
					res.Skipped++
					continue
				}
				return res, fmt.Errorf("failed to import code %q from %s: %w", def.Code, lr.path, err)
			}
			res.Created++
		}

		i.logger.Info().
			Str("file", lr.path).
			Int("definitions", len(lr.defs)).
			Msg("definition file processed")
	}

	i.logger.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Msg("import completed")

	return res, nil
}
