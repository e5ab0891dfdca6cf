package importer

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"promo-service/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped JSON-lines files on the local
// file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a file-system definition loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "import-loader").Logger(),
	}
}

// Load reads a gzipped definition file, one JSON object per line.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.PromoCodeCreateRequest, error) {
	l.logger.Info().Str("file", path).Msg("loading definition file")

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition file %s: %w", path, err)
	}
	defer file.Close()

	defs, err := decodeDefinitions(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file %s: %w", path, err)
	}

	l.logger.Info().Str("file", path).Int("definitions", len(defs)).Msg("definition file loaded")

	return defs, nil
}

// decodeDefinitions reads gzipped JSON-lines definitions from r. Blank
// lines are ignored; a malformed line fails the whole file rather than
// silently dropping definitions.
func decodeDefinitions(ctx context.Context, r io.Reader) ([]model.PromoCodeCreateRequest, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var defs []model.PromoCodeCreateRequest
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var def model.PromoCodeCreateRequest
		if err := json.Unmarshal([]byte(line), &def); err != nil {
			return nil, fmt.Errorf("invalid definition on line %d: %w", lineNo, err)
		}
		defs = append(defs, def)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading definitions: %w", err)
	}

	return defs, nil
}
