package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"promo-service/internal/model"
)

// Generates sample gzipped JSON-lines definition files that the importer can
// load at startup (IMPORT_FILES=data/promocodes/seed1.gz,...).
func main() {
	dataDir := "data/promocodes"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	nextMonth := time.Now().AddDate(0, 1, 0).UTC().Truncate(time.Second)
	tenPercent := decimal.RequireFromString("0.10")
	halfOff := decimal.RequireFromString("0.50")
	fiveOff := decimal.RequireFromString("5.00")
	twentyOff := decimal.RequireFromString("20.00")
	three := 3
	one := 1

	files := map[string][]model.PromoCodeCreateRequest{
		"seed1.gz": {
			{Code: "WELCOME10", Kind: model.PromoKindPercent, Amount: &tenPercent},
			{Code: "FIVER", Kind: model.PromoKindValue, Amount: &fiveOff, RepeatLimit: &three},
			{Code: "HALFOFF", Kind: model.PromoKindPercent, Amount: &halfOff, ExpiresAt: &nextMonth, RepeatLimit: &one},
		},
		"seed2.gz": {
			{Code: "TWENTYOFF", Kind: model.PromoKindValue, Amount: &twentyOff, ExpiresAt: &nextMonth},
			{Code: "WELCOME10", Kind: model.PromoKindPercent, Amount: &tenPercent}, // duplicate, importer skips it
		},
	}

	for filename, defs := range files {
		filePath := filepath.Join(dataDir, filename)

		if err := writeDefinitionFile(filePath, defs); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d definitions\n", filePath, len(defs))
	}

	fmt.Println("\nSample definition files created successfully!")
}

func writeDefinitionFile(filePath string, defs []model.PromoCodeCreateRequest) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := json.NewEncoder(gzipWriter)
	for _, def := range defs {
		if err := encoder.Encode(def); err != nil {
			return fmt.Errorf("failed to write definition: %w", err)
		}
	}

	return nil
}
