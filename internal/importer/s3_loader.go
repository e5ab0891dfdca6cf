package importer

import (
	"context"
	"fmt"

	"promo-service/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3Loader implements Loader for gzipped JSON-lines files stored in S3.
// Paths are object keys within the configured bucket.
type s3Loader struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates an S3-backed definition loader.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Loader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		logger: logger.With().Str("component", "import-s3-loader").Str("bucket", bucket).Logger(),
	}, nil
}

// Load fetches an object from S3 and decodes the definitions it contains.
func (l *s3Loader) Load(ctx context.Context, key string) ([]model.PromoCodeCreateRequest, error) {
	l.logger.Info().Str("key", key).Msg("loading definition file from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	defs, err := decodeDefinitions(ctx, result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object %s: %w", key, err)
	}

	l.logger.Info().Str("key", key).Int("definitions", len(defs)).Msg("definition file loaded from S3")

	return defs, nil
}
