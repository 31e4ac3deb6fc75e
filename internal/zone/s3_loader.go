package zone

import (
	"context"
	"fmt"
	"io"

	"tiendita/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// s3Loader implements Loader for reading zone documents from AWS S3.
type s3Loader struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based zone loader.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-zone-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 zone loader initialised")

	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger,
	}, nil
}

// Load reads a JSON zone document from S3. The key parameter is the full
// object key.
func (l *s3Loader) Load(ctx context.Context, key string) ([]model.DeliveryZone, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading zone document from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to read S3 object body")
		return nil, fmt.Errorf("failed to read S3 object %s: %w", key, err)
	}

	zones, err := parseZones(data)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to parse zone document from S3")
		return nil, fmt.Errorf("failed to parse zone document from S3 %s: %w", key, err)
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("zones_loaded", len(zones)).
		Msg("zone document loaded successfully from S3")

	return zones, nil
}

// fallbackLoader tries S3 first, then falls back to the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Key      string
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackLoader creates a loader that tries S3 first, then falls back to
// the local file system. If s3Loader is nil, only the file loader is used.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Key string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Key:      s3Key,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "fallback-zone-loader").Logger(),
	}
}

// Load attempts to load from S3 first, then falls back to the local path.
func (l *fallbackLoader) Load(ctx context.Context, path string) ([]model.DeliveryZone, error) {
	if l.s3Enabled && l.s3Loader != nil {
		l.logger.Info().
			Str("s3_key", l.s3Key).
			Str("local_fallback", path).
			Msg("attempting to load zones from S3")

		zones, err := l.s3Loader.Load(ctx, l.s3Key)
		if err == nil {
			return zones, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", l.s3Key).
			Msg("failed to load zones from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, path)
}
