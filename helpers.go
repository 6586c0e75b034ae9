package main

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/muhammadolammi/thumbworker/internal/config"
	"github.com/muhammadolammi/thumbworker/internal/storage"
	"github.com/rs/zerolog/log"
)

// retry calls fn up to attempts times, sleeping delay between failures. It is
// only used for startup connections; upload events are never retried.
func retry[T any](attempts int, delay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i < attempts-1 {
			log.Warn().Err(err).Int("attempt", i+1).Int("of", attempts).Msg("retrying")
			time.Sleep(delay)
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func newStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageProvider {
	case config.ProviderMinio:
		return storage.NewMinioStore(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	default:
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.S3.Region),
		}
		if cfg.S3.AccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")))
		}
		awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("error creating aws config: %w", err)
		}
		return storage.NewS3Store(awsConfig, cfg.S3.Endpoint, cfg.S3.UsePathStyle), nil
	}
}
