package archive

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/config"
	"google.golang.org/api/option"
)

// GCSStore uploads clips to a Google Cloud Storage bucket.
type GCSStore struct {
	Bucket string
	client *storage.Client
}

// NewGCS uses the credentials file when set and application default
// credentials otherwise.
func NewGCS(ctx context.Context, cfg config.ArchiveConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{Bucket: cfg.Bucket, client: client}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, clip capture.Clip) (string, error) {
	w := s.client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType(clip)

	if _, err := w.Write(clip.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.Bucket, key), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
