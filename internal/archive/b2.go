package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Backblaze/blazer/b2"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/config"
)

// B2Store uploads clips to a Backblaze B2 bucket.
type B2Store struct {
	bucket *b2.Bucket
}

func NewB2(ctx context.Context, cfg config.ArchiveConfig) (*B2Store, error) {
	if cfg.Bucket == "" || cfg.B2AccountID == "" || cfg.B2ApplicationKey == "" {
		return nil, errors.New("b2 bucket, account id and application key are required")
	}

	client, err := b2.NewClient(ctx, cfg.B2AccountID, cfg.B2ApplicationKey)
	if err != nil {
		return nil, fmt.Errorf("create b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open b2 bucket %s: %w", cfg.Bucket, err)
	}
	return &B2Store{bucket: bucket}, nil
}

func (s *B2Store) Put(ctx context.Context, key string, clip capture.Clip) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType(clip)}))
	if _, err := io.Copy(w, clip.Reader()); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("b2 upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("b2 upload %s: %w", key, err)
	}
	return fmt.Sprintf("b2://%s/%s", s.bucket.Name(), key), nil
}

func (s *B2Store) Close() error { return nil }
