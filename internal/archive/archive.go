// Package archive keeps a copy of each submitted clip in a configured store.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/config"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/logging"
	"go.uber.org/zap"
)

var log = logging.L("archive")

// Store writes clips under a key and reports where they landed.
type Store interface {
	Put(ctx context.Context, key string, clip capture.Clip) (string, error)
	Close() error
}

// New builds the store named by cfg.Provider. It returns a nil Store for
// the "none" provider.
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "local":
		store, err = NewLocal(cfg.Path)
	case "s3":
		store, err = NewS3(ctx, cfg)
	case "azure":
		store, err = NewAzure(cfg)
	case "gcs":
		store, err = NewGCS(ctx, cfg)
	case "b2":
		store, err = NewB2(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("archive provider %s: %w", cfg.Provider, err)
	}

	log.Info("clip archive enabled", zap.String("provider", cfg.Provider))
	return store, nil
}

// Key returns the object key for a clip: <prefix>/<email-slug>/<cycle-id><ext>.
func Key(prefix, email, cycleID string, clip capture.Clip) string {
	return path.Join(strings.Trim(prefix, "/"), Slug(email), cycleID+clip.Extension())
}

// Slug reduces an email address to a safe path segment.
func Slug(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	var b strings.Builder
	for _, r := range email {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == '@':
			b.WriteString("_at_")
		default:
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), ".-")
	if slug == "" {
		return "anonymous"
	}
	return slug
}

func contentType(clip capture.Clip) string {
	if clip.MIMEType == "" {
		return "application/octet-stream"
	}
	return clip.MIMEType
}
