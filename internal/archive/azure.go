package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/config"
)

// AzureStore uploads clips as block blobs into one container.
type AzureStore struct {
	Container string
	client    *azblob.Client
}

// NewAzure authenticates with a connection string when one is configured.
// Otherwise the account URL must carry a SAS token.
func NewAzure(cfg config.ArchiveConfig) (*AzureStore, error) {
	if cfg.Container == "" {
		return nil, errors.New("azure container is required")
	}

	var (
		client *azblob.Client
		err    error
	)
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountURL != "":
		client, err = azblob.NewClientWithNoCredential(cfg.AccountURL, nil)
	default:
		return nil, errors.New("azure account_url or connection_string is required")
	}
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}
	return &AzureStore{Container: cfg.Container, client: client}, nil
}

func (s *AzureStore) Put(ctx context.Context, key string, clip capture.Clip) (string, error) {
	ct := contentType(clip)
	_, err := s.client.UploadBuffer(ctx, s.Container, key, clip.Data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return "", fmt.Errorf("azure upload %s: %w", key, err)
	}
	return fmt.Sprintf("azure://%s/%s", s.Container, key), nil
}

func (s *AzureStore) Close() error { return nil }
