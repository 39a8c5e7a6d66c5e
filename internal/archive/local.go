package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
)

// containedPath resolves untrustedPath under basePath and rejects anything
// that would land outside it.
func containedPath(basePath, untrustedPath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absJoined, err := filepath.Abs(filepath.Join(absBase, filepath.FromSlash(untrustedPath)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q resolves outside base %q", untrustedPath, absBase)
	}
	return absJoined, nil
}

// LocalStore keeps clips in a directory on a local or mounted filesystem.
type LocalStore struct {
	BasePath string
}

func NewLocal(basePath string) (*LocalStore, error) {
	if basePath == "" {
		return nil, errors.New("local archive path is required")
	}
	return &LocalStore{BasePath: filepath.Clean(basePath)}, nil
}

// Put writes the clip to a temporary file and renames it into place so a
// partially written clip is never visible under its final name.
func (s *LocalStore) Put(ctx context.Context, key string, clip capture.Clip) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.New("archive key is required")
	}

	dest, err := containedPath(s.BasePath, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".clip-*")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(clip.Data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o600)
	}
	if err == nil {
		err = os.Rename(tmpName, dest)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return dest, nil
}

func (s *LocalStore) Close() error { return nil }
