package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	clip := capture.Clip{Data: []byte{1}, MIMEType: "audio/webm"}
	assert.Equal(t, "clips/user_at_example.com/c-1.webm", Key("/clips/", "User@Example.com", "c-1", clip))
	assert.Equal(t, "anonymous/c-2.bin", Key("", "", "c-2", capture.Clip{}))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"a@b.c":            "a_at_b.c",
		" Mixed@Case.ORG ": "mixed_at_case.org",
		"../../etc/passwd": "etc-passwd",
		"":                 "anonymous",
		"first last@x.io":  "first-last_at_x.io",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), "Slug(%q)", in)
	}
}

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)

	clip := capture.Clip{Data: []byte("RIFFdata"), MIMEType: "audio/wav"}
	where, err := store.Put(context.Background(), "a_at_b.c/cycle.wav", clip)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_at_b.c", "cycle.wav"), where)

	got, err := os.ReadFile(where)
	require.NoError(t, err)
	assert.Equal(t, clip.Data, got)

	info, err := os.Stat(where)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(dir, "a_at_b.c"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../escape.wav", "a/../../escape.wav", "."} {
		_, err := store.Put(context.Background(), key, capture.Clip{Data: []byte{1}})
		assert.Error(t, err, "key %q", key)
	}
}

func TestLocalStoreCancelledContext(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "k.wav", capture.Clip{Data: []byte{1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.ArchiveConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = New(ctx, config.ArchiveConfig{Provider: "ftp"})
	assert.Error(t, err)

	store, err = New(ctx, config.ArchiveConfig{Provider: "local", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.NoError(t, store.Close())

	for _, cfg := range []config.ArchiveConfig{
		{Provider: "local"},
		{Provider: "s3", Bucket: "clips"},
		{Provider: "azure", Container: "clips"},
		{Provider: "gcs"},
		{Provider: "b2", Bucket: "clips"},
	} {
		_, err := New(ctx, cfg)
		assert.Error(t, err, "provider %s", cfg.Provider)
	}
}

func TestNewS3WithStaticKeys(t *testing.T) {
	store, err := NewS3(context.Background(), config.ArchiveConfig{
		Provider:        "s3",
		Bucket:          "clips",
		Region:          "eu-west-1",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "clips", store.Bucket)
}

func TestNewAzureWithAccountURL(t *testing.T) {
	store, err := NewAzure(config.ArchiveConfig{
		Container:  "clips",
		AccountURL: "https://acct.blob.core.windows.net/?sv=2022-11-02&sig=x",
	})
	require.NoError(t, err)
	assert.Equal(t, "clips", store.Container)
}
