package capture

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavHeader is enough of a RIFF/WAVE header for content sniffing.
var wavHeader = []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x80\x3e\x00\x00\x00\x7d\x00\x00\x02\x00\x10\x00data\x00\x00\x00\x00")

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestSplitCoversAllBytes(t *testing.T) {
	data := bytes.Repeat([]byte{1}, 10)
	chunks := Split(data, 4, "audio/wav")

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Data, 4)
	assert.Len(t, chunks[2].Data, 2)
	assert.Equal(t, data, Assemble(chunks).Data)
	assert.Empty(t, Split(nil, 4, "audio/wav"))
}

func TestFileSourceReplaysRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.wav")
	payload := append(append([]byte{}, wavHeader...), bytes.Repeat([]byte{0x10}, 5000)...)
	require.NoError(t, os.WriteFile(path, payload, 0o600))

	rec := NewRecorder(time.Minute)
	rec.after = neverFires

	clip, err := rec.Record(context.Background(), &FileSource{Path: path, ChunkBytes: 1024})
	require.NoError(t, err)
	assert.Equal(t, payload, clip.Data)
	assert.Equal(t, "audio/wav", clip.MIMEType)
}

func TestFileSourceMIMEOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice.webm")
	require.NoError(t, os.WriteFile(path, []byte("opaque"), 0o600))

	rec := NewRecorder(time.Minute)
	rec.after = neverFires

	clip, err := rec.Record(context.Background(), &FileSource{Path: path, MIMEType: "audio/webm"})
	require.NoError(t, err)
	assert.Equal(t, "audio/webm", clip.MIMEType)
}

func TestFileSourceMissingFileIsPermissionDenied(t *testing.T) {
	src := &FileSource{Path: filepath.Join(t.TempDir(), "absent.webm")}
	_, err := src.Open(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCommandSourceMissingBinary(t *testing.T) {
	src := &CommandSource{Command: []string{"definitely-not-a-recorder-binary"}}
	_, err := src.Open(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCommandSourceNoCommand(t *testing.T) {
	_, err := (&CommandSource{}).Open(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCommandSourceExitWithoutAudio(t *testing.T) {
	requireShell(t)
	src := &CommandSource{
		Command:     []string{"sh", "-c", "echo 'audio open error: Permission denied' >&2; exit 1"},
		OpenTimeout: 2 * time.Second,
	}
	_, err := src.Open(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "Permission denied")
}

func TestCommandSourceSilentRecorderTimesOut(t *testing.T) {
	requireShell(t)
	src := &CommandSource{
		Command:     []string{"sh", "-c", "sleep 5"},
		OpenTimeout: 50 * time.Millisecond,
	}
	_, err := src.Open(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCommandSourceStreamEndsOnItsOwn(t *testing.T) {
	requireShell(t)
	src := &CommandSource{
		Command:    []string{"sh", "-c", "printf 'abcdefghij'"},
		MIMEType:   "audio/webm",
		ChunkBytes: 4,
	}
	rec := NewRecorder(time.Minute)
	rec.after = neverFires

	clip, err := rec.Record(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefghij"), clip.Data)
	assert.Equal(t, "audio/webm", clip.MIMEType)
}

func TestCommandSourceStopInterruptsRecorder(t *testing.T) {
	requireShell(t)
	src := &CommandSource{
		Command:  []string{"sh", "-c", "trap 'exit 0' INT; while true; do printf 'ab'; sleep 0.02; done"},
		MIMEType: "audio/webm",
	}
	rec := NewRecorder(150 * time.Millisecond)

	done := make(chan struct{})
	var clip Clip
	var err error
	go func() {
		defer close(done)
		clip, err = rec.Record(context.Background(), src)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record did not return after the duration elapsed")
	}
	require.NoError(t, err)
	assert.False(t, clip.Empty())
	assert.Equal(t, "audio/webm", clip.MIMEType)
}
