package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const (
	defaultChunkBytes  = 4096
	defaultOpenTimeout = 3 * time.Second
	stderrLimit        = 4096
)

// DefaultCommand records 16 kHz mono WAV from the default ALSA device to
// stdout.
var DefaultCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-"}

// CommandSource captures audio by running an external recorder that writes
// the encoded stream to stdout (arecord, ffmpeg, sox, ...).
type CommandSource struct {
	Command []string

	// MIMEType tags every chunk. When empty it is sniffed from the first
	// bytes the recorder produces.
	MIMEType string

	ChunkBytes  int
	OpenTimeout time.Duration
}

// Open starts the recorder and waits until it delivers its first bytes.
// A missing binary, a recorder that exits before producing audio, or one
// that stays silent past OpenTimeout is reported as ErrPermissionDenied.
func (s *CommandSource) Open(ctx context.Context) (Stream, error) {
	if len(s.Command) == 0 {
		return nil, fmt.Errorf("%w: no recorder command configured", ErrPermissionDenied)
	}
	path, err := exec.LookPath(s.Command[0])
	if err != nil {
		return nil, fmt.Errorf("%w: recorder %q not found: %v", ErrPermissionDenied, s.Command[0], err)
	}

	cmd := exec.Command(path, s.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recorder stdout: %w", err)
	}
	stderr := &headBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrPermissionDenied, s.Command[0], err)
	}
	log.Debug("recorder started", zap.String("command", strings.Join(s.Command, " ")), zap.Int("pid", cmd.Process.Pid))

	chunkBytes := s.ChunkBytes
	if chunkBytes <= 0 {
		chunkBytes = defaultChunkBytes
	}
	st := &commandStream{
		cmd:      cmd,
		mimeType: s.MIMEType,
		chunks:   make(chan Chunk, 16),
		ready:    make(chan struct{}),
		exited:   make(chan struct{}),
		released: make(chan struct{}),
	}
	go st.pump(stdout, chunkBytes)

	openTimeout := s.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultOpenTimeout
	}
	timer := time.NewTimer(openTimeout)
	defer timer.Stop()

	select {
	case <-st.ready:
		return st, nil
	case <-st.exited:
		select {
		case <-st.ready:
			return st, nil
		default:
		}
		st.Close()
		return nil, fmt.Errorf("%w: recorder exited before producing audio: %s", ErrPermissionDenied, stderr.String())
	case <-timer.C:
		st.Close()
		return nil, fmt.Errorf("%w: recorder produced no audio within %s", ErrPermissionDenied, openTimeout)
	case <-ctx.Done():
		st.Close()
		return nil, ctx.Err()
	}
}

type commandStream struct {
	cmd      *exec.Cmd
	mimeType string

	chunks   chan Chunk
	ready    chan struct{} // closed on the first byte read
	exited   chan struct{} // closed after cmd.Wait returns
	released chan struct{} // closed by Close

	readyOnce   sync.Once
	stopOnce    sync.Once
	releaseOnce sync.Once
	waitErr     error
}

func (st *commandStream) Chunks() <-chan Chunk {
	return st.chunks
}

// Stop interrupts the recorder so it can flush and close its output.
func (st *commandStream) Stop() error {
	var err error
	st.stopOnce.Do(func() {
		select {
		case <-st.exited:
			return
		default:
		}
		if err = st.cmd.Process.Signal(os.Interrupt); err != nil {
			err = st.cmd.Process.Kill()
		}
	})
	return err
}

// Close kills the recorder if it is still running and waits for it to exit.
func (st *commandStream) Close() error {
	st.releaseOnce.Do(func() {
		close(st.released)
		select {
		case <-st.exited:
		default:
			st.cmd.Process.Kill()
		}
	})
	<-st.exited
	return nil
}

// pump reads stdout until EOF, then reaps the process. Wait must only be
// called after every read from the pipe has finished.
func (st *commandStream) pump(stdout io.Reader, chunkBytes int) {
	defer close(st.exited)
	defer close(st.chunks)

	buf := make([]byte, chunkBytes)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			st.readyOnce.Do(func() { close(st.ready) })
			data := make([]byte, n)
			copy(data, buf[:n])
			if st.mimeType == "" {
				st.mimeType = sniffMIME(data)
			}
			select {
			case st.chunks <- Chunk{Data: data, MIMEType: st.mimeType}:
			case <-st.released:
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Debug("recorder output ended", zap.Error(err))
			}
			break
		}
	}

	st.waitErr = st.cmd.Wait()
	if st.waitErr != nil {
		log.Debug("recorder exited", zap.Error(st.waitErr))
	}
}

func sniffMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// headBuffer keeps the first limit bytes written to it.
type headBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *headBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *headBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
