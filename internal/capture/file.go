package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// FileSource replays a prepared recording as if it were captured live.
// The stream ends on its own once the file has been delivered.
type FileSource struct {
	Path       string
	ChunkBytes int

	// MIMEType overrides content sniffing when set.
	MIMEType string
}

func (s *FileSource) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("read recording: %w", err)
	}

	mimeType := s.MIMEType
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	chunkBytes := s.ChunkBytes
	if chunkBytes <= 0 {
		chunkBytes = defaultChunkBytes
	}

	st := &sliceStream{
		chunks:   make(chan Chunk),
		released: make(chan struct{}),
	}
	go st.deliver(Split(data, chunkBytes, mimeType))
	return st, nil
}

// Split cuts data into chunks of at most size bytes, all tagged mimeType.
func Split(data []byte, size int, mimeType string) []Chunk {
	if size <= 0 {
		size = defaultChunkBytes
	}
	chunks := make([]Chunk, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		chunks = append(chunks, Chunk{Data: data[start:end], MIMEType: mimeType})
	}
	return chunks
}

// sliceStream delivers a fixed chunk list, then closes.
type sliceStream struct {
	chunks      chan Chunk
	released    chan struct{}
	releaseOnce sync.Once
}

func (st *sliceStream) deliver(chunks []Chunk) {
	defer close(st.chunks)
	for _, c := range chunks {
		select {
		case st.chunks <- c:
		case <-st.released:
			return
		}
	}
}

func (st *sliceStream) Chunks() <-chan Chunk {
	return st.chunks
}

// Stop is a no-op: the remaining chunks are already recorded and are
// delivered before the channel closes.
func (st *sliceStream) Stop() error {
	return nil
}

func (st *sliceStream) Close() error {
	st.releaseOnce.Do(func() { close(st.released) })
	return nil
}

// LoadFile reads a whole file into a Clip, sniffing its MIME type. Used for
// uploads that are not recorded live, such as face images.
func LoadFile(path string) (Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, err
	}
	return Clip{Data: data, MIMEType: mimetype.Detect(data).String()}, nil
}
