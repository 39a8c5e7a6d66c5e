package capture

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied indicates the audio input could not be acquired,
	// either because access was refused or no usable device exists.
	ErrPermissionDenied = errors.New("audio input permission denied")

	// ErrEmptyCapture indicates a recording finished without producing audio.
	ErrEmptyCapture = errors.New("capture produced no audio")
)

// Source is a permission-gated provider of encoded audio.
type Source interface {
	// Open acquires the input device and blocks until it is ready to
	// deliver audio. Failures wrap ErrPermissionDenied.
	Open(ctx context.Context) (Stream, error)
}

// Stream is one open recording session on a Source.
type Stream interface {
	// Chunks delivers audio fragments in order. The channel is closed once
	// the stream has fully stopped and every pending chunk was delivered.
	Chunks() <-chan Chunk

	// Stop asks the stream to finish. Pending audio is flushed to Chunks
	// before the channel closes.
	Stop() error

	// Close releases the input device. It is safe to call more than once.
	Close() error
}
