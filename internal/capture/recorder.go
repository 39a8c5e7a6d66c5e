package capture

import (
	"context"
	"time"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/logging"
	"go.uber.org/zap"
)

var log = logging.L("capture")

const (
	// DefaultDuration is used when a recording is requested without a length.
	DefaultDuration = 4 * time.Second

	// stopGrace bounds how long a stopped stream may take to flush before
	// the device is released forcibly.
	stopGrace = 2 * time.Second
)

// State names a step of one capture-then-submit cycle.
type State string

const (
	StateIdle               State = "idle"
	StateAwaitingPermission State = "awaiting-permission"
	StateRecording          State = "recording"
	StateAssembling         State = "assembling"
	StateSubmitting         State = "submitting"
	StateDone               State = "done"
)

// Recorder records one clip per Record call. A Recorder holds no state
// between calls, so concurrent Record calls never share chunks.
type Recorder struct {
	Duration time.Duration

	// OnState, when set, is called on every state transition.
	OnState func(State)

	after func(time.Duration) <-chan time.Time
}

// NewRecorder returns a Recorder capturing d of audio (DefaultDuration if
// d <= 0).
func NewRecorder(d time.Duration) *Recorder {
	return &Recorder{Duration: d, after: time.After}
}

// Record acquires src, accumulates chunks until the duration elapses or the
// stream ends on its own, and returns the assembled clip. The device is
// released before Record returns on every path. A recording that produced
// no chunks returns an empty clip and a nil error.
func (r *Recorder) Record(ctx context.Context, src Source) (Clip, error) {
	d := r.Duration
	if d <= 0 {
		d = DefaultDuration
	}
	after := r.after
	if after == nil {
		after = time.After
	}
	logger := logging.FromContext(ctx).Named("capture")

	r.transition(StateAwaitingPermission)
	stream, err := src.Open(ctx)
	if err != nil {
		logger.Warn("audio input unavailable", zap.Error(err))
		return Clip{}, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			logger.Warn("failed to release audio input", zap.Error(cerr))
		}
	}()

	r.transition(StateRecording)
	started := time.Now()
	logger.Debug("recording started", zap.Duration("duration", d))

	var chunks []Chunk
	var grace <-chan time.Time
	timer := after(d)
	in := stream.Chunks()

collect:
	for {
		select {
		case c, ok := <-in:
			if !ok {
				break collect
			}
			chunks = append(chunks, c)
		case <-timer:
			timer = nil
			if err := stream.Stop(); err != nil {
				logger.Warn("stop request failed, forcing release", zap.Error(err))
				stream.Close()
			}
			grace = after(stopGrace)
		case <-grace:
			grace = nil
			logger.Warn("stream did not finish after stop, forcing release")
			stream.Close()
		case <-ctx.Done():
			stream.Stop()
			logger.Info("recording cancelled", zap.Int("chunks", len(chunks)))
			return Clip{}, ctx.Err()
		}
	}

	r.transition(StateAssembling)
	clip := Assemble(chunks)
	logger.Info("recording finished",
		zap.Int("chunks", len(chunks)),
		zap.Int(logging.KeyBytes, clip.Size()),
		zap.String(logging.KeyMIMEType, clip.MIMEType),
		zap.Int64(logging.KeyDurationMs, time.Since(started).Milliseconds()),
	)
	return clip, nil
}

func (r *Recorder) transition(s State) {
	if r.OnState != nil {
		r.OnState(s)
	}
}
