// Package session runs one capture-then-submit enrollment cycle.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/archive"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/enroll"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logging.L("session")

// Submitter uploads a recorded clip. *enroll.Client satisfies it.
type Submitter interface {
	EnrollVoice(ctx context.Context, email string, clip capture.Clip) (*enroll.Reply, error)
}

// Notifier shows the outcome of a cycle to the user.
type Notifier interface {
	Notify(text string)
}

// WriterNotifier writes each notification as one line.
type WriterNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

func (n *WriterNotifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.W, text)
}

// Cycle holds what a run needs. A Cycle may be run more than once; each
// run records into its own recorder.
type Cycle struct {
	Source    capture.Source
	Duration  time.Duration
	Submitter Submitter
	Notifier  Notifier

	// Archive is optional. Archive failures are logged and do not end the
	// cycle.
	Archive       archive.Store
	ArchivePrefix string

	// OnState, when set, is called on every state transition.
	OnState func(capture.State)
}

// Result describes a finished cycle.
type Result struct {
	CycleID    string
	Clip       capture.Clip
	Reply      *enroll.Reply
	ArchivedAt string
}

// Run records a clip for email, submits it and notifies the reply text
// verbatim. Permission and empty-capture failures end the cycle before any
// network call. A network failure is notified as its error text and
// returned.
func (c *Cycle) Run(ctx context.Context, email string) (*Result, error) {
	res := &Result{CycleID: uuid.NewString()}
	logger := logging.WithCycle(log, res.CycleID)
	ctx = logging.NewContext(ctx, logger)

	c.transition(capture.StateIdle)

	rec := capture.NewRecorder(c.Duration)
	rec.OnState = c.OnState

	clip, err := rec.Record(ctx, c.Source)
	if err != nil {
		logger.Warn("capture failed", zap.Error(err))
		return res, fmt.Errorf("capture: %w", err)
	}
	if clip.Empty() {
		logger.Warn("capture produced no audio")
		return res, capture.ErrEmptyCapture
	}
	res.Clip = clip

	if c.Archive != nil {
		key := archive.Key(c.ArchivePrefix, email, res.CycleID, clip)
		where, err := c.Archive.Put(ctx, key, clip)
		if err != nil {
			logger.Warn("failed to archive clip", zap.String("key", key), zap.Error(err))
		} else {
			res.ArchivedAt = where
			logger.Info("clip archived", zap.String("location", where))
		}
	}

	c.transition(capture.StateSubmitting)
	logger.Info("submitting enrollment",
		zap.String(logging.KeyEmail, email),
		zap.Int(logging.KeyBytes, clip.Size()),
		zap.String(logging.KeyMIMEType, clip.MIMEType))

	reply, err := c.Submitter.EnrollVoice(ctx, email, clip)
	if err != nil {
		logger.Error("enrollment submission failed", zap.Error(err))
		c.notify(err.Error())
		return res, err
	}
	res.Reply = reply

	c.notify(reply.Body)
	c.transition(capture.StateDone)
	logger.Info("enrollment cycle done", zap.Int("status", reply.Status))
	return res, nil
}

func (c *Cycle) transition(s capture.State) {
	if c.OnState != nil {
		c.OnState(s)
	}
}

func (c *Cycle) notify(text string) {
	if c.Notifier != nil {
		c.Notifier.Notify(text)
	}
}
