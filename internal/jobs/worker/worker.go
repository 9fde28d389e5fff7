package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

// ActivitySink persists one activity entry.
type ActivitySink interface {
	Append(ctx context.Context, a lessons.Activity) error
}

// DropCounter is told about entries that never reach the sink.
type DropCounter interface {
	IncActivityDropped(activityType string)
	IncActivityFailed(activityType string)
}

var ErrClosed = errors.New("activity worker closed")

type Options struct {
	Concurrency  int
	QueueSize    int
	WriteTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 2
	}
	if o.QueueSize < 1 {
		o.QueueSize = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	return o
}

// ActivityWorker writes the activity log off the request path. Entries are
// best-effort: a full queue or failed write is logged and dropped, never
// surfaced to the caller.
type ActivityWorker struct {
	log     *logger.Logger
	sink    ActivitySink
	metrics DropCounter
	opts    Options

	queue chan lessons.Activity

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

func NewActivityWorker(baseLog *logger.Logger, sink ActivitySink, metrics DropCounter, opts Options) *ActivityWorker {
	opts = opts.withDefaults()
	return &ActivityWorker{
		log:     baseLog.With("component", "ActivityWorker"),
		sink:    sink,
		metrics: metrics,
		opts:    opts,
		queue:   make(chan lessons.Activity, opts.QueueSize),
	}
}

func (w *ActivityWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	w.log.Info("Starting activity worker pool", "concurrency", w.opts.Concurrency, "queue", w.opts.QueueSize)
	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.runLoop(ctx, i+1)
	}
}

// Enqueue never blocks.
func (w *ActivityWorker) Enqueue(a lessons.Activity) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.queue <- a:
		return nil
	default:
		w.log.Warn("activity queue full, dropping entry",
			"user_id", a.UserID,
			"activity_type", a.Type,
			"lesson_id", a.LessonID,
		)
		if w.metrics != nil {
			w.metrics.IncActivityDropped(string(a.Type))
		}
		return fmt.Errorf("activity queue full")
	}
}

// Close stops intake and waits for queued entries to drain, or for ctx.
func (w *ActivityWorker) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	started := w.started
	w.mu.Unlock()

	if !started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ActivityWorker) runLoop(ctx context.Context, workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Activity worker loop stopped", "worker_id", workerID)
			return
		case a, ok := <-w.queue:
			if !ok {
				return
			}
			w.write(ctx, workerID, a)
		}
	}
}

func (w *ActivityWorker) write(ctx context.Context, workerID int, a lessons.Activity) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Activity write panic",
				"worker_id", workerID,
				"activity_id", a.ActivityID,
				"panic", r,
			)
			w.fail(a)
		}
	}()
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.WriteTimeout)
	defer cancel()
	if err := w.sink.Append(wctx, a); err != nil {
		w.log.Warn("Activity write failed",
			"worker_id", workerID,
			"user_id", a.UserID,
			"activity_type", a.Type,
			"error", err,
		)
		w.fail(a)
	}
}

func (w *ActivityWorker) fail(a lessons.Activity) {
	if w.metrics != nil {
		w.metrics.IncActivityFailed(string(a.Type))
	}
}
