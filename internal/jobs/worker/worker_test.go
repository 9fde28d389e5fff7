package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type recordingSink struct {
	mu      sync.Mutex
	got     []lessons.Activity
	failFor lessons.ActivityType
	panicOn lessons.ActivityType
	block   chan struct{}
}

func (s *recordingSink) Append(ctx context.Context, a lessons.Activity) error {
	if s.block != nil {
		<-s.block
	}
	if a.Type == s.panicOn {
		panic("boom")
	}
	if a.Type == s.failFor {
		return errors.New("write failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, a)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type counter struct {
	mu      sync.Mutex
	dropped int
	failed  int
}

func (c *counter) IncActivityDropped(string) { c.mu.Lock(); c.dropped++; c.mu.Unlock() }
func (c *counter) IncActivityFailed(string)  { c.mu.Lock(); c.failed++; c.mu.Unlock() }

func activity(id string, typ lessons.ActivityType) lessons.Activity {
	return lessons.Activity{ActivityID: id, UserID: "u1", Type: typ, LessonID: "l1", Minutes: 2, At: time.Now().UTC()}
}

func TestActivityWorker_DrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	w := NewActivityWorker(logger.NewNop(), sink, nil, Options{Concurrency: 2, QueueSize: 8})
	w.Start(context.Background())

	for i := 0; i < 5; i++ {
		if err := w.Enqueue(activity(string(rune('a'+i)), lessons.ActivityStudy)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := sink.count(); got != 5 {
		t.Fatalf("written: want=5 got=%d", got)
	}
	if err := w.Enqueue(activity("late", lessons.ActivityStudy)); !errors.Is(err, ErrClosed) {
		t.Fatalf("enqueue after close: want ErrClosed got %v", err)
	}
}

func TestActivityWorker_DropsWhenFull(t *testing.T) {
	c := &counter{}
	w := NewActivityWorker(logger.NewNop(), &recordingSink{}, c, Options{QueueSize: 1})

	// not started: the queue fills and stays full
	if err := w.Enqueue(activity("a", lessons.ActivityNotes)); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := w.Enqueue(activity("b", lessons.ActivityNotes)); err == nil {
		t.Fatalf("expected drop on full queue")
	}
	if c.dropped != 1 {
		t.Fatalf("dropped: want=1 got=%d", c.dropped)
	}
}

func TestActivityWorker_FailuresAndPanicsAreContained(t *testing.T) {
	sink := &recordingSink{failFor: lessons.ActivityChat, panicOn: lessons.ActivityNotes}
	c := &counter{}
	w := NewActivityWorker(logger.NewNop(), sink, c, Options{Concurrency: 1, QueueSize: 4})
	w.Start(context.Background())

	_ = w.Enqueue(activity("1", lessons.ActivityChat))
	_ = w.Enqueue(activity("2", lessons.ActivityNotes))
	_ = w.Enqueue(activity("3", lessons.ActivityStudy))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("written: want=1 got=%d", sink.count())
	}
	if c.failed != 2 {
		t.Fatalf("failed: want=2 got=%d", c.failed)
	}
}

func TestActivityWorker_CloseHonoursContext(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	w := NewActivityWorker(logger.NewNop(), sink, nil, Options{Concurrency: 1, QueueSize: 2})
	w.Start(context.Background())
	_ = w.Enqueue(activity("1", lessons.ActivityStudy))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close: want deadline exceeded got %v", err)
	}
	close(sink.block)
}
