package pipeline

import (
	"context"
	"testing"
	"time"

	"yt-chat/models"

	"github.com/rs/zerolog"
)

func TestDispatcherRunsJobs(t *testing.T) {
	env := newTestEnv(t)
	env.addPending(1)

	d := NewDispatcher(env.pipeline, 2, 8, time.Minute, zerolog.Nop())
	d.Start()
	defer d.Close()

	if err := d.Dispatch(1); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		video, _ := env.store.Find(context.Background(), 1)
		if video.Status == models.StatusCompleted {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("video never completed, status %s", video.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	env := newTestEnv(t)

	// No workers started, so the queue fills up.
	d := NewDispatcher(env.pipeline, 1, 2, 0, zerolog.Nop())

	if err := d.Dispatch(1); err != nil {
		t.Fatalf("dispatch 1: %v", err)
	}
	if err := d.Dispatch(2); err != nil {
		t.Fatalf("dispatch 2: %v", err)
	}
	if err := d.Dispatch(3); err != ErrQueueFull {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	env := newTestEnv(t)

	d := NewDispatcher(env.pipeline, 1, 2, 0, zerolog.Nop())
	d.Start()
	d.Close()
	d.Close() // second close is a no-op

	if err := d.Dispatch(1); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDispatcherSurvivesFailedRuns(t *testing.T) {
	env := newTestEnv(t)
	// Video 1 does not exist; the run fails but the worker keeps going.
	env.addPending(2)

	d := NewDispatcher(env.pipeline, 1, 8, time.Minute, zerolog.Nop())
	d.Start()
	defer d.Close()

	if err := d.Dispatch(1); err != nil {
		t.Fatalf("dispatch 1: %v", err)
	}
	if err := d.Dispatch(2); err != nil {
		t.Fatalf("dispatch 2: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		video, _ := env.store.Find(context.Background(), 2)
		if video.Status == models.StatusCompleted {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("video 2 never completed, status %s", video.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
