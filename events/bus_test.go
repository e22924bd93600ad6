package events

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testBus() *Bus {
	return NewBus(zerolog.Nop())
}

func recv(t *testing.T, ch <-chan ProgressEvent) ProgressEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ProgressEvent{}
	}
}

func TestPublishDeliversToVideoSubscribers(t *testing.T) {
	bus := testBus()

	ch1, cancel1 := bus.Subscribe(5)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(5)
	defer cancel2()

	bus.Publish(NewProgressEvent(5, StageComplete))

	for _, ch := range []<-chan ProgressEvent{ch1, ch2} {
		ev := recv(t, ch)
		if ev.VideoID != 5 || ev.Stage != StageComplete {
			t.Errorf("got event %+v, want video 5 stage complete", ev)
		}
	}
}

func TestSubscriberIsolation(t *testing.T) {
	bus := testBus()

	chA, cancelA := bus.Subscribe(5)
	defer cancelA()
	chB, cancelB := bus.Subscribe(6)
	defer cancelB()

	bus.Publish(NewProgressEvent(5, StageDownloading))

	recv(t, chA)

	select {
	case ev := <-chB:
		t.Errorf("subscriber for video 6 received event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAllReceivesEveryVideo(t *testing.T) {
	bus := testBus()

	ch, cancel := bus.SubscribeAll()
	defer cancel()

	bus.Publish(NewProgressEvent(1, StageDownloading))
	bus.Publish(NewProgressEvent(2, StageError))

	first := recv(t, ch)
	second := recv(t, ch)

	if first.VideoID != 1 || second.VideoID != 2 {
		t.Errorf("got videos %d, %d, want 1, 2", first.VideoID, second.VideoID)
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	bus := testBus()

	ch, cancel := bus.Subscribe(9)
	defer cancel()

	stages := []Stage{StageDownloading, StageExtracting, StageTranscribing, StageComplete}
	for _, s := range stages {
		bus.Publish(NewProgressEvent(9, s))
	}

	for _, want := range stages {
		if got := recv(t, ch).Stage; got != want {
			t.Errorf("got stage %s, want %s", got, want)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := testBus()

	// Never read from it.
	_, cancel := bus.Subscribe(7)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*4; i++ {
			bus.Publish(NewProgressEvent(7, StageTranscribing))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a subscriber that stopped reading")
	}
}

func TestCancelClosesChannelAndIsIdempotent(t *testing.T) {
	bus := testBus()

	ch, cancel := bus.Subscribe(3)
	cancel()
	cancel() // must not panic

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after cancel")
	}

	// Publishing after cancel must not panic either.
	bus.Publish(NewProgressEvent(3, StageComplete))
}

func TestManyConcurrentSubscribers(t *testing.T) {
	bus := testBus()

	const n = 128
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		ch, cancel := bus.Subscribe(11)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			recv(t, ch)
		}()
	}

	bus.Publish(NewProgressEvent(11, StageComplete))
	wg.Wait()
}

func TestProgressEventJSONShape(t *testing.T) {
	ev := ProgressEvent{
		VideoID:   42,
		Stage:     StageError,
		Error:     "network unreachable",
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := string(data)
	for _, want := range []string{
		`"videoId":42`,
		`"stage":"error"`,
		`"error":"network unreachable"`,
		`"timestamp":"2024-03-01T12:00:00Z"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON %s missing %s", got, want)
		}
	}

	// Optional fields stay off the wire when unset.
	for _, absent := range []string{`"progress"`, `"message"`} {
		if strings.Contains(got, absent) {
			t.Errorf("JSON %s should omit %s", got, absent)
		}
	}
}
