package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// subscriberBufferSize bounds each subscriber's delivery channel. A subscriber
// that stops reading loses events once the buffer fills; the publisher never
// blocks on it.
const subscriberBufferSize = 64

type subscriber struct {
	ch      chan ProgressEvent
	videoID int64
	all     bool
}

// Bus fans ProgressEvents out to live subscribers, keyed by video id, with a
// separate channel for subscribers that want every video. Delivery is
// best-effort and in-memory only; nothing survives a restart.
type Bus struct {
	mu      sync.RWMutex
	byVideo map[int64]map[*subscriber]struct{}
	global  map[*subscriber]struct{}
	logger  zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		byVideo: make(map[int64]map[*subscriber]struct{}),
		global:  make(map[*subscriber]struct{}),
		logger:  logger,
	}
}

// Publish delivers the event to every subscriber registered for its video id
// and to every global subscriber. It never blocks and never fails: a
// subscriber with a full buffer is skipped.
func (b *Bus) Publish(event ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.byVideo[event.VideoID] {
		select {
		case sub.ch <- event:
		default:
			// Buffer full, skip this subscriber
		}
	}

	for sub := range b.global {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener for a single video id. The returned cancel
// function unregisters the listener and closes its channel; it is safe to
// call more than once.
func (b *Bus) Subscribe(videoID int64) (<-chan ProgressEvent, func()) {
	sub := &subscriber{
		ch:      make(chan ProgressEvent, subscriberBufferSize),
		videoID: videoID,
	}

	b.mu.Lock()
	if b.byVideo[videoID] == nil {
		b.byVideo[videoID] = make(map[*subscriber]struct{})
	}
	b.byVideo[videoID][sub] = struct{}{}
	count := len(b.byVideo[videoID])
	b.mu.Unlock()

	b.logger.Debug().
		Int64("video_id", videoID).
		Int("subscriber_count", count).
		Msg("Progress subscriber registered")

	return sub.ch, func() { b.unsubscribe(sub) }
}

// SubscribeAll registers a listener for events across all video ids.
func (b *Bus) SubscribeAll() (<-chan ProgressEvent, func()) {
	sub := &subscriber{
		ch:  make(chan ProgressEvent, subscriberBufferSize),
		all: true,
	}

	b.mu.Lock()
	b.global[sub] = struct{}{}
	b.mu.Unlock()

	return sub.ch, func() { b.unsubscribe(sub) }
}

func (b *Bus) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.all {
		if _, ok := b.global[sub]; !ok {
			return
		}
		delete(b.global, sub)
	} else {
		subs, ok := b.byVideo[sub.videoID]
		if !ok {
			return
		}
		if _, ok := subs[sub]; !ok {
			return
		}
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.byVideo, sub.videoID)
		}
	}
	close(sub.ch)
}
