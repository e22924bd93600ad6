package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Common errors
var (
	ErrQueueFull = errors.New("pipeline queue is full")
	ErrClosed    = errors.New("dispatcher is closed")
)

// Dispatcher runs pipeline invocations on a bounded worker pool. Callers
// get an "accepted" answer and nothing else; outcomes surface through the
// store and the progress bus. A panicking run is contained by the pipeline
// and can never take the process down.
type Dispatcher struct {
	pipeline *Pipeline

	jobs        chan int64
	workerCount int
	timeout     time.Duration

	mu     sync.Mutex
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup

	logger zerolog.Logger
}

func NewDispatcher(p *Pipeline, workerCount, queueSize int, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if workerCount <= 0 {
		workerCount = 2
	}
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Dispatcher{
		pipeline:    p,
		jobs:        make(chan int64, queueSize),
		workerCount: workerCount,
		timeout:     timeout,
		quit:        make(chan struct{}),
		logger:      logger,
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Dispatch queues a run for the given video id and returns immediately.
func (d *Dispatcher) Dispatch(videoID int64) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}

	select {
	case d.jobs <- videoID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for in-flight runs to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.quit)
	d.wg.Wait()
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	logger := d.logger.With().Int("worker_id", id).Logger()
	logger.Info().Msg("Starting pipeline worker")

	for {
		select {
		case <-d.quit:
			logger.Info().Msg("Pipeline worker shutting down")
			return
		case videoID := <-d.jobs:
			d.process(logger, videoID)
		}
	}
}

func (d *Dispatcher) process(logger zerolog.Logger, videoID int64) {
	ctx := context.Background()
	cancel := func() {}
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	defer cancel()

	start := time.Now()
	err := d.pipeline.ProcessVideo(ctx, videoID)
	duration := time.Since(start)

	if err != nil {
		logger.Error().
			Err(err).
			Int64("video_id", videoID).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("Pipeline run failed")
		return
	}

	logger.Info().
		Int64("video_id", videoID).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("Pipeline run succeeded")
}
