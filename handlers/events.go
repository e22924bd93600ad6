package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"yt-chat/events"
	"yt-chat/models"
	"yt-chat/services/video"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const ssePingInterval = 15 * time.Second

type EventsHandler struct {
	service video.Service
	bus     *events.Bus
}

func NewEventsHandler(service video.Service, bus *events.Bus) *EventsHandler {
	return &EventsHandler{service: service, bus: bus}
}

// Stream bridges the progress bus to a Server-Sent Events connection. The
// client first receives a snapshot built from the stored record, then live
// events until a terminal stage or disconnect.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	// Resolve the record before upgrading, so unknown IDs still get a
	// regular JSON error response.
	v, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	snapshot := snapshotEvent(v)
	sub, cancel := h.bus.Subscribe(id)
	ctx := c.Context()

	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if err := writeEvent(w, snapshot); err != nil {
			return
		}
		if snapshot.Stage.Terminal() {
			return
		}

		ping := time.NewTicker(ssePingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					return
				}
				if ev.Stage.Terminal() {
					return
				}
			case <-ping.C:
				if err := writePing(w); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

// snapshotEvent maps a stored record to the stage a late subscriber should
// see first.
func snapshotEvent(v *models.Video) events.ProgressEvent {
	ev := events.NewProgressEvent(v.ID, events.StagePending)
	switch {
	case v.IsCompleted():
		ev.Stage = events.StageComplete
	case v.IsFailed():
		ev.Stage = events.StageError
		ev.Error = v.Error
	case v.IsProcessing():
		ev.Stage = events.StageDownloading
	}
	return ev
}

func writeEvent(w *bufio.Writer, ev events.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal progress event")
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}

func writePing(w *bufio.Writer) error {
	if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
