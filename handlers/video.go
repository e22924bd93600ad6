package handlers

import (
	"strconv"

	"yt-chat/errors"
	"yt-chat/models"
	"yt-chat/services/video"

	"github.com/gofiber/fiber/v2"
)

type VideoHandler struct {
	service video.Service
}

func NewVideoHandler(service video.Service) *VideoHandler {
	return &VideoHandler{service: service}
}

type submitRequest struct {
	URL string `json:"url"`
}

func (h *VideoHandler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		// Fall back to form submissions from the web UI.
		req.URL = c.FormValue("url")
	}
	if req.URL == "" {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "URL is required",
		}
	}

	v, err := h.service.Submit(c.Context(), req.URL)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data":    models.NewVideoResponse(v),
	})
}

func (h *VideoHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	v, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success": true,
		"data":    models.NewVideoResponse(v),
	}

	if v.IsCompleted() {
		transcript, err := h.service.GetTranscript(c.Context(), id)
		if err != nil {
			return err
		}
		resp["transcript"] = transcript
	}

	return c.JSON(resp)
}

func (h *VideoHandler) Retry(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	v, err := h.service.Retry(c.Context(), id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data":    models.NewVideoResponse(v),
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid video ID",
		}
	}
	return id, nil
}
