package handlers

import (
	"yt-chat/chat"
	"yt-chat/errors"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	service *chat.Service
}

func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

type chatRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return &errors.AppError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid request body",
		}
	}

	answer, err := h.service.Ask(c.Context(), id, req.Question)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"videoId": id,
			"answer":  answer,
		},
	})
}
