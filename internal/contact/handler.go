// Package contact forwards the contact form to the backend.
package contact

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/api"
)

type Handler struct {
	client *api.Client
	log    *zap.Logger
}

func NewHandler(client *api.Client, log *zap.Logger) *Handler {
	return &Handler{client: client, log: log}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Post("/api/contact", h.send)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *Handler) send(c *fiber.Ctx) error {
	payload := new(contactRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Name == "" || payload.Message == "" || !strings.Contains(payload.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "name, valid email and message are required"})
	}

	if err := h.client.Contact(c.Context(), payload.Name, payload.Email, payload.Message); err != nil {
		h.log.Warn("contact forward failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "could not send message, try again"})
	}
	return c.JSON(fiber.Map{"message": "Message sent"})
}
