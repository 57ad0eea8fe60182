package catalog

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/api"
)

// Handler proxies the remote product catalog for the view layer.
type Handler struct {
	cache *Cache
	log   *zap.Logger
}

func NewHandler(cache *Cache, log *zap.Logger) *Handler {
	return &Handler{cache: cache, log: log}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/products", h.listProducts)
	app.Get("/api/products/:id", h.getProduct)
	app.Get("/api/products/:id/related", h.relatedProducts)
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	list, err := h.cache.Refresh(c.Context())
	if err != nil {
		// a previously fetched list still serves the shop page
		if cached := h.cache.Cached(); len(cached) > 0 {
			h.log.Warn("serving cached products, refresh failed", zap.Error(err))
			return c.JSON(cached)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "product catalog unavailable"})
	}
	return c.JSON(list)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	record, err := h.cache.source.Product(c.Context(), c.Params("id"))
	if err != nil {
		// a missing product is the backend answering, not the backend failing
		var re *api.RemoteError
		if errors.As(err, &re) && re.Status == fiber.StatusNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "product unavailable"})
	}
	return c.JSON(record)
}

// productProbe reads just enough of an opaque catalog record to relate
// products by category.
type productProbe struct {
	ID       json.RawMessage `json:"id"`
	MongoID  json.RawMessage `json:"_id"`
	Category string          `json:"category"`
}

// relatedProducts returns up to four products from the same category.
// This is a non-critical read: failures degrade to an empty list.
func (h *Handler) relatedProducts(c *fiber.Ctx) error {
	id := c.Params("id")

	record, err := h.cache.source.Product(c.Context(), id)
	if err != nil {
		return c.JSON([]json.RawMessage{})
	}
	var self productProbe
	if err := json.Unmarshal(record, &self); err != nil || self.Category == "" {
		return c.JSON([]json.RawMessage{})
	}

	list, err := h.cache.Refresh(c.Context())
	if err != nil {
		h.log.Debug("related products lookup degraded", zap.Error(err))
		list = h.cache.Cached()
	}

	related := make([]json.RawMessage, 0, 4)
	for _, raw := range list {
		var p productProbe
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		if p.Category != self.Category || probeID(p) == id {
			continue
		}
		related = append(related, raw)
		if len(related) == 4 {
			break
		}
	}
	return c.JSON(related)
}

func probeID(p productProbe) string {
	for _, raw := range []json.RawMessage{p.ID, p.MongoID} {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return string(raw)
	}
	return ""
}
