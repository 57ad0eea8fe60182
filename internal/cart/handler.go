// Package cart exposes the store's cart operations to the view layer.
package cart

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/metrics"
	"github.com/moolgranth/storefront/internal/store"
)

// Mirror pushes cart adds to the server-side cart the account view reads.
// Best effort only: the local store stays authoritative.
type Mirror interface {
	AddCartMirror(ctx context.Context, productID string, quantity int, token string) error
}

type Handler struct {
	store   *store.Store
	metrics *metrics.Registry
	mirror  Mirror // may be nil
	log     *zap.Logger
}

func NewHandler(s *store.Store, m *metrics.Registry, mirror Mirror, log *zap.Logger) *Handler {
	return &Handler{store: s, metrics: m, mirror: mirror, log: log}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/cart", h.getCart)
	app.Post("/api/cart/items", h.addItem)
	app.Patch("/api/cart/items/:id", h.updateQuantity)
	app.Delete("/api/cart/items/:id", h.removeItem)
	app.Post("/api/cart/toggle", h.toggle)
}

type addItemRequest struct {
	Product  store.Product `json:"product"`
	Quantity int           `json:"quantity"`
	OpenCart *bool         `json:"openCart"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	qty := payload.Quantity
	if qty == 0 {
		qty = 1
	}
	openCart := true
	if payload.OpenCart != nil {
		openCart = *payload.OpenCart
	}

	if err := h.store.AddToCart(payload.Product, qty, openCart); err != nil {
		return h.storeError(c, err)
	}
	h.metrics.CartMutations.Inc()
	h.mirrorAdd(c.Context(), payload.Product.ID, qty)
	return c.Status(fiber.StatusOK).JSON(h.cartResponse())
}

// mirrorAdd forwards the add to the server-side cart for logged-in
// customers. Failures are logged and otherwise ignored.
func (h *Handler) mirrorAdd(ctx context.Context, id store.ProductID, qty int) {
	if h.mirror == nil {
		return
	}
	sess := h.store.Session()
	if sess.Role != store.RoleCustomer {
		return
	}
	if err := h.mirror.AddCartMirror(ctx, string(id), qty, h.store.AuthToken()); err != nil {
		h.log.Debug("cart mirror add failed", zap.Error(err))
	}
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) updateQuantity(c *fiber.Ctx) error {
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Delta == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "delta must be non-zero"})
	}

	if err := h.store.UpdateQuantity(store.ProductID(c.Params("id")), payload.Delta); err != nil {
		return h.storeError(c, err)
	}
	h.metrics.CartMutations.Inc()
	return c.JSON(h.cartResponse())
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	if err := h.store.RemoveFromCart(store.ProductID(c.Params("id"))); err != nil {
		return h.storeError(c, err)
	}
	h.metrics.CartMutations.Inc()
	return c.JSON(h.cartResponse())
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	return c.JSON(h.cartResponse())
}

func (h *Handler) toggle(c *fiber.Ctx) error {
	open := h.store.ToggleCart()
	return c.JSON(fiber.Map{"isCartOpen": open})
}

func (h *Handler) cartResponse() fiber.Map {
	items := h.store.Items()
	return fiber.Map{
		"items":      items,
		"subtotal":   store.Subtotal(items),
		"isCartOpen": h.store.CartOpen(),
	}
}

// storeError maps the store's error taxonomy to HTTP. Persistence
// failures fail loudly so the view layer can tell the user nothing was
// saved.
func (h *Handler) storeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrInvalidArgument) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errors.Is(err, store.ErrPersistence) {
		h.metrics.PersistFailures.Inc()
		h.log.Error("cart persistence failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not save cart, nothing was changed"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}
