// Package admin is the order-management surface. Every route requires an
// admin session; anyone else is sent to the login view without seeing
// order data.
package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/metrics"
	"github.com/moolgranth/storefront/internal/store"
)

type Handler struct {
	store   *store.Store
	metrics *metrics.Registry
	log     *zap.Logger
}

func NewHandler(s *store.Store, m *metrics.Registry, log *zap.Logger) *Handler {
	return &Handler{store: s, metrics: m, log: log}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	grp := app.Group("/api/admin", h.requireAdmin)
	grp.Get("/orders", h.listOrders)
	grp.Get("/stats", h.stats)
	grp.Put("/orders/:id/status", h.updateStatus)
}

func (h *Handler) requireAdmin(c *fiber.Ctx) error {
	if h.store.Session().Role != store.RoleAdmin {
		return c.Redirect("/login", fiber.StatusFound)
	}
	return c.Next()
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	orders := Filter(h.store.Orders(), c.Query("status", "All"))
	return c.JSON(orders)
}

func (h *Handler) stats(c *fiber.Ctx) error {
	s := Compute(h.store.Orders())
	h.metrics.Revenue.Set(float64(s.TotalRevenue))
	h.metrics.PendingOrders.Set(float64(s.Pending))
	return c.JSON(s)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	payload := new(statusRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	orderID := c.Params("id")
	if err := h.store.UpdateOrderStatus(orderID, store.OrderStatus(payload.Status)); err != nil {
		if errors.Is(err, store.ErrInvalidArgument) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		h.log.Error("status update failed", zap.String("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not update order"})
	}

	// an unknown id is a store-level no-op; the dashboard still needs to
	// know nothing changed
	for _, o := range h.store.Orders() {
		if o.ID == orderID {
			return c.JSON(fiber.Map{"message": "status updated", "orderId": orderID, "status": payload.Status, "updated": true})
		}
	}
	return c.JSON(fiber.Map{"message": "order not found", "orderId": orderID, "updated": false})
}
