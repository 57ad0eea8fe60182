// Package account serves the customer account view from the remote
// backend: server-side order history and the server cart mirror. The
// local store stays authoritative for the storefront; nothing here
// touches it beyond reading the cached token. Routes are registered
// behind the JWT middleware wired in main.
package account

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/api"
	"github.com/moolgranth/storefront/internal/store"
)

type Handler struct {
	store  *store.Store
	client *api.Client
	log    *zap.Logger
}

func NewHandler(s *store.Store, client *api.Client, log *zap.Logger) *Handler {
	return &Handler{store: s, client: client, log: log}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/account/orders", h.getOrders)
	app.Get("/api/account/cart", h.getCartMirror)
	app.Delete("/api/account/cart/:productId", h.removeFromCartMirror)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	phone := claimString(c, "phone", "mobile")
	if phone == "" {
		phone = h.sessionField("phone")
	}
	if phone == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	orders, err := h.client.Orders(c.Context(), phone, rawToken(c))
	if err != nil {
		return h.remoteError(c, "orders", err)
	}
	return c.JSON(orders)
}

func (h *Handler) getCartMirror(c *fiber.Ctx) error {
	userID := claimString(c, "id", "_id", "userId")
	if userID == "" {
		userID = h.sessionField("_id")
	}
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	cart, err := h.client.CartMirror(c.Context(), userID, rawToken(c))
	if err != nil {
		return h.remoteError(c, "cart mirror", err)
	}
	return c.JSON(cart)
}

func (h *Handler) removeFromCartMirror(c *fiber.Ctx) error {
	res, err := h.client.RemoveCartMirror(c.Context(), c.Params("productId"), rawToken(c))
	if err != nil {
		return h.remoteError(c, "cart mirror remove", err)
	}
	return c.JSON(res)
}

func (h *Handler) remoteError(c *fiber.Ctx, what string, err error) error {
	var re *api.RemoteError
	if errors.As(err, &re) && re.Status == fiber.StatusUnauthorized {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "session expired, log in again"})
	}
	h.log.Warn("account view degraded", zap.String("source", what), zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": what + " unavailable"})
}

// sessionField reads a string field from the locally stored user record,
// the fallback when the token claims are sparse.
func (h *Handler) sessionField(key string) string {
	sess := h.store.Session()
	if !sess.LoggedIn() {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(sess.User, &m); err != nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// claimString pulls the first matching string claim from the verified
// token, falling back to the locally stored session user.
func claimString(c *fiber.Ctx, keys ...string) string {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func rawToken(c *fiber.Ctx) string {
	if tok, ok := c.Locals("user").(*jwt.Token); ok {
		return tok.Raw
	}
	return ""
}
