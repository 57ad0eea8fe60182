// Package checkout validates the checkout form, prices the order and
// hands it to the store as one transaction.
package checkout

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/metrics"
	"github.com/moolgranth/storefront/internal/store"
)

// Orders above this subtotal ship free; everything else pays a flat fee.
const (
	freeShippingAbove = 499
	shippingFlatFee   = 40
)

func shippingFee(subtotal int64) int64 {
	if subtotal > freeShippingAbove {
		return 0
	}
	return shippingFlatFee
}

type Handler struct {
	store   *store.Store
	metrics *metrics.Registry
	log     *zap.Logger
}

func NewHandler(s *store.Store, m *metrics.Registry, log *zap.Logger) *Handler {
	return &Handler{store: s, metrics: m, log: log}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/checkout/summary", h.summary)
	app.Post("/api/checkout", h.placeOrder)
}

type shippingForm struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Phone    string `json:"phone"`
}

type cardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type paymentForm struct {
	Method string      `json:"method"`
	UpiID  string      `json:"upiId"`
	Card   cardDetails `json:"card"`
}

type checkoutRequest struct {
	Shipping shippingForm    `json:"shipping"`
	Payment  paymentForm     `json:"payment"`
	Customer json.RawMessage `json:"customer"`
}

func (r *checkoutRequest) validate() string {
	if r.Shipping.FullName == "" || r.Shipping.Address == "" || r.Shipping.City == "" || r.Shipping.Pincode == "" {
		return "shipping address is incomplete"
	}
	switch r.Payment.Method {
	case "upi":
		if r.Payment.UpiID == "" {
			return "enter a UPI id"
		}
	case "card":
		if r.Payment.Card.Number == "" || r.Payment.Card.Expiry == "" || r.Payment.Card.CVV == "" {
			return "enter valid card details"
		}
	case "cod":
	default:
		return "unsupported payment method"
	}
	return ""
}

// redactedDetails never lets a full card number into the order record.
func (r *checkoutRequest) redactedDetails() string {
	switch r.Payment.Method {
	case "card":
		n := r.Payment.Card.Number
		if len(n) > 4 {
			n = n[len(n)-4:]
		}
		return "**** " + n
	case "upi":
		return r.Payment.UpiID
	default:
		return "COD"
	}
}

func (h *Handler) summary(c *fiber.Ctx) error {
	items := h.store.Items()
	subtotal := store.Subtotal(items)
	fee := shippingFee(subtotal)
	return c.JSON(fiber.Map{
		"items":    items,
		"subtotal": subtotal,
		"shipping": fee,
		"total":    subtotal + fee,
	})
}

func (h *Handler) placeOrder(c *fiber.Ctx) error {
	payload := new(checkoutRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if msg := payload.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
	}

	items := h.store.Items()
	if len(items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "cart is empty"})
	}
	subtotal := store.Subtotal(items)
	total := subtotal + shippingFee(subtotal)

	shipping, _ := json.Marshal(payload.Shipping)
	payment, _ := json.Marshal(fiber.Map{
		"method":  payload.Payment.Method,
		"details": payload.redactedDetails(),
	})

	ord, err := h.store.PlaceOrder(store.OrderData{
		Items:    items,
		Total:    store.PriceFromInt(total),
		Shipping: shipping,
		Payment:  payment,
		Customer: payload.Customer,
	})
	if err != nil {
		if errors.Is(err, store.ErrPersistence) {
			h.metrics.PersistFailures.Inc()
			h.log.Error("order not placed, persistence failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "order could not be saved, your cart is unchanged"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	h.metrics.OrdersPlaced.Inc()
	h.log.Info("order placed",
		zap.String("order_id", ord.ID),
		zap.Int64("total", ord.Total.Amount()),
		zap.Int("items", len(ord.Items)),
	)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":    ord,
		"redirect": "/success",
	})
}
