// Package session handles login, registration and logout. Customer
// credentials are verified by the remote auth service; the admin login is
// a local secret-key check, as the dashboard has no backend account.
package session

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/api"
	"github.com/moolgranth/storefront/internal/store"
)

type Handler struct {
	store       *store.Store
	auth        *api.Client
	adminSecret string
	log         *zap.Logger
}

func NewHandler(s *store.Store, auth *api.Client, adminSecret string, log *zap.Logger) *Handler {
	return &Handler{store: s, auth: auth, adminSecret: adminSecret, log: log}
}

func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/session", h.current)
	app.Post("/api/session/login", h.login)
	app.Post("/api/session/register", h.register)
	app.Post("/api/session/logout", h.logout)
}

type loginRequest struct {
	Mobile    string `json:"mobile"`
	Password  string `json:"password"`
	SecretKey string `json:"secretKey"`
	Admin     bool   `json:"admin"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (h *Handler) current(c *fiber.Ctx) error {
	sess := h.store.Session()
	return c.JSON(fiber.Map{
		"user":     sess.User,
		"role":     sess.Role,
		"loggedIn": sess.LoggedIn(),
	})
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	if payload.Admin || payload.SecretKey != "" {
		return h.adminLogin(c, payload.SecretKey)
	}

	if !isTenDigitMobile(payload.Mobile) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Enter valid 10-digit mobile number"})
	}
	if payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Enter password"})
	}

	res, err := h.auth.Login(c.Context(), payload.Mobile, payload.Password)
	if err != nil {
		// auth failures are always surfaced, never silently degraded
		var re *api.RemoteError
		if errors.As(err, &re) && re.Status == fiber.StatusUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid mobile or password"})
		}
		h.log.Error("auth service unreachable", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "Login service unavailable, try again"})
	}

	user := mergeToken(res.User, res.Token)
	if err := h.store.Login(store.RoleCustomer, user); err != nil {
		h.log.Error("persisting session failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not save session"})
	}
	if err := h.store.SetAuthToken(res.Token); err != nil {
		h.log.Warn("caching auth token failed", zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"user":     user,
		"token":    res.Token,
		"role":     store.RoleCustomer,
		"redirect": "/",
	})
}

func (h *Handler) adminLogin(c *fiber.Ctx, secretKey string) error {
	if secretKey != h.adminSecret {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid admin secret key"})
	}

	adminUser := json.RawMessage(`{"name":"Super Admin","phone":"9999999999","token":"ADMIN"}`)
	if err := h.store.Login(store.RoleAdmin, adminUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not save session"})
	}
	if err := h.store.SetAuthToken("ADMIN"); err != nil {
		h.log.Warn("caching admin token failed", zap.Error(err))
	}
	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"user":     adminUser,
		"role":     store.RoleAdmin,
		"redirect": "/admin",
	})
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(registerRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Enter your name"})
	}
	if !isTenDigitMobile(payload.Mobile) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Enter valid 10-digit mobile number"})
	}
	if payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Enter password"})
	}

	res, err := h.auth.Register(c.Context(), payload.Name, payload.Mobile, payload.Password)
	if err != nil {
		var re *api.RemoteError
		if errors.As(err, &re) && re.Status == fiber.StatusConflict {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Mobile number already registered"})
		}
		h.log.Error("registration failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "Registration service unavailable, try again"})
	}

	user := mergeToken(res.User, res.Token)
	if err := h.store.Login(store.RoleCustomer, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not save session"})
	}
	if err := h.store.SetAuthToken(res.Token); err != nil {
		h.log.Warn("caching auth token failed", zap.Error(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Registration successful",
		"user":     user,
		"token":    res.Token,
		"role":     store.RoleCustomer,
		"redirect": "/",
	})
}

func (h *Handler) logout(c *fiber.Ctx) error {
	if err := h.store.Logout(); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not clear session"})
	}
	return c.JSON(fiber.Map{"redirect": "/"})
}

func isTenDigitMobile(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// mergeToken embeds the issued token inside the stored user record, the
// shape the account view expects.
func mergeToken(user json.RawMessage, token string) json.RawMessage {
	var m map[string]any
	if err := json.Unmarshal(user, &m); err != nil || m == nil {
		m = map[string]any{}
	}
	m["token"] = token
	out, err := json.Marshal(m)
	if err != nil {
		return user
	}
	return out
}
