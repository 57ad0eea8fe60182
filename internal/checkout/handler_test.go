package checkout

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/moolgranth/storefront/internal/metrics"
	"github.com/moolgranth/storefront/internal/storage"
	"github.com/moolgranth/storefront/internal/store"
)

func makeApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	st := store.New(storage.NewMemory(), zap.NewNop())
	handler := NewHandler(st, metrics.NewRegistry(), zap.NewNop())
	app := fiber.New()
	handler.RegisterRoutes(app)
	return app, st
}

func seedCart(t *testing.T, st *store.Store, qty int) {
	t.Helper()
	p := store.Product{ID: "1", Name: "Havan Cups", Price: store.PriceFromString("₹250")}
	if err := st.AddToCart(p, qty, false); err != nil {
		t.Fatalf("seeding cart: %v", err)
	}
}

func TestShippingFee(t *testing.T) {
	cases := []struct {
		subtotal int64
		want     int64
	}{
		{0, 40},
		{250, 40},
		{499, 40},
		{500, 0},
		{5000, 0},
	}
	for _, tc := range cases {
		if got := shippingFee(tc.subtotal); got != tc.want {
			t.Fatalf("shippingFee(%d) = %d, want %d", tc.subtotal, got, tc.want)
		}
	}
}

func TestSummary(t *testing.T) {
	app, st := makeApp(t)
	seedCart(t, st, 1) // subtotal 250, below free-shipping threshold

	res, _ := app.Test(httptest.NewRequest("GET", "/api/checkout/summary", nil))
	b, _ := io.ReadAll(res.Body)
	for _, want := range []string{`"subtotal":250`, `"shipping":40`, `"total":290`} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("summary missing %s: %s", want, b)
		}
	}
}

func validBody() string {
	return `{
		"shipping":{"fullName":"Asha","address":"12 MG Road","city":"Pune","state":"MH","pincode":"411001","phone":"9876543210"},
		"payment":{"method":"cod"}
	}`
}

func TestPlaceOrderHappyPath(t *testing.T) {
	app, st := makeApp(t)
	seedCart(t, st, 2) // subtotal 500, free shipping

	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(validBody()))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		b, _ := io.ReadAll(res.Body)
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, b)
	}

	var out struct {
		Order    store.Order `json:"order"`
		Redirect string      `json:"redirect"`
	}
	b, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Redirect != "/success" {
		t.Fatalf("expected redirect to /success, got %q", out.Redirect)
	}
	if out.Order.Status != store.StatusPending {
		t.Fatalf("new order status = %s", out.Order.Status)
	}
	if out.Order.Total.Amount() != 500 {
		t.Fatalf("total = %d, want 500 (free shipping)", out.Order.Total.Amount())
	}
	if len(st.Items()) != 0 {
		t.Fatalf("cart not cleared after checkout")
	}
	if len(st.Orders()) != 1 {
		t.Fatalf("order not recorded locally")
	}
}

func TestPlaceOrderAddsShippingFeeBelowThreshold(t *testing.T) {
	app, st := makeApp(t)
	seedCart(t, st, 1) // subtotal 250

	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(validBody()))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	if got := st.Orders()[0].Total.Amount(); got != 290 {
		t.Fatalf("total = %d, want 290 (250 + 40 shipping)", got)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing shipping", `{"shipping":{"fullName":"Asha"},"payment":{"method":"cod"}}`},
		{"upi without id", `{"shipping":{"fullName":"A","address":"B","city":"C","pincode":"411001"},"payment":{"method":"upi"}}`},
		{"card without cvv", `{"shipping":{"fullName":"A","address":"B","city":"C","pincode":"411001"},"payment":{"method":"card","card":{"number":"4111111111111111","expiry":"12/27"}}}`},
		{"unknown method", `{"shipping":{"fullName":"A","address":"B","city":"C","pincode":"411001"},"payment":{"method":"barter"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, st := makeApp(t)
			seedCart(t, st, 1)

			req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			res, _ := app.Test(req)
			if res.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("expected 400, got %d", res.StatusCode)
			}
			if len(st.Items()) != 1 || len(st.Orders()) != 0 {
				t.Fatalf("blocked submission still mutated state")
			}
		})
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	app, _ := makeApp(t)

	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(validBody()))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", res.StatusCode)
	}
}

func TestCardNumberIsRedacted(t *testing.T) {
	app, st := makeApp(t)
	seedCart(t, st, 1)

	body := `{
		"shipping":{"fullName":"Asha","address":"12 MG Road","city":"Pune","pincode":"411001"},
		"payment":{"method":"card","card":{"number":"4111111111111111","expiry":"12/27","cvv":"123"}}
	}`
	req := httptest.NewRequest("POST", "/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}

	payment := string(st.Orders()[0].Payment)
	if strings.Contains(payment, "4111111111111111") {
		t.Fatalf("full card number stored in order: %s", payment)
	}
	if !strings.Contains(payment, "**** 1111") {
		t.Fatalf("expected redacted card details, got %s", payment)
	}
}
