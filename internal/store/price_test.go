package store

import (
	"encoding/json"
	"testing"
)

func TestPriceAmount(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int64
	}{
		{"bare number", `250`, 250},
		{"float number", `250.9`, 250},
		{"rupee string", `"₹250"`, 250},
		{"plain numeric string", `"250"`, 250},
		{"prefixed with text", `"Rs. 1,299"`, 1299},
		{"empty string", `""`, 0},
		{"no digits", `"free"`, 0},
		{"null", `null`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p Price
			if err := json.Unmarshal([]byte(tc.raw), &p); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.raw, err)
			}
			if got := p.Amount(); got != tc.want {
				t.Fatalf("Amount(%s) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestPriceRoundTripsVerbatim(t *testing.T) {
	var it CartLineItem
	src := `{"id":1,"name":"Havan Cups","price":"₹250","quantity":2}`
	if err := json.Unmarshal([]byte(src), &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(it.Price)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"₹250"` {
		t.Fatalf("price did not round-trip verbatim: %s", out)
	}
}

func TestSubtotalParsesBothRepresentations(t *testing.T) {
	textual := []CartLineItem{{ID: "1", Price: PriceFromString("₹250"), Quantity: 2}}
	if got := Subtotal(textual); got != 500 {
		t.Fatalf("subtotal of textual price = %d, want 500", got)
	}
	numeric := []CartLineItem{{ID: "1", Price: PriceFromInt(250), Quantity: 2}}
	if got := Subtotal(numeric); got != 500 {
		t.Fatalf("subtotal of numeric price = %d, want 500", got)
	}

	mixed := []CartLineItem{
		{ID: "1", Price: PriceFromString("₹250"), Quantity: 1},
		{ID: "2", Price: PriceFromInt(40), Quantity: 3},
		{ID: "3", Price: PriceFromString("gift"), Quantity: 5},
	}
	if got := Subtotal(mixed); got != 370 {
		t.Fatalf("subtotal of mixed cart = %d, want 370", got)
	}
}

func TestProductIDAcceptsStringAndNumber(t *testing.T) {
	var a, b Product
	if err := json.Unmarshal([]byte(`{"id":7,"name":"Diya"}`), &a); err != nil {
		t.Fatalf("numeric id: %v", err)
	}
	if a.ID != "7" {
		t.Fatalf("numeric id normalized to %q", a.ID)
	}
	if err := json.Unmarshal([]byte(`{"id":"66af1","name":"Diya"}`), &b); err != nil {
		t.Fatalf("string id: %v", err)
	}
	if b.ID != "66af1" {
		t.Fatalf("string id normalized to %q", b.ID)
	}
}
