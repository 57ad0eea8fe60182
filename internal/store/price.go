package store

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Price holds a currency amount as received from upstream. The catalog is
// inconsistent: some records carry a bare number, others a display string
// like "₹250". The raw form is kept so records round-trip verbatim;
// Amount is the one place both forms are normalized to rupees.
type Price struct {
	raw json.RawMessage
}

func PriceFromInt(amount int64) Price {
	return Price{raw: json.RawMessage(strconv.FormatInt(amount, 10))}
}

func PriceFromString(s string) Price {
	b, _ := json.Marshal(s)
	return Price{raw: b}
}

func (p *Price) UnmarshalJSON(b []byte) error {
	p.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("0"), nil
	}
	return p.raw, nil
}

// Amount extracts an integer rupee amount. Numeric values are used
// directly; textual values are reduced to their decimal digits, with an
// empty or unparsable result treated as zero.
func (p Price) Amount() int64 {
	s := strings.TrimSpace(string(p.raw))
	if s == "" || s == "null" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (p Price) clone() Price {
	return Price{raw: append(json.RawMessage(nil), p.raw...)}
}

// Subtotal sums unit price times quantity across line items. Every total
// in the system (cart drawer, checkout summary, admin revenue) goes
// through this one parse so the rupee-string convention cannot diverge.
func Subtotal(items []CartLineItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price.Amount() * int64(it.Quantity)
	}
	return sum
}
