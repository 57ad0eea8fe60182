package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProductID accepts both the numeric ids of the seed catalog and the hex
// string ids issued by the remote catalog service.
type ProductID string

func (id *ProductID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// Product is the minimal record the cart requires from the catalog.
// Records missing an id are rejected as a contract violation.
type Product struct {
	ID       ProductID `json:"id"`
	Name     string    `json:"name"`
	Price    Price     `json:"price"`
	Category string    `json:"category"`
	Image    string    `json:"image"`
}

// CartLineItem is one product in the cart. Display fields are copied from
// the product record at first add and kept as-is on repeat adds.
type CartLineItem struct {
	ID       ProductID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Image    string    `json:"image,omitempty"`
	Price    Price     `json:"price"`
	Quantity int       `json:"quantity"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is append-only once created; only Status may change afterwards.
// Shipping, Payment and Customer are caller-supplied and opaque here.
type Order struct {
	ID       string          `json:"id"`
	Items    []CartLineItem  `json:"items"`
	Total    Price           `json:"total"`
	Shipping json.RawMessage `json:"shipping,omitempty"`
	Payment  json.RawMessage `json:"payment,omitempty"`
	Customer json.RawMessage `json:"customer,omitempty"`
	Status   OrderStatus     `json:"status"`
	Date     time.Time       `json:"date"`
}

// OrderData is the caller-assembled input to PlaceOrder.
type OrderData struct {
	Items    []CartLineItem  `json:"items"`
	Total    Price           `json:"total"`
	Shipping json.RawMessage `json:"shipping,omitempty"`
	Payment  json.RawMessage `json:"payment,omitempty"`
	Customer json.RawMessage `json:"customer,omitempty"`
}

type Role string

const (
	RoleAnonymous Role = ""
	RoleCustomer  Role = "customer"
	RoleAdmin     Role = "admin"
)

// Session is the current identity. Role is never admin or customer
// without a user value; login and logout change both together.
type Session struct {
	User json.RawMessage `json:"user,omitempty"`
	Role Role            `json:"role,omitempty"`
}

func (s Session) LoggedIn() bool { return len(s.User) > 0 }

// Change names the state slice a notification refers to.
type Change string

const (
	ChangeCart    Change = "cart"
	ChangeOrders  Change = "orders"
	ChangeSession Change = "session"
	ChangeUI      Change = "ui"
)
