package admin

import "github.com/moolgranth/storefront/internal/store"

// Stats is the dashboard overview: lifetime revenue and order counts per
// status. Revenue goes through the same price parse as every other total.
type Stats struct {
	TotalRevenue int64 `json:"totalRevenue"`
	TotalOrders  int   `json:"totalOrders"`
	Pending      int   `json:"pending"`
	Shipped      int   `json:"shipped"`
	Delivered    int   `json:"delivered"`
	Cancelled    int   `json:"cancelled"`
}

func Compute(orders []store.Order) Stats {
	s := Stats{TotalOrders: len(orders)}
	for _, o := range orders {
		s.TotalRevenue += o.Total.Amount()
		switch o.Status {
		case store.StatusPending:
			s.Pending++
		case store.StatusShipped:
			s.Shipped++
		case store.StatusDelivered:
			s.Delivered++
		case store.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Filter keeps orders with the given status; "All" or empty keeps
// everything. Input order (newest first) is preserved.
func Filter(orders []store.Order, status string) []store.Order {
	if status == "" || status == "All" {
		return orders
	}
	out := make([]store.Order, 0, len(orders))
	for _, o := range orders {
		if string(o.Status) == status {
			out = append(out, o)
		}
	}
	return out
}
