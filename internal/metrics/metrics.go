package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersPlaced    prometheus.Counter
	CartMutations   prometheus.Counter
	PersistFailures prometheus.Counter
	CartItems       prometheus.Gauge
	Revenue         prometheus.Gauge
	PendingOrders   prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_orders_placed_total"})
	cartMutations := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_cart_mutations_total"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_persist_failures_total"})
	cartItems := prometheus.NewGauge(prometheus.GaugeOpts{Name: "storefront_cart_items"})
	revenue := prometheus.NewGauge(prometheus.GaugeOpts{Name: "storefront_revenue_rupees"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{Name: "storefront_pending_orders"})

	r.MustRegister(ordersPlaced, cartMutations, persistFailures, cartItems, revenue, pending)
	return &Registry{
		reg:             r,
		OrdersPlaced:    ordersPlaced,
		CartMutations:   cartMutations,
		PersistFailures: persistFailures,
		CartItems:       cartItems,
		Revenue:         revenue,
		PendingOrders:   pending,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
