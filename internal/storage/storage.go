package storage

import "errors"

var ErrNotFound = errors.New("key not found")

// Keys under which the store persists its state slices. Each slice is an
// independent JSON document so corruption of one never takes down the rest.
const (
	KeyCart        = "cart"
	KeyOrders      = "orders"
	KeySessionUser = "session.user"
	KeySessionRole = "session.role"
	KeyToken       = "token"
)

// Storage is durable, origin-local key-value storage with synchronous
// get/set/remove semantics.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
