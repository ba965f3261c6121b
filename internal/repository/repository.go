// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/javajoker/agent-commerce/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyExists  = errors.New("record already exists")
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// StatusConflictError is returned by Transition when the stored status is
// not one of the accepted source states.
type StatusConflictError struct {
	OrderID string
	Current models.OrderStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("order %s is %s", e.OrderID, e.Current)
}

func (e *StatusConflictError) Unwrap() error {
	return ErrStatusConflict
}

type ProductRepository interface {
	Upsert(ctx context.Context, product *models.Product) error
	Get(ctx context.Context, id string) (*models.Product, error)
	// List returns products ordered by category, then name.
	List(ctx context.Context, inStockOnly bool) ([]models.Product, error)
}

type OrderFilter struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

// OrderRepository is the order ledger. Create is append-only; Transition is
// the only mutation path and touches models.MutableColumns only.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// Count ignores Limit and Offset.
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	// Transition atomically loads the order, checks that its status is one
	// of from, applies mutate and persists the mutable fields.
	Transition(ctx context.Context, id string, from []models.OrderStatus, mutate func(*models.Order) error) (*models.Order, error)
}

func statusIn(status models.OrderStatus, from []models.OrderStatus) bool {
	for _, s := range from {
		if s == status {
			return true
		}
	}
	return false
}
