// internal/repository/memory.go
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/javajoker/agent-commerce/internal/models"
)

// MemoryProductRepository keeps the catalog in process memory. It is owned by
// whoever constructs it and is empty again after a restart.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[string]models.Product)}
}

func (r *MemoryProductRepository) Upsert(_ context.Context, product *models.Product) error {
	if err := product.Normalize(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.products[product.ID]; ok {
		product.CreatedAt = existing.CreatedAt
	} else if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Get(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) List(_ context.Context, inStockOnly bool) ([]models.Product, error) {
	r.mu.RLock()
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if inStockOnly && !p.InStock {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// MemoryOrderRepository is a process-scoped order ledger, cleared on restart.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*models.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return ErrAlreadyExists
	}

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	stored := *order
	r.orders[order.ID] = &stored
	return nil
}

func (r *MemoryOrderRepository) Get(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *o
	return &out, nil
}

func (r *MemoryOrderRepository) List(_ context.Context, filter OrderFilter) ([]models.Order, error) {
	r.mu.Lock()
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *o)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.Order{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryOrderRepository) Count(_ context.Context, filter OrderFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, o := range r.orders {
		if filter.Status == nil || o.Status == *filter.Status {
			n++
		}
	}
	return n, nil
}

func (r *MemoryOrderRepository) Transition(_ context.Context, id string, from []models.OrderStatus, mutate func(*models.Order) error) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !statusIn(stored.Status, from) {
		return nil, &StatusConflictError{OrderID: id, Current: stored.Status}
	}

	next := *stored
	if err := mutate(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()

	stored.ApplyMutable(&next)
	out := *stored
	return &out, nil
}
