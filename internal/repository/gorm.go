// internal/repository/gorm.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/agent-commerce/internal/database"
	"github.com/javajoker/agent-commerce/internal/models"
)

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Upsert(ctx context.Context, product *models.Product) error {
	// Margin is recomputed by the BeforeSave hook.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(product).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (r *GormProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (r *GormProductRepository) List(ctx context.Context, inStockOnly bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if inStockOnly {
		query = query.Where("in_stock = ?", true)
	}

	var products []models.Product
	if err := query.Order("category ASC, name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(order)
	if result.Error != nil {
		return fmt.Errorf("failed to create order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (r *GormOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (r *GormOrderRepository) Count(ctx context.Context, filter OrderFilter) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return total, nil
}

func (r *GormOrderRepository) Transition(ctx context.Context, id string, from []models.OrderStatus, mutate func(*models.Order) error) (*models.Order, error) {
	var updated models.Order

	err := database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		var current models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !statusIn(current.Status, from) {
			return &StatusConflictError{OrderID: id, Current: current.Status}
		}

		next := current
		if err := mutate(&next); err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()

		result := compareAndSet(tx, id, current.Status, &next)
		if result.Error != nil {
			return fmt.Errorf("failed to update order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &StatusConflictError{OrderID: id, Current: current.Status}
		}

		updated = current
		updated.ApplyMutable(&next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// compareAndSet writes the mutable columns of next only while the stored
// status is still expected. The status guard keeps the update a
// compare-and-set even without the row lock.
func compareAndSet(tx *gorm.DB, id string, expected models.OrderStatus, next *models.Order) *gorm.DB {
	return tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Select(models.MutableColumns).
		Updates(next)
}
