// internal/models/order.go
package models

import (
	"fmt"
	"time"

	"github.com/javajoker/agent-commerce/internal/pricing"
)

type ShippingAddress struct {
	Name    string `json:"name" gorm:"size:255;not null" validate:"required,max=255"`
	Address string `json:"address" gorm:"size:500;not null" validate:"required,max=500"`
	City    string `json:"city" gorm:"size:120;not null" validate:"required,max=120"`
	Country string `json:"country" gorm:"size:64;not null" validate:"required,max=64"`
	Postal  string `json:"postal" gorm:"size:32;not null" validate:"required,max=32"`
}

// Order is owned by the order ledger. ProductID, Quantity, Total and
// Shipping are frozen at creation.
type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;size:64"`
	ProductID      string          `json:"product_id" gorm:"size:64;not null;index"`
	ProductName    string          `json:"product_name" gorm:"size:255;not null"`
	AmazonASIN     string          `json:"amazon_asin" gorm:"column:amazon_asin;size:20"`
	Quantity       int             `json:"quantity" gorm:"not null;default:1"`
	Total          pricing.Money   `json:"total" gorm:"column:total_cents;not null"`
	Currency       string          `json:"currency" gorm:"size:8;not null"`
	Shipping       ShippingAddress `json:"shipping" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod  PaymentMethod   `json:"payment_method" gorm:"type:varchar(32);not null"`
	SettlementRef  *string         `json:"settlement_ref" gorm:"size:128"`
	AgentID        *string         `json:"agent_id" gorm:"size:128"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(32);not null;index"`
	TrackingNumber string          `json:"tracking_number,omitempty" gorm:"size:100"`
	TrackingURL    string          `json:"tracking_url,omitempty" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time       `json:"updated_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}

func (o *Order) IsStablecoin() bool {
	return o.PaymentMethod == PaymentMethodStablecoin
}

func (o *Order) AmazonURL() string {
	return fmt.Sprintf("https://amazon.com/dp/%s", o.AmazonASIN)
}

// MutableColumns lists the columns a post-creation update may write.
var MutableColumns = []string{
	"status", "settlement_ref", "tracking_number", "tracking_url",
	"paid_at", "shipped_at", "updated_at",
}

// ApplyMutable copies the post-creation mutable fields from src.
func (o *Order) ApplyMutable(src *Order) {
	o.Status = src.Status
	o.SettlementRef = src.SettlementRef
	o.TrackingNumber = src.TrackingNumber
	o.TrackingURL = src.TrackingURL
	o.PaidAt = src.PaidAt
	o.ShippedAt = src.ShippedAt
	o.UpdatedAt = src.UpdatedAt
}
