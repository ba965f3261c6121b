// internal/models/product.go
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/agent-commerce/internal/pricing"
)

var (
	ErrMarketplacePriceNotPositive = errors.New("marketplace price must be greater than zero")
	ErrResaleBelowMarketplace      = errors.New("resale price must not be below marketplace price")
)

type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;size:64"`
	Name          string          `json:"name" gorm:"size:255;not null"`
	Description   string          `json:"description" gorm:"type:text"`
	AmazonASIN    string          `json:"amazon_asin" gorm:"column:amazon_asin;size:20;not null"`
	AmazonPrice   decimal.Decimal `json:"amazon_price" gorm:"column:amazon_price;type:decimal(10,2);not null"`
	OurPrice      decimal.Decimal `json:"our_price" gorm:"column:our_price;type:decimal(10,2);not null"`
	MarginPercent decimal.Decimal `json:"margin_percent" gorm:"type:decimal(6,2);not null"`
	Category      string          `json:"category" gorm:"size:50;index"`
	InStock       bool            `json:"in_stock" gorm:"default:true"`
	ImageURL      string          `json:"image_url" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) UnitPrice() decimal.Decimal {
	return p.OurPrice
}

func (p *Product) AmazonURL() string {
	return fmt.Sprintf("https://amazon.com/dp/%s", p.AmazonASIN)
}

// Normalize validates the two prices and recomputes the stored margin from
// them. A margin supplied by the caller is always overwritten.
func (p *Product) Normalize() error {
	if !p.AmazonPrice.IsPositive() {
		return ErrMarketplacePriceNotPositive
	}
	if p.OurPrice.LessThan(p.AmazonPrice) {
		return ErrResaleBelowMarketplace
	}
	p.MarginPercent = pricing.MarginPercent(p.AmazonPrice, p.OurPrice)
	return nil
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	return p.Normalize()
}
