// internal/database/seeds.go
package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agent-commerce/internal/models"
)

// ProductWriter is the write side of a catalog store.
type ProductWriter interface {
	Upsert(ctx context.Context, product *models.Product) error
}

func product(id, name, description, asin, amazonPrice, ourPrice, category, image string) models.Product {
	return models.Product{
		ID:          id,
		Name:        name,
		Description: description,
		AmazonASIN:  asin,
		AmazonPrice: decimal.RequireFromString(amazonPrice),
		OurPrice:    decimal.RequireFromString(ourPrice),
		Category:    category,
		InStock:     true,
		ImageURL:    image,
	}
}

// CatalogSeed returns the curated launch catalog. Margins are derived on write.
func CatalogSeed() []models.Product {
	return []models.Product{
		product("bose-qc45", "Bose QuietComfort 45 Headphones", "Wireless noise-cancelling over-ear headphones",
			"B098FKXT8L", "329.00", "339.00", "audio", "https://m.media-amazon.com/images/I/51Kp6ZXDG8L._AC_SL1500_.jpg"),
		product("airpods-pro-2", "Apple AirPods Pro 2", "Active Noise Cancellation, USB-C charging",
			"B0D1XD1ZV3", "249.00", "257.00", "audio", "https://m.media-amazon.com/images/I/61SUj2aKoEL._AC_SL1500_.jpg"),
		product("sony-wh1000xm5", "Sony WH-1000XM5", "Industry-leading noise cancellation",
			"B09XS7JWHH", "398.00", "410.00", "audio", "https://m.media-amazon.com/images/I/61vJtKbAssL._AC_SL1500_.jpg"),
		product("logitech-mx-master-3s", "Logitech MX Master 3S", "Wireless performance mouse",
			"B09HM94VDS", "99.99", "103.00", "peripherals", "https://m.media-amazon.com/images/I/61ni3t1ryQL._AC_SL1500_.jpg"),
		product("keychron-q1-pro", "Keychron Q1 Pro", "Wireless mechanical keyboard",
			"B0BW1ZBDX9", "199.00", "205.00", "peripherals", "https://m.media-amazon.com/images/I/71jG6JZ0TrL._AC_SL1500_.jpg"),
		product("kindle-paperwhite", "Kindle Paperwhite 16GB", "6.8\" display, adjustable warm light",
			"B09TMN58KL", "149.99", "155.00", "electronics", "https://m.media-amazon.com/images/I/61z6VKBi1rL._AC_SL1000_.jpg"),
		product("anker-powerbank", "Anker 737 Power Bank", "24,000mAh, 140W output",
			"B09VPHVT2Z", "109.99", "113.00", "electronics", "https://m.media-amazon.com/images/I/61kT7VPlTwL._AC_SL1500_.jpg"),
		product("samsung-t7-1tb", "Samsung T7 SSD 1TB", "Portable, 1050MB/s transfer",
			"B0874XN4D8", "109.99", "113.00", "storage", "https://m.media-amazon.com/images/I/91JY+4s4AGL._AC_SL1500_.jpg"),
		product("elgato-stream-deck", "Elgato Stream Deck MK.2", "15 LCD keys, customizable",
			"B09738CV2G", "149.99", "155.00", "peripherals", "https://m.media-amazon.com/images/I/71dzPMi3yQL._AC_SL1500_.jpg"),
		product("rode-podmic", "Rode PodMic USB", "Broadcast-quality dynamic mic",
			"B0BKY6FKLY", "199.00", "205.00", "audio", "https://m.media-amazon.com/images/I/71kFqLTOKaL._AC_SL1500_.jpg"),
	}
}

// SeedCatalog upserts the launch catalog into w.
func SeedCatalog(ctx context.Context, w ProductWriter) error {
	products := CatalogSeed()
	for i := range products {
		if err := w.Upsert(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].ID, err)
		}
	}

	logrus.WithField("count", len(products)).Info("Catalog seeded")
	return nil
}
