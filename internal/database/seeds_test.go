package database

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/agent-commerce/internal/models"
)

type recordingWriter struct {
	products []models.Product
}

func (w *recordingWriter) Upsert(_ context.Context, p *models.Product) error {
	if err := p.Normalize(); err != nil {
		return err
	}
	w.products = append(w.products, *p)
	return nil
}

func TestSeedCatalogMargins(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, SeedCatalog(context.Background(), w))
	require.Len(t, w.products, 10)

	tolerance := decimal.RequireFromString("0.01")
	hundred := decimal.NewFromInt(100)
	seen := map[string]bool{}
	for _, p := range w.products {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true

		want := p.OurPrice.Sub(p.AmazonPrice).Div(p.AmazonPrice).Mul(hundred)
		assert.True(t, p.MarginPercent.Sub(want).Abs().LessThanOrEqual(tolerance),
			"%s: margin %s, want %s", p.ID, p.MarginPercent, want)
	}
}

func TestSeedCatalogKnownMargin(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, SeedCatalog(context.Background(), w))

	for _, p := range w.products {
		if p.ID == "bose-qc45" {
			assert.Equal(t, "3.04", p.MarginPercent.StringFixed(2))
			return
		}
	}
	t.Fatal("bose-qc45 not seeded")
}
