package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trip-server/internal/model"
)

func TestTotalsBySlug(t *testing.T) {
	summary := []model.SummaryRow{
		{Name: "Lisbon", Slug: "lisbon", TotalGroupUSD: 1200, AvgPerPersonUSD: 240},
	}

	t.Run("Known slug returns its totals", func(t *testing.T) {
		totals := model.TotalsBySlug(summary, "lisbon")
		assert.Equal(t, 1200.0, totals.TotalGroup)
		assert.Equal(t, 240.0, totals.AvgPerPerson)
	})

	t.Run("Unknown slug returns zero totals", func(t *testing.T) {
		totals := model.TotalsBySlug(summary, "porto")
		assert.Equal(t, model.DestinationTotals{}, totals)
	})
}
