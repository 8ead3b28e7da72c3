package seed

import (
	"slices"
	"testing"
	"time"

	"fileshare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSales(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	records := GenerateSales(gofakeit.New(42), now)

	require.Len(t, records, SalesRecordCount)

	oldest := now.Add(-SalesWindow).Truncate(24 * time.Hour)
	seen := make(map[uint]struct{}, len(records))
	for i, r := range records {
		assert.Equal(t, uint(i+1), r.ID)
		_, dup := seen[r.ID]
		assert.False(t, dup)
		seen[r.ID] = struct{}{}

		assert.Contains(t, SalesProducts(), r.Product)
		assert.Contains(t, SalesLocations(), r.Location)
		assert.Contains(t, SalesUserNames(), r.UserName)

		assert.GreaterOrEqual(t, r.Amount, 50.0)
		assert.LessOrEqual(t, r.Amount, 1050.0)
		assert.InDelta(t, r.Amount, roundCents(r.Amount), 1e-9)

		d, err := time.Parse(models.SalesDateLayout, r.Date)
		require.NoError(t, err)
		assert.False(t, d.After(now), "date %s in the future", r.Date)
		assert.False(t, d.Before(oldest), "date %s older than window", r.Date)
	}
}

func TestGenerateSales_SeedIsReproducible(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	a := GenerateSales(gofakeit.New(7), now)
	b := GenerateSales(gofakeit.New(7), now)
	assert.Equal(t, a, b)
}

func TestVocabularyAccessorsReturnCopies(t *testing.T) {
	products := SalesProducts()
	products[0] = "Changed"
	assert.False(t, slices.Contains(SalesProducts(), "Changed"))
	assert.Len(t, SalesLocations(), 10)
	assert.Len(t, SalesUserNames(), 10)
}
