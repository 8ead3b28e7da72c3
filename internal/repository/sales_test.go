package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fileshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureSales() []models.SalesRecord {
	products := []string{"Premium Headphones", "Wireless Keyboard", "Smart Watch"}
	locations := []string{"New York", "Chicago"}
	users := []string{"Alex Johnson", "Sam Smith"}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]models.SalesRecord, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, models.SalesRecord{
			ID:       uint(i + 1),
			Product:  products[i%len(products)],
			Amount:   float64(50 + i*40),
			Date:     base.AddDate(0, 0, i).Format(models.SalesDateLayout),
			Location: locations[i%len(locations)],
			UserName: users[i%len(users)],
		})
	}
	return records
}

func ptr[T any](v T) *T { return &v }

func TestSalesRepository_Query(t *testing.T) {
	repo := NewSalesRepository(fixtureSales())
	ctx := context.Background()

	tests := []struct {
		name        string
		filter      SalesFilter
		page        int
		expectedIDs []uint
		total       int
	}{
		{
			name:        "No filters first page",
			page:        1,
			expectedIDs: []uint{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			total:       25,
		},
		{
			name:        "Page below one is first page",
			page:        0,
			expectedIDs: []uint{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			total:       25,
		},
		{
			name:        "Last partial page",
			page:        3,
			expectedIDs: []uint{21, 22, 23, 24, 25},
			total:       25,
		},
		{
			name:        "Out of range page",
			page:        4,
			expectedIDs: []uint{},
			total:       25,
		},
		{
			name:        "Product substring is case insensitive",
			filter:      SalesFilter{Product: "wATCH"},
			page:        1,
			expectedIDs: []uint{3, 6, 9, 12, 15, 18, 21, 24},
			total:       8,
		},
		{
			name:        "Inclusive amount range",
			filter:      SalesFilter{MinAmount: ptr(90.0), MaxAmount: ptr(170.0)},
			page:        1,
			expectedIDs: []uint{2, 3, 4},
			total:       3,
		},
		{
			name: "Inclusive date range",
			filter: SalesFilter{
				StartDate: ptr(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)),
				EndDate:   ptr(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
			},
			page:        1,
			expectedIDs: []uint{3, 4, 5},
			total:       3,
		},
		{
			name:        "Filters are combined",
			filter:      SalesFilter{Location: "chicago", UserName: "sam"},
			page:        1,
			expectedIDs: []uint{2, 4, 6, 8, 10, 12, 14, 16, 18, 20},
			total:       12,
		},
		{
			name:        "Nothing matches",
			filter:      SalesFilter{Product: "Toaster"},
			page:        1,
			expectedIDs: []uint{},
			total:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := repo.Query(ctx, tt.filter, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			ids := make([]uint, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
			assert.LessOrEqual(t, len(records), models.SalesPageSize)
		})
	}
}

func TestSalesRepository_SkipsInvalidDates(t *testing.T) {
	records := fixtureSales()[:3]
	records[1].Date = "yesterday"

	repo := NewSalesRepository(records)
	assert.Equal(t, 2, repo.Len())
}

func TestSalesRepository_DoesNotAliasInput(t *testing.T) {
	records := fixtureSales()
	repo := NewSalesRepository(records)
	records[0].Product = "Changed"

	got, _, err := repo.Query(context.Background(), SalesFilter{}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Premium Headphones", got[0].Product, fmt.Sprintf("%+v", got[0]))
}
