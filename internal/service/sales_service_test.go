package service

import (
	"context"
	"testing"
	"time"

	"fileshare/internal/models"
	"fileshare/internal/repository"
	"fileshare/internal/seed"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSalesService(delay time.Duration) *SalesService {
	records := seed.GenerateSales(gofakeit.New(11), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	return NewSalesService(repository.NewSalesRepository(records), delay)
}

func TestParseSalesFilter(t *testing.T) {
	tests := []struct {
		name        string
		query       SalesQuery
		expectError bool
		check       func(t *testing.T, f repository.SalesFilter)
	}{
		{
			name:  "Empty query",
			query: SalesQuery{},
			check: func(t *testing.T, f repository.SalesFilter) {
				assert.Equal(t, repository.SalesFilter{}, f)
			},
		},
		{
			name:  "Amounts and dates",
			query: SalesQuery{MinAmount: "10.5", MaxAmount: " 200 ", StartDate: "2026-01-02", EndDate: "2026-02-01T00:00:00Z"},
			check: func(t *testing.T, f repository.SalesFilter) {
				require.NotNil(t, f.MinAmount)
				require.NotNil(t, f.MaxAmount)
				assert.Equal(t, 10.5, *f.MinAmount)
				assert.Equal(t, 200.0, *f.MaxAmount)
				assert.True(t, f.StartDate.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
				assert.True(t, f.EndDate.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
			},
		},
		{
			name:  "Text filters are trimmed",
			query: SalesQuery{Product: " watch ", Location: "york", UserName: "lee"},
			check: func(t *testing.T, f repository.SalesFilter) {
				assert.Equal(t, "watch", f.Product)
				assert.Equal(t, "york", f.Location)
				assert.Equal(t, "lee", f.UserName)
			},
		},
		{name: "Bad min amount", query: SalesQuery{MinAmount: "cheap"}, expectError: true},
		{name: "NaN max amount", query: SalesQuery{MaxAmount: "NaN"}, expectError: true},
		{name: "Bad start date", query: SalesQuery{StartDate: "01/02/2026"}, expectError: true},
		{name: "Bad end date", query: SalesQuery{EndDate: "tomorrow"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseSalesFilter(tt.query)
			if tt.expectError {
				assert.True(t, models.IsValidationError(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, parsePage(""))
	assert.Equal(t, 1, parsePage("0"))
	assert.Equal(t, 1, parsePage("-3"))
	assert.Equal(t, 1, parsePage("two"))
	assert.Equal(t, 4, parsePage("4"))
}

func TestSalesService_Query(t *testing.T) {
	svc := newSalesService(0)
	ctx := context.Background()

	first, err := svc.Query(ctx, SalesQuery{})
	require.NoError(t, err)
	assert.Equal(t, seed.SalesRecordCount, first.Total)
	assert.Len(t, first.Records, models.SalesPageSize)
	assert.Equal(t, 1, first.Page)

	last, err := svc.Query(ctx, SalesQuery{Page: "10"})
	require.NoError(t, err)
	assert.Len(t, last.Records, models.SalesPageSize)
	assert.Equal(t, uint(91), last.Records[0].ID)

	beyond, err := svc.Query(ctx, SalesQuery{Page: "11"})
	require.NoError(t, err)
	assert.Empty(t, beyond.Records)
	assert.Equal(t, seed.SalesRecordCount, beyond.Total)

	filtered, err := svc.Query(ctx, SalesQuery{MinAmount: "500", MaxAmount: "600"})
	require.NoError(t, err)
	for _, r := range filtered.Records {
		assert.GreaterOrEqual(t, r.Amount, 500.0)
		assert.LessOrEqual(t, r.Amount, 600.0)
	}
}

func TestSalesService_InvalidFilter(t *testing.T) {
	svc := newSalesService(time.Hour)

	start := time.Now()
	_, err := svc.Query(context.Background(), SalesQuery{MinAmount: "lots"})
	assert.True(t, models.IsValidationError(err))
	assert.Less(t, time.Since(start), time.Second, "invalid queries are rejected before the delay")
}

func TestSalesService_DelayHonoursCancellation(t *testing.T) {
	svc := newSalesService(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Query(ctx, SalesQuery{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSalesService_Delay(t *testing.T) {
	svc := newSalesService(30 * time.Millisecond)

	start := time.Now()
	_, err := svc.Query(context.Background(), SalesQuery{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
