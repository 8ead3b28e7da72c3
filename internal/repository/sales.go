package repository

import (
	"context"
	"strings"
	"time"

	"fileshare/internal/models"
	"fileshare/internal/observability"
)

// SalesFilter narrows a sales query. Zero values disable a criterion.
type SalesFilter struct {
	Product   string
	Location  string
	UserName  string
	MinAmount *float64
	MaxAmount *float64
	StartDate *time.Time
	EndDate   *time.Time
}

// SalesRepository serves read-only queries over the sales dataset.
type SalesRepository interface {
	Query(ctx context.Context, filter SalesFilter, page int) ([]models.SalesRecord, int, error)
	Len() int
}

type salesRow struct {
	record models.SalesRecord
	date   time.Time
}

type memorySalesRepository struct {
	rows   []salesRow
	logger *observability.RepoLogger
}

// NewSalesRepository wraps an immutable dataset. The records are copied.
func NewSalesRepository(records []models.SalesRecord) SalesRepository {
	rows := make([]salesRow, 0, len(records))
	for _, rec := range records {
		d, err := time.Parse(models.SalesDateLayout, rec.Date)
		if err != nil {
			observability.Logger.Warn("skipping sales record with invalid date", "id", rec.ID, "date", rec.Date)
			continue
		}
		rows = append(rows, salesRow{record: rec, date: d})
	}
	return &memorySalesRepository{
		rows:   rows,
		logger: observability.NewRepoLogger("sales"),
	}
}

// Query applies every filter in one pass and returns the requested page plus
// the filtered total. Pages below 1 are treated as 1; pages past the end are empty.
func (r *memorySalesRepository) Query(ctx context.Context, filter SalesFilter, page int) ([]models.SalesRecord, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * models.SalesPageSize
	end := start + models.SalesPageSize

	out := make([]models.SalesRecord, 0, models.SalesPageSize)
	total := 0
	for _, row := range r.rows {
		if !filter.matches(row) {
			continue
		}
		if total >= start && total < end {
			out = append(out, row.record)
		}
		total++
	}

	r.logger.LogRead(ctx, map[string]interface{}{
		"page":     page,
		"total":    total,
		"returned": len(out),
	})
	return out, total, nil
}

func (r *memorySalesRepository) Len() int {
	return len(r.rows)
}

func (f SalesFilter) matches(row salesRow) bool {
	rec := row.record
	if f.Product != "" && !containsFold(rec.Product, f.Product) {
		return false
	}
	if f.Location != "" && !containsFold(rec.Location, f.Location) {
		return false
	}
	if f.UserName != "" && !containsFold(rec.UserName, f.UserName) {
		return false
	}
	if f.MinAmount != nil && rec.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && rec.Amount > *f.MaxAmount {
		return false
	}
	if f.StartDate != nil && row.date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && row.date.After(*f.EndDate) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
