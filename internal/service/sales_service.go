package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fileshare/internal/models"
	"fileshare/internal/observability"
	"fileshare/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// SalesQuery carries the raw query string values of a sales request.
type SalesQuery struct {
	Product   string
	MinAmount string
	MaxAmount string
	StartDate string
	EndDate   string
	Location  string
	UserName  string
	Page      string
}

// SalesPage is one page of filtered sales records.
type SalesPage struct {
	Records []models.SalesRecord
	Total   int
	Page    int
}

type SalesService struct {
	repo  repository.SalesRepository
	delay time.Duration
}

// NewSalesService returns a service that waits delay before answering each query.
func NewSalesService(repo repository.SalesRepository, delay time.Duration) *SalesService {
	return &SalesService{repo: repo, delay: delay}
}

// Query parses q, waits the configured delay and returns the requested page.
func (s *SalesService) Query(ctx context.Context, q SalesQuery) (*SalesPage, error) {
	span, ctx := observability.NewSpan(ctx, "SalesService.Query")
	defer span.End()

	filter, err := ParseSalesFilter(q)
	if err != nil {
		observability.SalesQueries.WithLabelValues("invalid").Inc()
		span.SetError(err)
		return nil, err
	}
	page := parsePage(q.Page)
	span.AddAttributes(attribute.Int("sales.page", page))

	if !sleepContext(ctx, s.delay) {
		observability.SalesQueries.WithLabelValues("cancelled").Inc()
		return nil, ctx.Err()
	}

	records, total, err := s.repo.Query(ctx, filter, page)
	if err != nil {
		observability.SalesQueries.WithLabelValues("error").Inc()
		span.SetError(err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}

	observability.SalesQueries.WithLabelValues("ok").Inc()
	span.AddAttributes(attribute.Int("sales.total", total))
	return &SalesPage{Records: records, Total: total, Page: page}, nil
}

// ParseSalesFilter converts raw query values into a filter. Blank values are ignored.
func ParseSalesFilter(q SalesQuery) (repository.SalesFilter, error) {
	filter := repository.SalesFilter{
		Product:  strings.TrimSpace(q.Product),
		Location: strings.TrimSpace(q.Location),
		UserName: strings.TrimSpace(q.UserName),
	}

	var err error
	if filter.MinAmount, err = parseAmount("minAmount", q.MinAmount); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseAmount("maxAmount", q.MaxAmount); err != nil {
		return filter, err
	}
	if filter.StartDate, err = parseSalesDate("startDate", q.StartDate); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseSalesDate("endDate", q.EndDate); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseAmount(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, models.NewValidationError(fmt.Sprintf("%s must be a number", field))
	}
	return &v, nil
}

func parseSalesDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{models.SalesDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, models.NewValidationError(fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field))
}

// parsePage treats missing, malformed and non-positive pages as the first page.
func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
