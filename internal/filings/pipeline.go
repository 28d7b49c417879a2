package filings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/secfilter/pkg/models"
)

// Source fetches raw filings for a query.
type Source interface {
	Fetch(ctx context.Context, q FetchQuery) ([]models.Filing, error)
}

// Assembler enriches and filters raw filings.
type Assembler interface {
	Enrich(ctx context.Context, filings []models.Filing, criteria models.FilterCriteria) ([]models.EnrichedFiling, error)
}

// DefaultLimit is the page size used when a request leaves it unset.
const DefaultLimit = 50

// PageRequest asks for one page of enriched filings.
type PageRequest struct {
	FormType string
	Start    time.Time
	End      time.Time
	Criteria models.FilterCriteria
	Page     int // 1-based, default 1
	Limit    int // default DefaultLimit
}

// ExportRequest asks for every enriched filing in the range.
type ExportRequest struct {
	FormType string
	Start    time.Time
	End      time.Time
	Criteria models.FilterCriteria
}

func validateRange(formType string, start, end time.Time) error {
	switch {
	case formType == "":
		return fmt.Errorf("%w: form type is required", ErrInvalidRequest)
	case start.IsZero() || end.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	case end.Before(start):
		return fmt.Errorf("%w: end date before start date", ErrInvalidRequest)
	}
	return nil
}

// Pipeline ties source selection, enrichment, and result shaping together.
type Pipeline struct {
	source       Source
	assembler    Assembler
	defaultLimit int
	logger       *slog.Logger
}

// NewPipeline creates a pipeline. defaultLimit <= 0 uses DefaultLimit.
func NewPipeline(source Source, assembler Assembler, defaultLimit int, logger *slog.Logger) *Pipeline {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:       source,
		assembler:    assembler,
		defaultLimit: defaultLimit,
		logger:       logger.With("component", "pipeline"),
	}
}

// FetchPage fetches a single source page, enriches and deduplicates it, and
// returns page req.Page of the result.
func (p *Pipeline) FetchPage(ctx context.Context, req PageRequest) (models.PaginatedResult, error) {
	if err := validateRange(req.FormType, req.Start, req.End); err != nil {
		return models.PaginatedResult{}, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = p.defaultLimit
	}

	log := p.logger.With("run_id", uuid.NewString(), "op", "fetch_page")
	started := time.Now()

	enriched, err := p.run(ctx, log, FetchQuery{
		FormType: req.FormType,
		Start:    req.Start,
		End:      req.End,
		Page:     req.Page,
	}, req.Criteria)
	if err != nil {
		return models.PaginatedResult{}, err
	}

	result := Paginate(enriched, req.Page, req.Limit)
	log.Info("page assembled",
		"page", req.Page, "limit", req.Limit, "total", result.Pagination.TotalResults,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return result, nil
}

// Export fetches every source page in the range and returns all enriched,
// deduplicated filings.
func (p *Pipeline) Export(ctx context.Context, req ExportRequest) (models.ExportResult, error) {
	if err := validateRange(req.FormType, req.Start, req.End); err != nil {
		return models.ExportResult{}, err
	}

	log := p.logger.With("run_id", uuid.NewString(), "op", "export")
	started := time.Now()

	enriched, err := p.run(ctx, log, FetchQuery{
		FormType: req.FormType,
		Start:    req.Start,
		End:      req.End,
		FetchAll: true,
		Page:     1,
	}, req.Criteria)
	if err != nil {
		return models.ExportResult{}, err
	}

	log.Info("export assembled", "total", len(enriched),
		"elapsed", time.Since(started).Round(time.Millisecond))
	return models.ExportResult{Data: enriched, Total: len(enriched)}, nil
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, q FetchQuery, criteria models.FilterCriteria) ([]models.EnrichedFiling, error) {
	log.Info("fetching filings", "form_type", q.FormType,
		"start", q.Start.Format(time.DateOnly), "end", q.End.Format(time.DateOnly),
		"fetch_all", q.FetchAll, "page", q.Page)

	raw, err := p.source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch filings: %w", err)
	}
	if len(raw) == 0 {
		return []models.EnrichedFiling{}, nil
	}

	enriched, err := p.assembler.Enrich(ctx, raw, criteria)
	if err != nil {
		return nil, fmt.Errorf("enrich filings: %w", err)
	}

	unique := Dedupe(enriched)
	if removed := len(enriched) - len(unique); removed > 0 {
		log.Debug("removed duplicate filings", "duplicates", removed)
	}
	return unique, nil
}
