package services

import (
	"context"
	"log"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	"github.com/sheetlens/sheetlens/internal/infrastructure/transport"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

// FetchService runs the transport cascade: an ordered list of retrieval
// strategies sharing one contract, executed strictly sequentially until the
// first one yields a structurally valid, non-empty table. Google's sharing
// and endpoint availability vary across configurations, so each strategy
// swallows its own failure and the next one gets a turn.
type FetchService struct {
	client *transport.Client
}

// NewFetchService creates a new FetchService
func NewFetchService(client *transport.Client) *FetchService {
	return &FetchService{client: client}
}

type fetchStrategy struct {
	name    string
	attempt func(ctx context.Context, ref *models.SheetReference) (*models.Table, error)
}

func (s *FetchService) strategies() []fetchStrategy {
	return []fetchStrategy{
		{name: "gviz", attempt: s.attemptGviz},
		{name: "gviz-callback", attempt: s.attemptGvizCallback},
		{name: "csv", attempt: s.attemptCSV},
		{name: "mirror", attempt: s.attemptMirror},
	}
}

// FetchTable retrieves and normalizes the referenced sheet. It fails with
// UnavailableError only after every strategy has been attempted.
func (s *FetchService) FetchTable(ctx context.Context, ref *models.SheetReference) (*models.Table, error) {
	for _, strat := range s.strategies() {
		table, err := strat.attempt(ctx, ref)
		if err != nil {
			log.Printf("fetch strategy %s failed for sheet %s: %v", strat.name, ref.SheetID, err)
			continue
		}
		if table.Empty() {
			log.Printf("fetch strategy %s returned no columns for sheet %s", strat.name, ref.SheetID)
			continue
		}
		return table, nil
	}
	return nil, apperrors.NewUnavailableError(ref.SheetID)
}

func (s *FetchService) attemptGviz(ctx context.Context, ref *models.SheetReference) (*models.Table, error) {
	body, err := s.client.FetchGviz(ctx, ref)
	if err != nil {
		return nil, err
	}
	payload, err := ExtractWrappedJSON(body)
	if err != nil {
		return nil, err
	}
	return NormalizeGviz(payload)
}

func (s *FetchService) attemptGvizCallback(ctx context.Context, ref *models.SheetReference) (*models.Table, error) {
	payload, err := s.client.FetchGvizCallback(ctx, ref)
	if err != nil {
		return nil, err
	}
	wrapped, err := ExtractWrappedJSON(payload)
	if err != nil {
		return nil, err
	}
	return NormalizeGviz(wrapped)
}

func (s *FetchService) attemptCSV(ctx context.Context, ref *models.SheetReference) (*models.Table, error) {
	data, err := s.client.FetchCSV(ctx, ref)
	if err != nil {
		return nil, err
	}
	return NormalizeCSV(data)
}

// attemptMirror is only viable when a tab name (not just a gid) is known;
// the mirror is keyed by sheet ID plus tab name
func (s *FetchService) attemptMirror(ctx context.Context, ref *models.SheetReference) (*models.Table, error) {
	if ref.SheetName == "" {
		return nil, apperrors.NewMalformedResponseError("mirror", "strategy requires a tab name")
	}
	data, err := s.client.FetchMirror(ctx, ref)
	if err != nil {
		return nil, err
	}
	return NormalizeRecords(data)
}
