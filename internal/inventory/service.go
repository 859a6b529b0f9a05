package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-pharma-stock/internal/events"
	"github.com/ariefcatur/go-pharma-stock/internal/redisx"
	"github.com/ariefcatur/go-pharma-stock/internal/settings"
	"github.com/ariefcatur/go-pharma-stock/internal/validation"
)

type Publisher interface {
	PublishEvent(env events.Envelope) error
}

type Service struct {
	Store           Store
	Cache           *redisx.Cache
	Publisher       Publisher // publish stock alerts; nil disables
	Settings        settings.Store
	DefaultCurrency string
	ServiceName     string
	Now             func() time.Time
}

// Today is the current UTC calendar date at midnight.
func (s *Service) Today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	y, m, d := now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	items, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	out := make([]View, 0, len(items))
	for _, it := range items {
		out = append(out, NewView(it, today))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	it, err := s.Store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return NewView(it, s.Today()), nil
}

// Create stores it under a freshly generated id.
func (s *Service) Create(ctx context.Context, it Item, traceID string) (View, []Alert, error) {
	it.ID = NewID()
	return s.save(ctx, it, traceID)
}

// Replace swaps the whole item stored under id; the id is kept.
func (s *Service) Replace(ctx context.Context, id string, it Item, traceID string) (View, []Alert, error) {
	if _, err := s.Store.Get(ctx, id); err != nil {
		return View{}, nil, err
	}
	it.ID = id
	return s.save(ctx, it, traceID)
}

// ImportRow is one spreadsheet line bound for Import. Problems holds the
// cells that could not be parsed; the matching Item fields are left zero.
type ImportRow struct {
	Line     int
	Item     Item
	Problems validation.Violations
}

// Import creates every row's item as new, in one batch. Nothing is stored
// unless every row parsed and validated; a row's violations are reported
// under "row N" with N its Line.
func (s *Service) Import(ctx context.Context, rows []ImportRow, traceID string) ([]View, error) {
	v := validation.Violations{}
	items := make([]Item, 0, len(rows))
	for i, row := range rows {
		it := row.Item
		it.ID = NewID()
		if it.UnitPrice.Currency == "" {
			it.UnitPrice.Currency = s.DefaultCurrency
		}

		problems := validation.Violations{}
		var verr *validation.Error
		if err := it.Validate(); errors.As(err, &verr) {
			for field, code := range verr.Fields {
				problems[field] = code
			}
		}
		// a cell that failed to parse explains more than its zero value does
		for field, code := range row.Problems {
			problems[field] = code
		}
		if !problems.Empty() {
			line := row.Line
			if line == 0 {
				line = i + 1
			}
			v[fmt.Sprintf("row %d", line)] = problems.String()
		}
		items = append(items, it)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []View{}, nil
	}

	if err := s.Store.SaveAll(ctx, items); err != nil {
		return nil, fmt.Errorf("import %d items: %w", len(items), err)
	}
	s.invalidate(ctx)

	today := s.Today()
	out := make([]View, 0, len(items))
	for _, it := range items {
		s.publishAlerts(it, s.evaluate(ctx, it, today), traceID)
		out = append(out, NewView(it, today))
	}
	return out, nil
}

func (s *Service) save(ctx context.Context, it Item, traceID string) (View, []Alert, error) {
	if it.UnitPrice.Currency == "" {
		it.UnitPrice.Currency = s.DefaultCurrency
	}
	if err := it.Validate(); err != nil {
		return View{}, nil, err
	}
	if err := s.Store.Save(ctx, it); err != nil {
		return View{}, nil, fmt.Errorf("save item %s: %w", it.ID, err)
	}
	s.invalidate(ctx)

	today := s.Today()
	alerts := s.evaluate(ctx, it, today)
	s.publishAlerts(it, alerts, traceID)
	return NewView(it, today), alerts, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Summary serves from cache for the current day when available.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	today := s.Today()
	key := fmt.Sprintf(redisx.KeyInventorySummary, today.Format(time.DateOnly))

	var cached Summary
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	items, err := s.Store.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum, err := Summarize(items, today)
	if err != nil {
		return Summary{}, err
	}
	if sum.TotalValue.Currency == "" {
		sum.TotalValue.Currency = s.DefaultCurrency
	}
	if err := s.Cache.SetJSON(ctx, key, sum, redisx.TTLSummaryCache); err != nil {
		log.Printf("cache summary: %v", err)
	}
	return sum, nil
}

func (s *Service) ExpiryAlerts(ctx context.Context, within int) ([]ExpiryAlert, error) {
	items, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	return ExpiryAlerts(items, s.Today(), within), nil
}

func (s *Service) Breakdown(ctx context.Context) (Breakdown, error) {
	items, err := s.Store.List(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	return StockBreakdown(items), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.Cache.DelPattern(ctx, fmt.Sprintf(redisx.KeyInventorySummary, "*")); err != nil {
		log.Printf("invalidate summary cache: %v", err)
	}
}

func (s *Service) evaluate(ctx context.Context, it Item, today time.Time) []Alert {
	cfg := settings.Defaults()
	if s.Settings != nil {
		loaded, err := s.Settings.Get(ctx)
		if err != nil {
			log.Printf("load settings, using defaults: %v", err)
		} else {
			cfg = loaded
		}
	}
	return EvaluateAlerts(it, today, cfg)
}

// publishAlerts is best effort: the item is already stored.
func (s *Service) publishAlerts(it Item, alerts []Alert, traceID string) {
	if s.Publisher == nil {
		return
	}
	for _, a := range alerts {
		env, err := events.New(events.EventStockAlertRaised, s.ServiceName, it.ID, traceID, events.StockAlertPayload{
			ItemID:       it.ID,
			MedicineName: it.MedicineName,
			BatchID:      it.BatchID,
			Kind:         string(a.Kind),
			Quantity:     a.Quantity,
			DaysLeft:     a.DaysLeft,
		})
		if err == nil {
			err = s.Publisher.PublishEvent(env)
		}
		if err != nil {
			log.Printf("publish stock alert %s for %s: %v", a.Kind, it.ID, err)
		}
	}
}
