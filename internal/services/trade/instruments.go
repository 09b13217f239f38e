package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/bobmcallan/tracket/internal/services/validation"
)

// CreateInstrument registers a new instrument. Names are unique, including
// against soft-deleted instruments.
func (s *Service) CreateInstrument(ctx context.Context, req interfaces.InstrumentRequest) (*models.Instrument, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.InvalidArgument("name", "is required")
	}
	inst := &models.Instrument{Name: name, DisplayTicker: strings.TrimSpace(req.DisplayTicker)}
	if err := applyInstrumentFields(inst, req, true); err != nil {
		return nil, err
	}

	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		existing, err := repos.Instruments().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load instrument %s: %w", name, err)
		}
		if existing != nil {
			return &models.Violation{Key: models.KeyInstrumentAlreadyExists, Instrument: name}
		}
		if err := repos.Instruments().Save(ctx, inst); err != nil {
			return fmt.Errorf("failed to save instrument %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("correlation_id", common.CorrelationIDFromContext(ctx)).
		Str("instrument", name).
		Str("currency", inst.Currency).
		Msg("Instrument created")
	return inst, nil
}

// applyInstrumentFields copies validated fields from req. With required set
// every field must be present; otherwise empty fields are left unchanged.
func applyInstrumentFields(inst *models.Instrument, req interfaces.InstrumentRequest, required bool) error {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency != "" || required {
		if currency == "" || len(currency) > models.MaxCurrencyLength {
			return models.InvalidArgument("currency", "must be 1 to %d characters", models.MaxCurrencyLength)
		}
		inst.Currency = currency
	}

	class := models.AssetClass(strings.ToUpper(strings.TrimSpace(string(req.AssetClass))))
	if class != "" || required {
		if !models.ValidAssetClass(class) {
			return models.InvalidArgument("asset_class", "unknown asset class %q", req.AssetClass)
		}
		inst.AssetClass = class
	}

	if ticker := strings.TrimSpace(req.DisplayTicker); ticker != "" {
		inst.DisplayTicker = ticker
	}
	return nil
}

// UpdateInstrument changes currency, asset class or display ticker.
func (s *Service) UpdateInstrument(ctx context.Context, name string, req interfaces.InstrumentRequest) (*models.Instrument, error) {
	var inst *models.Instrument
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		existing, err := repos.Instruments().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load instrument %s: %w", name, err)
		}
		if err := validation.First(
			validation.StockMustExist(existing, name),
			validation.StockNotDeleted(existing),
		); err != nil {
			return err
		}
		if err := applyInstrumentFields(existing, req, false); err != nil {
			return err
		}
		if err := repos.Instruments().Save(ctx, existing); err != nil {
			return fmt.Errorf("failed to save instrument %s: %w", name, err)
		}
		inst = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// DeleteInstrument soft-deletes an instrument. Positions stop including it.
func (s *Service) DeleteInstrument(ctx context.Context, name string) error {
	return s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		existing, err := repos.Instruments().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load instrument %s: %w", name, err)
		}
		if err := validation.First(validation.StockMustExist(existing, name)); err != nil {
			return err
		}
		if existing.Deleted {
			return nil
		}
		if err := repos.Instruments().SoftDelete(ctx, name); err != nil {
			return fmt.Errorf("failed to delete instrument %s: %w", name, err)
		}
		s.logger.Info().
			Str("correlation_id", common.CorrelationIDFromContext(ctx)).
			Str("instrument", name).
			Msg("Instrument deleted")
		return nil
	})
}

// GetInstrument returns an instrument, deleted or not.
func (s *Service) GetInstrument(ctx context.Context, name string) (*models.Instrument, error) {
	var inst *models.Instrument
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		existing, err := repos.Instruments().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load instrument %s: %w", name, err)
		}
		inst = existing
		return validation.First(validation.StockMustExist(existing, name))
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// ListInstruments returns instruments that are not deleted.
func (s *Service) ListInstruments(ctx context.Context) ([]*models.Instrument, error) {
	var list []*models.Instrument
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		l, err := repos.Instruments().List(ctx, interfaces.ScopeActive)
		if err != nil {
			return fmt.Errorf("failed to list instruments: %w", err)
		}
		list = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// RecordPrice stores one price observation for an existing instrument.
func (s *Service) RecordPrice(ctx context.Context, name string, req interfaces.PriceRequest) (*models.PricePoint, error) {
	price, err := money.Parse(req.Price)
	if err != nil {
		return nil, models.InvalidArgument("price", "%v", err)
	}
	if price.IsNegative() {
		return nil, models.InvalidArgument("price", "must not be negative")
	}

	observed := s.now()
	if strings.TrimSpace(req.ObservedAt) != "" {
		observed, err = time.Parse(time.RFC3339, req.ObservedAt)
		if err != nil {
			return nil, models.InvalidArgument("observed_at", "must be RFC 3339: %v", err)
		}
		observed = observed.UTC()
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "manual"
	}

	point := &models.PricePoint{Instrument: name, Price: price, ObservedAt: observed, Source: source}
	err = s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		inst, err := repos.Instruments().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load instrument %s: %w", name, err)
		}
		if err := validation.First(validation.StockMustExist(inst, name)); err != nil {
			return err
		}
		if err := repos.Prices().RecordPrice(ctx, point); err != nil {
			return fmt.Errorf("failed to record price for %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.priceCache != nil {
		s.priceCache.Invalidate(name)
	}

	s.logger.Debug().Str("instrument", name).Str("price", price.String()).Str("source", source).Msg("Price recorded")
	return point, nil
}
