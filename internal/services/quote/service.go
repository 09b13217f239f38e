// Package quote provides a cached latest-price lookup in front of a price store
package quote

import (
	"context"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/patrickmn/go-cache"
)

// StalenessThreshold is the age beyond which a latest price is logged as
// stale. Stale prices are still used.
var StalenessThreshold = 7 * 24 * time.Hour

// Service implements PriceOracle over another oracle, caching found points
// for the configured TTL. Misses are never cached so a newly recorded price
// is visible on the next lookup.
type Service struct {
	source interfaces.PriceOracle
	cache  *cache.Cache // nil when caching is disabled
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new quote service. A ttl of zero disables caching.
func NewService(source interfaces.PriceOracle, ttl time.Duration, logger *common.Logger) *Service {
	s := &Service{
		source: source,
		logger: logger,
		now:    time.Now,
	}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// LatestPrice returns the most recent price point, or nil when none exists.
func (s *Service) LatestPrice(ctx context.Context, instrument string) (*models.PricePoint, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(instrument); ok {
			p := v.(models.PricePoint)
			return &p, nil
		}
	}

	point, err := s.source.LatestPrice(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, nil
	}

	if s.isStale(point.ObservedAt) {
		s.logger.Warn().
			Str("instrument", instrument).
			Str("observed_at", point.ObservedAt.Format(time.RFC3339)).
			Msg("Latest price is stale")
	}

	if s.cache != nil {
		s.cache.Set(instrument, *point, cache.DefaultExpiration)
	}
	return point, nil
}

// Invalidate drops the cached price of an instrument.
func (s *Service) Invalidate(instrument string) {
	if s.cache != nil {
		s.cache.Delete(instrument)
	}
}

// isStale returns true when the observation is older than StalenessThreshold.
func (s *Service) isStale(ts time.Time) bool {
	if ts.IsZero() {
		return true
	}
	return s.now().Sub(ts) > StalenessThreshold
}

// Ensure Service implements PriceOracle and PriceCache
var (
	_ interfaces.PriceOracle = (*Service)(nil)
	_ interfaces.PriceCache  = (*Service)(nil)
)
