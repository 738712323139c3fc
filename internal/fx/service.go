package fx

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexbill/lexbill/internal/shared"
)

// DefaultLookbackDays bounds how far the fallback scans cached days.
const DefaultLookbackDays = 30

// Service resolves exchange rates with per-day caching and a stale-rate
// fallback when the feed is unreachable.
type Service struct {
	source   Source
	cache    Cache
	base     Currency
	lookback int
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a rate service. base is the domestic currency the feed
// quotes against.
func NewService(source Source, cache Cache, base Currency, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		cache:    cache,
		base:     base,
		lookback: DefaultLookbackDays,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock, used by tests to pin the cache day.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetRate returns the multiplier such that amountInFrom × rate = amountInTo.
// Same-currency conversion is identically 1 and touches neither cache nor
// network. When conversion is impossible after the fallback it returns a
// RateUnavailableError, never a sentinel value.
func (s *Service) GetRate(ctx context.Context, from, to Currency) (float64, error) {
	if from == to {
		return 1, nil
	}
	fromBase, err := s.baseUnitsPer(ctx, from)
	if err != nil {
		return 0, err
	}
	toBase, err := s.baseUnitsPer(ctx, to)
	if err != nil {
		return 0, err
	}
	return fromBase / toBase, nil
}

// Convert applies GetRate to an amount.
func (s *Service) Convert(ctx context.Context, amount float64, from, to Currency) (float64, error) {
	rate, err := s.GetRate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

// WarmToday prefetches and caches today's rates. Used by the daily warmup
// job so interactive requests hit the cache.
func (s *Service) WarmToday(ctx context.Context) error {
	rates, err := s.source.FetchDaily(ctx)
	if err != nil {
		return err
	}
	return s.cache.SetDay(ctx, s.today(), rates)
}

// baseUnitsPer resolves how many base-currency units one unit of cur costs.
func (s *Service) baseUnitsPer(ctx context.Context, cur Currency) (float64, error) {
	if cur == s.base {
		return 1, nil
	}

	today := s.today()
	if rates, ok, err := s.cache.GetDay(ctx, today); err == nil && ok {
		if rate, found := rates[cur]; found {
			return rate, nil
		}
		return s.fallback(ctx, cur, 1)
	} else if err != nil {
		s.logger.Warn("fx cache read failed", slog.String("day", today), slog.Any("error", err))
	}

	rates, err := s.source.FetchDaily(ctx)
	if err != nil {
		s.logger.Warn("fx feed fetch failed, falling back to cached days", slog.Any("error", err))
		return s.fallback(ctx, cur, 1)
	}
	if cerr := s.cache.SetDay(ctx, today, rates); cerr != nil {
		s.logger.Warn("fx cache write failed", slog.String("day", today), slog.Any("error", cerr))
	}
	if rate, found := rates[cur]; found {
		return rate, nil
	}
	return s.fallback(ctx, cur, 1)
}

// fallback scans cached days in reverse chronological order starting
// startOffset days back and uses the most recent rate for the currency.
func (s *Service) fallback(ctx context.Context, cur Currency, startOffset int) (float64, error) {
	now := s.now()
	for i := startOffset; i <= s.lookback; i++ {
		day := now.AddDate(0, 0, -i).Format(DateLayout)
		rates, ok, err := s.cache.GetDay(ctx, day)
		if err != nil || !ok {
			continue
		}
		if rate, found := rates[cur]; found {
			s.logger.Info("fx using stale cached rate",
				slog.String("currency", string(cur)), slog.String("day", day))
			return rate, nil
		}
	}
	return 0, &shared.RateUnavailableError{Currency: string(cur)}
}

func (s *Service) today() string {
	return s.now().Format(DateLayout)
}
