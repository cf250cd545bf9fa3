package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Service orchestrates the fetch-or-cache flow for current weather.
type Service struct {
	store       Store
	provider    Provider
	usage       UsageRecorder
	ttl         time.Duration
	timeout     time.Duration
	passthrough bool
}

// NewService creates a weather Service. When passthrough is true the store is
// bypassed entirely and every request goes to the provider.
func NewService(store Store, provider Provider, usage UsageRecorder, timeout time.Duration, passthrough bool) *Service {
	return &Service{
		store:       store,
		provider:    provider,
		usage:       usage,
		ttl:         TTL,
		timeout:     timeout,
		passthrough: passthrough,
	}
}

// Current returns the weather report for a city, serving from the store when a
// fresh record exists and refilling from the provider otherwise.
func (s *Service) Current(ctx context.Context, city string) (Report, error) {
	if s.passthrough {
		obs, err := s.fetch(ctx, city)
		if err != nil {
			return Report{}, err
		}
		return reportFromRecord(Record{
			Location:  obs.Location,
			Temp:      obs.Temp,
			Condition: obs.Condition,
			Icon:      obs.Icon,
			CreatedAt: time.Now().UTC(),
		}, false), nil
	}

	rec, err := s.store.LatestWeather(ctx, city)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Report{}, fmt.Errorf("weather cache lookup for %q: %w", city, err)
	}
	if err == nil && time.Since(rec.CreatedAt) < s.ttl {
		s.usage.Record(ctx, "weather", ProviderName, true)
		return reportFromRecord(rec, true), nil
	}

	obs, err := s.fetch(ctx, city)
	if err != nil {
		return Report{}, err
	}

	saved, err := s.store.SaveWeather(ctx, Record{
		Location:  obs.Location,
		Temp:      obs.Temp,
		Condition: obs.Condition,
		Icon:      obs.Icon,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Report{}, fmt.Errorf("persisting weather for %q: %w", city, err)
	}

	s.usage.Record(ctx, "weather", ProviderName, false)
	return reportFromRecord(saved, false), nil
}

func (s *Service) fetch(ctx context.Context, city string) (Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obs, err := s.provider.Current(ctx, city)
	if err != nil {
		if !errors.Is(err, ErrCityNotFound) {
			log.Printf("weather: provider fetch failed for %q: %v", city, err)
		}
		return Observation{}, err
	}
	return obs, nil
}
