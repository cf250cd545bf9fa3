package weather

import (
	"context"
	"errors"
	"math"
	"time"
)

// TTL is how long a persisted observation is served before refetching.
const TTL = 10 * time.Minute

// ProviderName identifies the upstream weather source in usage accounting.
const ProviderName = "openweather"

var (
	// ErrNotFound is returned by stores when no record exists for a location.
	ErrNotFound = errors.New("no weather data for location")

	// ErrCityNotFound means the upstream provider does not know the city.
	ErrCityNotFound = errors.New("city not found")
)

// Record is a persisted weather observation for a location.
type Record struct {
	ID        string
	Location  string
	Temp      float64
	Condition string
	Icon      string
	CreatedAt time.Time
}

// Observation is a provider's normalized current-conditions reading.
type Observation struct {
	Location  string
	Temp      float64
	Condition string
	Icon      string
}

// Report is the canonical response for a weather query.
type Report struct {
	Location  string    `json:"location"`
	Temp      int       `json:"temp"`
	Condition string    `json:"condition"`
	Icon      string    `json:"icon"`
	FetchedAt time.Time `json:"fetchedAt"`
	Cached    bool      `json:"cached"`
}

// Provider abstracts the upstream weather source.
type Provider interface {
	Current(ctx context.Context, city string) (Observation, error)
}

// Store is the persistence contract the orchestrator depends on.
type Store interface {
	// LatestWeather returns the most recent record whose location matches
	// city case-insensitively, or ErrNotFound.
	LatestWeather(ctx context.Context, city string) (Record, error)
	SaveWeather(ctx context.Context, rec Record) (Record, error)
}

// UsageRecorder tracks served requests for quota planning.
type UsageRecorder interface {
	Record(ctx context.Context, endpoint, provider string, cached bool)
}

func reportFromRecord(rec Record, cached bool) Report {
	return Report{
		Location:  rec.Location,
		Temp:      int(math.Round(rec.Temp)),
		Condition: rec.Condition,
		Icon:      rec.Icon,
		FetchedAt: rec.CreatedAt.UTC(),
		Cached:    cached,
	}
}
