// Package usage records provider call volume per day for quota planning.
package usage

import (
	"context"
	"log"
	"time"
)

// Counter is one per-day request counter row.
type Counter struct {
	Endpoint string    `json:"endpoint"`
	Provider string    `json:"provider"`
	Date     time.Time `json:"date"`
	Requests int       `json:"requests"`
}

// Store is the persistence the tracker writes through.
type Store interface {
	IncrementUsage(ctx context.Context, endpoint, provider string, date time.Time) error
}

// Tracker upserts request counters keyed by (endpoint, provider, day).
// Cache-served requests are counted under a "-cache" suffixed endpoint so
// real provider call volume stays separable.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Record counts one served request. Tracking is a side channel: failures are
// logged and swallowed, never surfaced to the serving request.
func (t *Tracker) Record(ctx context.Context, endpoint, provider string, cached bool) {
	if cached {
		endpoint += "-cache"
	}

	if err := t.store.IncrementUsage(ctx, endpoint, provider, Day(time.Now())); err != nil {
		log.Printf("usage: failed to track %s/%s: %v", endpoint, provider, err)
	}
}

// Day truncates a time to its UTC calendar date, the counter key's day part.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
