package trending

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Service orchestrates the fetch-or-cache flow for trending topics.
type Service struct {
	store       Store
	provider    Provider
	usage       UsageRecorder
	ttl         time.Duration
	timeout     time.Duration
	passthrough bool
}

// NewService creates a trending Service. When passthrough is true the store
// is bypassed entirely and every request fans out to the sources.
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

// Topics returns the ranked trending snapshot for a topic. A fresh snapshot
// with at least minCachedTopics records is served from the store; otherwise
// the sources are fanned out, merged, and the stored snapshot replaced.
func (s *Service) Topics(ctx context.Context, topic string) (List, error) {
	if s.passthrough {
		recs, err := s.refill(ctx, topic)
		if err != nil {
			return List{}, err
		}
		return listFromRecords(recs, false), nil
	}

	cached, err := s.store.FreshTrending(ctx, topic, Platform, time.Now().Add(-s.ttl), maxCachedTopics)
	if err != nil {
		return List{}, fmt.Errorf("trending cache lookup for %q: %w", topic, err)
	}
	if len(cached) >= minCachedTopics {
		s.usage.Record(ctx, "trending", ProviderName, true)
		return listFromRecords(cached, true), nil
	}

	recs, err := s.refill(ctx, topic)
	if err != nil {
		return List{}, err
	}

	saved, err := s.store.ReplaceTrending(ctx, topic, Platform, recs)
	if err != nil {
		return List{}, fmt.Errorf("replacing trending snapshot for %q: %w", topic, err)
	}

	s.usage.Record(ctx, "trending", ProviderName, false)
	return listFromRecords(saved, false), nil
}

// refill fans out to the community sources and merges whatever they
// produced. No posts at all means every source failed.
func (s *Service) refill(ctx context.Context, topic string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	posts, err := s.provider.HotPosts(ctx, topic)
	if err != nil {
		log.Printf("trending: fan-out failed for %q: %v", topic, err)
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNoUpstreamData
	}

	return Merge(topic, posts, time.Now()), nil
}

func listFromRecords(recs []Record, cached bool) List {
	topics := make([]Topic, 0, len(recs))
	for _, rec := range recs {
		topics = append(topics, topicFromRecord(rec))
	}
	return List{Topics: topics, Cached: cached}
}
