package news

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Service orchestrates the fetch-or-cache flow for news headlines.
type Service struct {
	store       Store
	provider    Provider
	usage       UsageRecorder
	ttl         time.Duration
	timeout     time.Duration
	passthrough bool
}

// NewService creates a news Service. When passthrough is true the store is
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

// TopHeadlines returns up to limit articles for a category. Cached articles
// are served when at least half the requested count is fresh; serving fewer
// items than requested is preferred over an extra provider call.
func (s *Service) TopHeadlines(ctx context.Context, category string, limit int) (Feed, error) {
	storedCategory := UpstreamCategory(category)

	if s.passthrough {
		articles, err := s.fetch(ctx, category, limit)
		if err != nil {
			return Feed{}, err
		}
		items := make([]Item, 0, len(articles))
		for _, a := range articles {
			items = append(items, itemFromRecord(recordFromArticle(a, storedCategory)))
		}
		return Feed{Items: items, Cached: false, Total: len(items)}, nil
	}

	cached, err := s.store.RecentNews(ctx, storedCategory, time.Now().Add(-s.ttl), limit)
	if err != nil {
		return Feed{}, fmt.Errorf("news cache lookup for %q: %w", category, err)
	}

	// Partial-hit policy: half the requested count is good enough.
	if len(cached)*2 >= limit {
		s.usage.Record(ctx, "news", ProviderName, true)
		items := make([]Item, 0, len(cached))
		for _, rec := range cached {
			items = append(items, itemFromRecord(rec))
		}
		return Feed{Items: items, Cached: true, Total: len(items)}, nil
	}

	articles, err := s.fetch(ctx, category, limit)
	if err != nil {
		return Feed{}, err
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}

	items := make([]Item, 0, len(articles))
	for _, a := range articles {
		saved, err := s.store.UpsertNews(ctx, recordFromArticle(a, storedCategory))
		if err != nil {
			return Feed{}, fmt.Errorf("persisting article %q: %w", a.URL, err)
		}
		items = append(items, itemFromRecord(saved))
	}

	s.usage.Record(ctx, "news", ProviderName, false)
	return Feed{Items: items, Cached: false, Total: len(items)}, nil
}

func (s *Service) fetch(ctx context.Context, category string, limit int) ([]Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	articles, err := s.provider.TopHeadlines(ctx, category, limit)
	if err != nil {
		log.Printf("news: provider fetch failed for %q: %v", category, err)
		return nil, err
	}
	return articles, nil
}

func recordFromArticle(a Article, category string) Record {
	return Record{
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		ImageURL:    a.ImageURL,
		Source:      a.Source,
		Category:    category,
		Author:      a.Author,
		PublishedAt: a.PublishedAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
}
