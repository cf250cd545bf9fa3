package news

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	recent   []Record
	upserted []Record
}

func (f *fakeStore) RecentNews(ctx context.Context, category string, since time.Time, limit int) ([]Record, error) {
	return f.recent, nil
}

func (f *fakeStore) UpsertNews(ctx context.Context, rec Record) (Record, error) {
	rec.ID = fmt.Sprintf("id-%d", len(f.upserted))
	f.upserted = append(f.upserted, rec)
	return rec, nil
}

type fakeProvider struct {
	articles []Article
	err      error
	calls    int
	lastCat  string
	lastN    int
}

func (f *fakeProvider) TopHeadlines(ctx context.Context, category string, limit int) ([]Article, error) {
	f.calls++
	f.lastCat = category
	f.lastN = limit
	return f.articles, f.err
}

type fakeUsage struct {
	cached bool
	calls  int
}

func (f *fakeUsage) Record(ctx context.Context, endpoint, provider string, cached bool) {
	f.calls++
	f.cached = cached
}

func cachedRecords(n int) []Record {
	recs := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, Record{
			ID:          fmt.Sprintf("cached-%d", i),
			Title:       fmt.Sprintf("title %d", i),
			URL:         fmt.Sprintf("https://example.com/%d", i),
			Category:    "technology",
			PublishedAt: time.Now().Add(-time.Duration(i) * time.Minute),
			CreatedAt:   time.Now(),
		})
	}
	return recs
}

func TestTopHeadlinesPartialHit(t *testing.T) {
	// 5 cached articles satisfy a limit of 10: half is good enough.
	store := &fakeStore{recent: cachedRecords(5)}
	provider := &fakeProvider{}
	usage := &fakeUsage{}
	svc := NewService(store, provider, usage, time.Second, false)

	feed, err := svc.TopHeadlines(context.Background(), "tech", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !feed.Cached {
		t.Fatal("expected cache hit at 50% of requested limit")
	}
	if feed.Total != 5 || len(feed.Items) != 5 {
		t.Fatalf("expected exactly the 5 cached items, got total=%d items=%d", feed.Total, len(feed.Items))
	}
	if provider.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", provider.calls)
	}
	if !usage.cached {
		t.Fatal("expected usage recorded as a cache hit")
	}
}

func TestTopHeadlinesBelowThresholdRefetches(t *testing.T) {
	store := &fakeStore{recent: cachedRecords(4)}
	provider := &fakeProvider{articles: []Article{
		{Title: "fresh one", URL: "https://example.com/new1", PublishedAt: time.Now()},
		{Title: "fresh two", URL: "https://example.com/new2", PublishedAt: time.Now()},
	}}
	usage := &fakeUsage{}
	svc := NewService(store, provider, usage, time.Second, false)

	feed, err := svc.TopHeadlines(context.Background(), "ai", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.Cached {
		t.Fatal("expected refetch below the partial-hit threshold")
	}
	if provider.calls != 1 || provider.lastCat != "ai" || provider.lastN != 10 {
		t.Fatalf("unexpected provider call: %+v", provider)
	}
	if len(store.upserted) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(store.upserted))
	}
	// The ai category persists under the upstream taxonomy.
	if store.upserted[0].Category != "technology" {
		t.Fatalf("expected ai to persist as technology, got %q", store.upserted[0].Category)
	}
	if usage.cached {
		t.Fatal("expected usage recorded as a provider call")
	}
}

func TestTopHeadlinesTruncatesToLimit(t *testing.T) {
	var articles []Article
	for i := 0; i < 8; i++ {
		articles = append(articles, Article{
			Title: fmt.Sprintf("t%d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		})
	}
	store := &fakeStore{}
	provider := &fakeProvider{articles: articles}
	svc := NewService(store, provider, &fakeUsage{}, time.Second, false)

	feed, err := svc.TopHeadlines(context.Background(), "science", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.Total != 3 || len(store.upserted) != 3 {
		t.Fatalf("expected 3 persisted items, got total=%d upserts=%d", feed.Total, len(store.upserted))
	}
}

func TestTopHeadlinesPassthroughSkipsStore(t *testing.T) {
	store := &fakeStore{recent: cachedRecords(10)}
	provider := &fakeProvider{articles: []Article{{Title: "x", URL: "https://example.com/x"}}}
	usage := &fakeUsage{}
	svc := NewService(store, provider, usage, time.Second, true)

	feed, err := svc.TopHeadlines(context.Background(), "tech", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.Cached {
		t.Fatal("passthrough responses are never cached")
	}
	if len(store.upserted) != 0 {
		t.Fatal("passthrough must not write to the store")
	}
	if usage.calls != 0 {
		t.Fatal("passthrough must not track usage")
	}
}

func TestUpstreamCategoryMapping(t *testing.T) {
	cases := map[string]string{
		"ai":      "technology",
		"tech":    "technology",
		"science": "science",
		"other":   "other",
	}
	for in, want := range cases {
		if got := UpstreamCategory(in); got != want {
			t.Fatalf("UpstreamCategory(%q): expected %q, got %q", in, want, got)
		}
	}
}
