package news

import (
	"context"
	"time"
)

// TTL is how long cached articles in a category count as fresh.
const TTL = 30 * time.Minute

// ProviderName identifies the upstream news source in usage accounting.
const ProviderName = "newsapi"

// Categories accepted by the news endpoint, mapped to the upstream's
// coarser taxonomy.
var categoryMap = map[string]string{
	"ai":      "technology",
	"tech":    "technology",
	"science": "science",
}

// UpstreamCategory translates an accepted category into the provider's
// taxonomy. Unknown input passes through unchanged.
func UpstreamCategory(category string) string {
	if mapped, ok := categoryMap[category]; ok {
		return mapped
	}
	return category
}

// Record is a persisted news article. URL is the dedup key.
type Record struct {
	ID          string
	Title       string
	Description string
	URL         string
	ImageURL    string
	Source      string
	Category    string
	Author      string
	PublishedAt time.Time
	Sentiment   *float64
	CreatedAt   time.Time
}

// Article is a provider's normalized headline, not yet persisted.
type Article struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
	Source      string
	Author      string
	PublishedAt time.Time
}

// Item is one article in the HTTP response.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	Sentiment   *float64  `json:"sentiment"`
}

// Feed is the canonical response for a news query.
type Feed struct {
	Items  []Item `json:"items"`
	Cached bool   `json:"cached"`
	Total  int    `json:"total"`
}

// Provider abstracts the upstream headlines source.
type Provider interface {
	TopHeadlines(ctx context.Context, category string, limit int) ([]Article, error)
}

// Store is the persistence contract the orchestrator depends on.
type Store interface {
	// RecentNews returns records in a category with bookkeeping timestamp at
	// or after since, ordered by publish time descending, capped at limit.
	RecentNews(ctx context.Context, category string, since time.Time, limit int) ([]Record, error)
	// UpsertNews inserts the record or, when a record with the same URL
	// already exists, returns that record unchanged.
	UpsertNews(ctx context.Context, rec Record) (Record, error)
}

// UsageRecorder tracks served requests for quota planning.
type UsageRecorder interface {
	Record(ctx context.Context, endpoint, provider string, cached bool)
}

func itemFromRecord(rec Record) Item {
	return Item{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		URL:         rec.URL,
		ImageURL:    rec.ImageURL,
		Source:      rec.Source,
		Category:    rec.Category,
		Author:      rec.Author,
		PublishedAt: rec.PublishedAt.UTC(),
		Sentiment:   rec.Sentiment,
	}
}
