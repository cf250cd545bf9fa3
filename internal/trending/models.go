package trending

import (
	"context"
	"errors"
	"time"
)

// TTL is how long a ranked snapshot for a topic counts as fresh.
const TTL = 15 * time.Minute

// Platform tags every record with the community platform it came from.
const Platform = "reddit"

// ProviderName identifies the upstream source in usage accounting.
const ProviderName = "reddit"

// minCachedTopics is the freshness hit threshold: fewer fresh records than
// this forces a refill so a half-empty snapshot is never served.
const minCachedTopics = 5

// maxCachedTopics caps how many ranked records a response carries.
const maxCachedTopics = 10

// ErrNoUpstreamData means every community source failed for a topic.
var ErrNoUpstreamData = errors.New("all trending sources failed")

// Post is a normalized community post from one source, pre-merge.
type Post struct {
	Title       string
	Subreddit   string
	Ups         int
	NumComments int
	CreatedUTC  float64
	Permalink   string
}

// Record is a persisted ranked trending entry. Records for a (category,
// platform) pair are replaced wholesale on every refill.
type Record struct {
	ID            string
	Keyword       string
	Category      string
	Rank          int
	Volume        int
	Growth        float64
	Platform      string
	Region        string
	RelatedTopics string
	Timestamp     time.Time
	ExpiresAt     time.Time
}

// Topic is one ranked entry in the HTTP response.
type Topic struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	Category  string    `json:"category"`
	Rank      int       `json:"rank"`
	Volume    int       `json:"volume"`
	Growth    float64   `json:"growth"`
	Platform  string    `json:"platform"`
	Timestamp time.Time `json:"timestamp"`
}

// List is the canonical response for a trending query.
type List struct {
	Topics []Topic `json:"topics"`
	Cached bool    `json:"cached"`
}

// Provider abstracts the fanned-out community source. Implementations return
// whatever posts the reachable sources produced; an empty slice with a nil
// error means every source failed.
type Provider interface {
	HotPosts(ctx context.Context, topic string) ([]Post, error)
}

// Store is the persistence contract the orchestrator depends on.
type Store interface {
	// FreshTrending returns records for a (category, platform) pair with
	// bookkeeping timestamp at or after since, ordered by rank ascending,
	// capped at limit.
	FreshTrending(ctx context.Context, category, platform string, since time.Time, limit int) ([]Record, error)
	// ReplaceTrending deletes all records for the (category, platform) pair
	// and inserts recs in their place, returning the stored records.
	ReplaceTrending(ctx context.Context, category, platform string, recs []Record) ([]Record, error)
}

// UsageRecorder tracks served requests for quota planning.
type UsageRecorder interface {
	Record(ctx context.Context, endpoint, provider string, cached bool)
}

func topicFromRecord(rec Record) Topic {
	return Topic{
		ID:        rec.ID,
		Keyword:   rec.Keyword,
		Category:  rec.Category,
		Rank:      rec.Rank,
		Volume:    rec.Volume,
		Growth:    rec.Growth,
		Platform:  rec.Platform,
		Timestamp: rec.Timestamp.UTC(),
	}
}
