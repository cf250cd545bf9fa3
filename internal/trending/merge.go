package trending

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"
)

// maxMergedPosts bounds the ranked list produced by a refill.
const maxMergedPosts = 15

// maxKeywordLen truncates overly long post titles before persistence.
const maxKeywordLen = 200

// subredditCategories assigns each known source a secondary category label.
// Unmapped sources fall back to the requested topic.
var subredditCategories = map[string]string{
	"artificial":      "artificial-intelligence",
	"MachineLearning": "artificial-intelligence",
	"singularity":     "artificial-intelligence",
	"LocalLLaMA":      "artificial-intelligence",
	"MLOps":           "artificial-intelligence",
	"technology":      "technology",
	"Futurology":      "technology",
	"gadgets":         "technology",
}

// Merge combines the posts collected from all sources for a topic into one
// ranked, deduplicated snapshot. Duplicate titles (case- and
// whitespace-insensitive) keep their first occurrence; survivors are ordered
// by engagement score (upvotes + 2x comments, ties by arrival order),
// truncated, and assigned 1-based ranks.
func Merge(topic string, posts []Post, now time.Time) []Record {
	seen := make(map[string]struct{}, len(posts))
	unique := make([]Post, 0, len(posts))
	for _, p := range posts {
		key := strings.ToLower(strings.TrimSpace(p.Title))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, p)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return engagement(unique[i]) > engagement(unique[j])
	})
	if len(unique) > maxMergedPosts {
		unique = unique[:maxMergedPosts]
	}

	recs := make([]Record, 0, len(unique))
	for i, p := range unique {
		category, ok := subredditCategories[p.Subreddit]
		if !ok {
			category = topic
		}

		keyword := p.Title
		if len(keyword) > maxKeywordLen {
			keyword = keyword[:maxKeywordLen]
		}

		related, _ := json.Marshal([]string{p.Subreddit, p.Permalink})

		recs = append(recs, Record{
			Keyword:       keyword,
			Category:      category,
			Rank:          i + 1,
			Volume:        p.Ups + p.NumComments,
			Growth:        growth(p, now),
			Platform:      Platform,
			Region:        "global",
			RelatedTopics: string(related),
			Timestamp:     now.UTC(),
			ExpiresAt:     now.Add(TTL).UTC(),
		})
	}
	return recs
}

func engagement(p Post) int {
	return p.Ups + 2*p.NumComments
}

// growth estimates momentum from post age alone: anything under an hour old
// scores 100, then the score decays 5 points per hour down to 0.
func growth(p Post, now time.Time) float64 {
	ageHours := (float64(now.Unix()) - p.CreatedUTC) / 3600
	if ageHours < 1 {
		return 100
	}
	g := math.Max(0, 100-ageHours*5)
	return math.Round(g*10) / 10
}
