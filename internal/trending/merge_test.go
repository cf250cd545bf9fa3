package trending

import (
	"testing"
	"time"
)

func TestMergeDedupesTitlesIgnoringCaseAndWhitespace(t *testing.T) {
	now := time.Now()
	posts := []Post{
		{Title: "GPT-5 released", Subreddit: "artificial", Ups: 10, CreatedUTC: float64(now.Unix())},
		{Title: "  gpt-5 RELEASED ", Subreddit: "technology", Ups: 500, CreatedUTC: float64(now.Unix())},
		{Title: "Something else", Subreddit: "artificial", Ups: 5, CreatedUTC: float64(now.Unix())},
	}

	recs := Merge("artificial-intelligence", posts, now)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records after dedup, got %d", len(recs))
	}
	// First occurrence wins regardless of the duplicate's higher score.
	if recs[0].Keyword != "GPT-5 released" {
		t.Fatalf("expected first occurrence to survive, got %q", recs[0].Keyword)
	}
}

func TestMergeRanksByEngagementScore(t *testing.T) {
	now := time.Now()
	posts := []Post{
		{Title: "a", Subreddit: "artificial", Ups: 10, NumComments: 5, CreatedUTC: float64(now.Unix())},
		{Title: "b", Subreddit: "artificial", Ups: 15, NumComments: 0, CreatedUTC: float64(now.Unix())},
	}

	recs := Merge("artificial-intelligence", posts, now)
	// Scores: a = 10 + 2*5 = 20, b = 15.
	if recs[0].Keyword != "a" || recs[0].Rank != 1 {
		t.Fatalf("expected post a at rank 1, got %q at rank %d", recs[0].Keyword, recs[0].Rank)
	}
	if recs[1].Keyword != "b" || recs[1].Rank != 2 {
		t.Fatalf("expected post b at rank 2, got %q at rank %d", recs[1].Keyword, recs[1].Rank)
	}
}

func TestMergeStableOrderOnEqualScores(t *testing.T) {
	now := time.Now()
	posts := []Post{
		{Title: "first", Subreddit: "artificial", Ups: 10, CreatedUTC: float64(now.Unix())},
		{Title: "second", Subreddit: "artificial", Ups: 10, CreatedUTC: float64(now.Unix())},
	}

	recs := Merge("artificial-intelligence", posts, now)
	if recs[0].Keyword != "first" || recs[1].Keyword != "second" {
		t.Fatalf("expected arrival order preserved on ties, got %q then %q", recs[0].Keyword, recs[1].Keyword)
	}
}

func TestMergeTruncatesToFifteen(t *testing.T) {
	now := time.Now()
	var posts []Post
	for i := 0; i < 30; i++ {
		posts = append(posts, Post{
			Title:      string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Subreddit:  "artificial",
			Ups:        i,
			CreatedUTC: float64(now.Unix()),
		})
	}

	recs := Merge("artificial-intelligence", posts, now)
	if len(recs) != 15 {
		t.Fatalf("expected 15 records, got %d", len(recs))
	}
	if recs[14].Rank != 15 {
		t.Fatalf("expected last rank 15, got %d", recs[14].Rank)
	}
}

func TestMergeCategoryLookupWithFallback(t *testing.T) {
	now := time.Now()
	posts := []Post{
		{Title: "mapped", Subreddit: "Futurology", CreatedUTC: float64(now.Unix())},
		{Title: "unmapped", Subreddit: "somewhere-new", CreatedUTC: float64(now.Unix())},
	}

	recs := Merge("machine-learning", posts, now)
	if recs[0].Category != "technology" {
		t.Fatalf("expected Futurology to map to technology, got %q", recs[0].Category)
	}
	if recs[1].Category != "machine-learning" {
		t.Fatalf("expected unmapped subreddit to fall back to topic, got %q", recs[1].Category)
	}
}

func TestMergeComputesVolume(t *testing.T) {
	now := time.Now()
	posts := []Post{
		{Title: "x", Subreddit: "artificial", Ups: 40, NumComments: 7, CreatedUTC: float64(now.Unix())},
	}

	recs := Merge("artificial-intelligence", posts, now)
	if recs[0].Volume != 47 {
		t.Fatalf("expected volume 47, got %d", recs[0].Volume)
	}
}

func TestGrowthDecaysWithAge(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name     string
		ageHours float64
		want     float64
	}{
		{"half hour old", 0.5, 100},
		{"ten hours old", 10, 50.0},
		{"twenty hours old", 20, 0},
		{"ancient", 48, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Post{CreatedUTC: float64(now.Unix()) - tc.ageHours*3600}
			if got := growth(p, now); got != tc.want {
				t.Fatalf("growth for age %.1fh: expected %v, got %v", tc.ageHours, tc.want, got)
			}
		})
	}
}

func TestMergeTruncatesLongKeywords(t *testing.T) {
	now := time.Now()
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}

	recs := Merge("technology", []Post{{Title: string(long), Subreddit: "gadgets", CreatedUTC: float64(now.Unix())}}, now)
	if len(recs[0].Keyword) != 200 {
		t.Fatalf("expected keyword truncated to 200 chars, got %d", len(recs[0].Keyword))
	}
}
