package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/trending"
	"github.com/sony/gobreaker"
)

const redditUserAgent = "IntelliDash/1.0 (Dashboard App)"

// postsPerSubreddit is how many hot posts each source contributes.
const postsPerSubreddit = 10

// topicSubreddits is the static topic to source-list table.
var topicSubreddits = map[string][]string{
	"artificial-intelligence": {"artificial", "MachineLearning", "singularity"},
	"machine-learning":        {"MachineLearning", "LocalLLaMA", "MLOps"},
	"technology":              {"technology", "Futurology", "gadgets"},
}

// fallbackSubreddits backs unknown topics.
var fallbackSubreddits = []string{"artificial", "technology"}

// RedditClient implements the trending.Provider interface over Reddit's
// public hot listings. No credentials are required.
type RedditClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewRedditClient(client *http.Client) *RedditClient {
	return &RedditClient{
		baseURL: "https://www.reddit.com",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("reddit"),
	}
}

// HotPosts fans out to every source configured for the topic concurrently
// and returns the combined posts. A failing source is logged and skipped;
// siblings are not cancelled. All sources failing yields an empty slice.
func (c *RedditClient) HotPosts(ctx context.Context, topic string) ([]trending.Post, error) {
	subreddits, ok := topicSubreddits[topic]
	if !ok {
		subreddits = fallbackSubreddits
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		posts []trending.Post
	)

	for _, subreddit := range subreddits {
		subreddit := subreddit
		wg.Add(1)
		go func() {
			defer wg.Done()

			fetched, err := c.fetchSubreddit(ctx, subreddit)
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("reddit: fetch failed for r/%s: %v", subreddit, err)
				return
			}

			mu.Lock()
			posts = append(posts, fetched...)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return posts, nil
}

func (c *RedditClient) fetchSubreddit(ctx context.Context, subreddit string) ([]trending.Post, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", c.baseURL, subreddit, postsPerSubreddit)
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", redditUserAgent)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			Children []struct {
				Data struct {
					Title       string  `json:"title"`
					Subreddit   string  `json:"subreddit"`
					Ups         int     `json:"ups"`
					NumComments int     `json:"num_comments"`
					CreatedUTC  float64 `json:"created_utc"`
					Permalink   string  `json:"permalink"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding reddit response: %w", err)
	}

	posts := make([]trending.Post, 0, len(payload.Data.Children))
	for _, child := range payload.Data.Children {
		posts = append(posts, trending.Post{
			Title:       child.Data.Title,
			Subreddit:   child.Data.Subreddit,
			Ups:         child.Data.Ups,
			NumComments: child.Data.NumComments,
			CreatedUTC:  child.Data.CreatedUTC,
			Permalink:   child.Data.Permalink,
		})
	}

	return posts, nil
}
