package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/news"
	"github.com/sony/gobreaker"
)

// aiQuery narrows the upstream "technology" category down to AI coverage.
const aiQuery = "artificial intelligence OR AI OR machine learning"

// NewsAPIClient implements the news.Provider interface for NewsAPI's
// top-headlines endpoint.
type NewsAPIClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewNewsAPIClient(client *http.Client, apiKey string) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:  apiKey,
		baseURL: "https://newsapi.org/v2/top-headlines",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newBreaker("newsapi"),
	}
}

func (c *NewsAPIClient) TopHeadlines(ctx context.Context, category string, limit int) ([]news.Article, error) {
	if c.apiKey == "" {
		return nil, ErrMissingCredential
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("category", news.UpstreamCategory(category))
		values.Set("language", "en")
		values.Set("pageSize", strconv.Itoa(limit))
		values.Set("apiKey", c.apiKey)
		if category == "ai" {
			values.Set("q", aiQuery)
		}

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status   string `json:"status"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Author      string `json:"author"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			URLToImage  string `json:"urlToImage"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned status %q", payload.Status)
	}

	articles := make([]news.Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			publishedAt = time.Now().UTC()
		}

		articles = append(articles, news.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			Source:      a.Source.Name,
			Author:      a.Author,
			PublishedAt: publishedAt.UTC(),
		})
	}

	return articles, nil
}
