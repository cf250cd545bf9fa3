package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/news"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/providers"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/ratelimit"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/trending"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/usage"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/weather"
)

type weatherStore struct{}

func (weatherStore) LatestWeather(ctx context.Context, city string) (weather.Record, error) {
	return weather.Record{}, weather.ErrNotFound
}
func (weatherStore) SaveWeather(ctx context.Context, rec weather.Record) (weather.Record, error) {
	rec.ID = "w1"
	return rec, nil
}

type weatherProvider struct {
	obs weather.Observation
	err error
}

func (p weatherProvider) Current(ctx context.Context, city string) (weather.Observation, error) {
	return p.obs, p.err
}

type newsStore struct{}

func (newsStore) RecentNews(ctx context.Context, category string, since time.Time, limit int) ([]news.Record, error) {
	return nil, nil
}
func (newsStore) UpsertNews(ctx context.Context, rec news.Record) (news.Record, error) {
	rec.ID = "n1"
	return rec, nil
}

type newsProvider struct {
	articles []news.Article
	err      error
}

func (p newsProvider) TopHeadlines(ctx context.Context, category string, limit int) ([]news.Article, error) {
	return p.articles, p.err
}

type trendingStore struct{}

func (trendingStore) FreshTrending(ctx context.Context, category, platform string, since time.Time, limit int) ([]trending.Record, error) {
	return nil, nil
}
func (trendingStore) ReplaceTrending(ctx context.Context, category, platform string, recs []trending.Record) ([]trending.Record, error) {
	return recs, nil
}

type trendingProvider struct {
	posts []trending.Post
}

func (p trendingProvider) HotPosts(ctx context.Context, topic string) ([]trending.Post, error) {
	return p.posts, nil
}

type noopUsage struct{}

func (noopUsage) Record(ctx context.Context, endpoint, provider string, cached bool) {}

type emptyUsageReader struct{}

func (emptyUsageReader) UsageOn(ctx context.Context, date time.Time) ([]usage.Counter, error) {
	return nil, nil
}

func testApp(svcs Services) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	RegisterRoutes(app, svcs)
	return app
}

func defaultServices(wp weather.Provider, np news.Provider, tp trending.Provider) Services {
	return Services{
		Weather:  weather.NewService(weatherStore{}, wp, noopUsage{}, time.Second, false),
		News:     news.NewService(newsStore{}, np, noopUsage{}, time.Second, false),
		Trending: trending.NewService(trendingStore{}, tp, noopUsage{}, time.Second, false),
		Usage:    emptyUsageReader{},
	}
}

func doRequest(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func TestWeatherValidation(t *testing.T) {
	app := testApp(defaultServices(weatherProvider{}, newsProvider{}, trendingProvider{}))

	resp := doRequest(t, app, "/weather")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing city: expected 400, got %d", resp.StatusCode)
	}
}

func TestWeatherUnknownCity(t *testing.T) {
	app := testApp(defaultServices(
		weatherProvider{err: weather.ErrCityNotFound}, newsProvider{}, trendingProvider{},
	))

	resp := doRequest(t, app, "/weather?city=Atlantis")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWeatherMissingCredential(t *testing.T) {
	app := testApp(defaultServices(
		weatherProvider{err: providers.ErrMissingCredential}, newsProvider{}, trendingProvider{},
	))

	resp := doRequest(t, app, "/weather?city=London")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestWeatherSuccess(t *testing.T) {
	app := testApp(defaultServices(
		weatherProvider{obs: weather.Observation{Location: "London", Temp: 12.6, Condition: "Clouds", Icon: "i"}},
		newsProvider{}, trendingProvider{},
	))

	resp := doRequest(t, app, "/weather?city=London")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Location string `json:"location"`
		Temp     int    `json:"temp"`
		Cached   bool   `json:"cached"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Location != "London" || body.Temp != 13 || body.Cached {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestNewsValidation(t *testing.T) {
	app := testApp(defaultServices(weatherProvider{}, newsProvider{}, trendingProvider{}))

	for _, path := range []string{
		"/news?category=sports",
		"/news?category=tech&limit=0",
		"/news?category=tech&limit=51",
		"/news?category=tech&limit=abc",
	} {
		resp := doRequest(t, app, path)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestNewsDefaults(t *testing.T) {
	app := testApp(defaultServices(
		weatherProvider{},
		newsProvider{articles: []news.Article{{Title: "t", URL: "https://example.com/t"}}},
		trendingProvider{},
	))

	resp := doRequest(t, app, "/news")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with default params, got %d", resp.StatusCode)
	}

	var body news.Feed
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Total != 1 || body.Cached {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTrendingValidation(t *testing.T) {
	app := testApp(defaultServices(weatherProvider{}, newsProvider{}, trendingProvider{}))

	resp := doRequest(t, app, "/trending?topic=sports")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTrendingAllSourcesDown(t *testing.T) {
	app := testApp(defaultServices(weatherProvider{}, newsProvider{}, trendingProvider{posts: nil}))

	resp := doRequest(t, app, "/trending?topic=technology")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(ratelimit.NewFixedWindow(2, time.Minute)))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	for i := 0; i < 2; i++ {
		resp := doRequest(t, app, "/ping")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	resp := doRequest(t, app, "/ping")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the window is exhausted, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected remaining header 0, got %q", resp.Header.Get("X-RateLimit-Remaining"))
	}
}
