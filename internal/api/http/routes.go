package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/news"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/providers"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/trending"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/usage"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/weather"
)

var validate = validator.New()

// UsageReader exposes recorded usage counters for the observability
// endpoint.
type UsageReader interface {
	UsageOn(ctx context.Context, date time.Time) ([]usage.Counter, error)
}

// Services groups the domain orchestrators the handlers dispatch to.
type Services struct {
	Weather  *weather.Service
	News     *news.Service
	Trending *trending.Service
	Usage    UsageReader
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svcs Services) {
	app.Get("/weather", func(c *fiber.Ctx) error {
		var q weatherQuery
		q.City = c.Query("city")
		if err := validate.Struct(q); err != nil {
			return badRequest(c, "Invalid city parameter", err)
		}

		report, err := svcs.Weather.Current(c.UserContext(), q.City)
		if err != nil {
			return serviceError(c, "weather", err)
		}

		return c.JSON(report)
	})

	app.Get("/news", func(c *fiber.Ctx) error {
		q := newsQuery{Category: "tech", Limit: 10}
		if v := c.Query("category"); v != "" {
			q.Category = v
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return badRequest(c, "Invalid parameters", err)
			}
			q.Limit = n
		}
		if err := validate.Struct(q); err != nil {
			return badRequest(c, "Invalid parameters", err)
		}

		feed, err := svcs.News.TopHeadlines(c.UserContext(), q.Category, q.Limit)
		if err != nil {
			return serviceError(c, "news", err)
		}

		return c.JSON(feed)
	})

	app.Get("/trending", func(c *fiber.Ctx) error {
		q := trendingQuery{Topic: "artificial-intelligence"}
		if v := c.Query("topic"); v != "" {
			q.Topic = v
		}
		if err := validate.Struct(q); err != nil {
			return badRequest(c, "Invalid topic parameter", err)
		}

		list, err := svcs.Trending.Topics(c.UserContext(), q.Topic)
		if err != nil {
			return serviceError(c, "trending", err)
		}

		return c.JSON(list)
	})

	app.Get("/usage", func(c *fiber.Ctx) error {
		day := usage.Day(time.Now())
		if v := c.Query("date"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				return badRequest(c, "Invalid date parameter", err)
			}
			day = usage.Day(parsed)
		}

		counters, err := svcs.Usage.UsageOn(c.UserContext(), day)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read usage counters")
		}

		return c.JSON(fiber.Map{
			"date":     day.Format("2006-01-02"),
			"counters": counters,
		})
	})
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	City string `validate:"required,min=1,max=100"`
}

// newsQuery holds query parameters for the news endpoint.
type newsQuery struct {
	Category string `validate:"required,oneof=ai tech science"`
	Limit    int    `validate:"required,min=1,max=50"`
}

// trendingQuery holds query parameters for the trending endpoint.
type trendingQuery struct {
	Topic string `validate:"required,oneof=artificial-intelligence machine-learning technology"`
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   msg,
		"details": fiber.Map{"reason": err.Error()},
	})
}

// serviceError translates orchestrator failures into HTTP outcomes.
func serviceError(c *fiber.Ctx, domain string, err error) error {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "City not found")
	case errors.Is(err, providers.ErrMissingCredential):
		return fiber.NewError(fiber.StatusInternalServerError, "API key not configured")
	case errors.Is(err, trending.ErrNoUpstreamData):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Failed to fetch trending data from upstream sources")
	default:
		log.Printf("%s: request failed: %v", domain, err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch "+domain+" data")
	}
}
