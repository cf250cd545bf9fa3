package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/news"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/trending"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/weather"
)

// prewarmNewsLimit is how many articles each category refresh requests.
const prewarmNewsLimit = 10

var (
	newsCategories = []string{"ai", "tech", "science"}
	trendingTopics = []string{"artificial-intelligence", "machine-learning", "technology"}
)

// Scheduler periodically walks the orchestrators so user traffic lands on a
// warm cache. Requests that hit fresh records are cheap reads; the rest
// refill from the providers.
type Scheduler struct {
	scheduler *gocron.Scheduler
	weather   *weather.Service
	news      *news.Service
	trending  *trending.Service
	cities    []string
	interval  time.Duration
}

// New creates a new Scheduler.
func New(cities []string, interval time.Duration, w *weather.Service, n *news.Service, t *trending.Service) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		weather:   w,
		news:      n,
		trending:  t,
		cities:    cities,
		interval:  interval,
	}
}

// Start schedules the periodic prewarm job and starts the underlying
// scheduler. A non-positive interval disables prewarming.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: prewarm disabled")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.prewarm)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) prewarm() {
	log.Println("scheduler: running cache prewarm job")

	var wg sync.WaitGroup

	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := s.weather.Current(ctx, city); err != nil {
				log.Printf("scheduler: weather prewarm failed for %q: %v", city, err)
			}
		}()
	}

	for _, category := range newsCategories {
		category := category
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := s.news.TopHeadlines(ctx, category, prewarmNewsLimit); err != nil {
				log.Printf("scheduler: news prewarm failed for %q: %v", category, err)
			}
		}()
	}

	for _, topic := range trendingTopics {
		topic := topic
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := s.trending.Topics(ctx, topic); err != nil {
				log.Printf("scheduler: trending prewarm failed for %q: %v", topic, err)
			}
		}()
	}

	wg.Wait()
	log.Println("scheduler: completed cache prewarm job")
}
