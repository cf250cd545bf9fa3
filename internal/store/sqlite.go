package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pixel-remedy-bot/intellidash-v2/internal/news"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/trending"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/usage"
	"github.com/pixel-remedy-bot/intellidash-v2/internal/weather"
)

// DB is the sqlite-backed persistent store shared by all three domains and
// the usage tracker.
type DB struct {
	*sql.DB
}

// Open creates the database connection and initializes the schema.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	d := &DB{db}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return d, nil
}

// initSchema creates tables if they don't exist. The unique index on
// news.url is what makes duplicate article inserts atomic.
func (db *DB) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS weather (
			id TEXT PRIMARY KEY,
			location TEXT NOT NULL,
			temp REAL NOT NULL,
			condition TEXT NOT NULL,
			icon TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS news (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			url TEXT NOT NULL UNIQUE,
			image_url TEXT,
			source TEXT NOT NULL,
			category TEXT NOT NULL,
			author TEXT,
			published_at TIMESTAMP NOT NULL,
			sentiment REAL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS trending (
			id TEXT PRIMARY KEY,
			keyword TEXT NOT NULL,
			category TEXT NOT NULL,
			rank INTEGER NOT NULL,
			volume INTEGER NOT NULL,
			growth REAL NOT NULL,
			platform TEXT NOT NULL,
			region TEXT NOT NULL,
			related_topics TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS api_usage (
			endpoint TEXT NOT NULL,
			provider TEXT NOT NULL,
			date TIMESTAMP NOT NULL,
			requests INTEGER NOT NULL DEFAULT 0,
			UNIQUE(endpoint, provider, date)
		);

		CREATE INDEX IF NOT EXISTS idx_weather_location ON weather(location COLLATE NOCASE, created_at);
		CREATE INDEX IF NOT EXISTS idx_news_category ON news(category, created_at);
		CREATE INDEX IF NOT EXISTS idx_trending_snapshot ON trending(category, platform, timestamp);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// LatestWeather returns the most recent record for a location,
// case-insensitively matched.
func (db *DB) LatestWeather(ctx context.Context, city string) (weather.Record, error) {
	query := `
		SELECT id, location, temp, condition, icon, created_at
		FROM weather
		WHERE location = ? COLLATE NOCASE
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec weather.Record
	err := db.QueryRowContext(ctx, query, city).Scan(
		&rec.ID, &rec.Location, &rec.Temp, &rec.Condition, &rec.Icon, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return weather.Record{}, weather.ErrNotFound
		}
		return weather.Record{}, fmt.Errorf("querying weather: %w", err)
	}

	return rec, nil
}

// SaveWeather inserts a new observation and returns it with its assigned id.
func (db *DB) SaveWeather(ctx context.Context, rec weather.Record) (weather.Record, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = rec.CreatedAt.UTC()

	_, err := db.ExecContext(ctx,
		"INSERT INTO weather (id, location, temp, condition, icon, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Location, rec.Temp, rec.Condition, rec.Icon, rec.CreatedAt,
	)
	if err != nil {
		return weather.Record{}, fmt.Errorf("inserting weather: %w", err)
	}

	return rec, nil
}

// RecentNews returns articles cached at or after since in a category,
// newest publish time first, capped at limit.
func (db *DB) RecentNews(ctx context.Context, category string, since time.Time, limit int) ([]news.Record, error) {
	query := `
		SELECT id, title, description, url, image_url, source, category, author,
		       published_at, sentiment, created_at
		FROM news
		WHERE category = ? AND created_at >= ?
		ORDER BY published_at DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, category, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying news: %w", err)
	}
	defer rows.Close()

	var recs []news.Record
	for rows.Next() {
		rec, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// UpsertNews inserts an article or, when the URL already exists, returns the
// stored record unchanged. The conflict clause makes this a single atomic
// statement rather than a check-then-insert.
func (db *DB) UpsertNews(ctx context.Context, rec news.Record) (news.Record, error) {
	query := `
		INSERT INTO news (id, title, description, url, image_url, source, category,
		                  author, published_at, sentiment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET url = excluded.url
		RETURNING id, title, description, url, image_url, source, category, author,
		          published_at, sentiment, created_at
	`

	row := db.QueryRowContext(ctx, query,
		uuid.NewString(), rec.Title, rec.Description, rec.URL, rec.ImageURL,
		rec.Source, rec.Category, rec.Author, rec.PublishedAt.UTC(),
		nullFloat(rec.Sentiment), rec.CreatedAt.UTC(),
	)

	saved, err := scanNews(row)
	if err != nil {
		return news.Record{}, fmt.Errorf("upserting news %q: %w", rec.URL, err)
	}

	return saved, nil
}

// FreshTrending returns the ranked snapshot for a (category, platform) pair
// with bookkeeping timestamp at or after since, rank ascending.
func (db *DB) FreshTrending(ctx context.Context, category, platform string, since time.Time, limit int) ([]trending.Record, error) {
	query := `
		SELECT id, keyword, category, rank, volume, growth, platform, region,
		       related_topics, timestamp, expires_at
		FROM trending
		WHERE category = ? AND platform = ? AND timestamp >= ?
		ORDER BY rank ASC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, category, platform, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("querying trending: %w", err)
	}
	defer rows.Close()

	var recs []trending.Record
	for rows.Next() {
		var rec trending.Record
		if err := rows.Scan(
			&rec.ID, &rec.Keyword, &rec.Category, &rec.Rank, &rec.Volume,
			&rec.Growth, &rec.Platform, &rec.Region, &rec.RelatedTopics,
			&rec.Timestamp, &rec.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scanning trending: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// ReplaceTrending swaps the whole snapshot for a (category, platform) pair
// in one transaction so rank ordering always reflects the latest refill.
func (db *DB) ReplaceTrending(ctx context.Context, category, platform string, recs []trending.Record) ([]trending.Record, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning trending replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM trending WHERE category = ? AND platform = ?",
		category, platform,
	); err != nil {
		return nil, fmt.Errorf("clearing trending snapshot: %w", err)
	}

	insert := `
		INSERT INTO trending (id, keyword, category, rank, volume, growth,
		                      platform, region, related_topics, timestamp, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	saved := make([]trending.Record, 0, len(recs))
	for _, rec := range recs {
		rec.ID = uuid.NewString()
		rec.Timestamp = rec.Timestamp.UTC()
		rec.ExpiresAt = rec.ExpiresAt.UTC()

		if _, err := tx.ExecContext(ctx, insert,
			rec.ID, rec.Keyword, rec.Category, rec.Rank, rec.Volume, rec.Growth,
			rec.Platform, rec.Region, rec.RelatedTopics, rec.Timestamp, rec.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("inserting trending record: %w", err)
		}
		saved = append(saved, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing trending replace: %w", err)
	}

	return saved, nil
}

// IncrementUsage upserts the per-day request counter for an
// (endpoint, provider) pair.
func (db *DB) IncrementUsage(ctx context.Context, endpoint, provider string, date time.Time) error {
	query := `
		INSERT INTO api_usage (endpoint, provider, date, requests)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(endpoint, provider, date) DO UPDATE SET requests = requests + 1
	`

	if _, err := db.ExecContext(ctx, query, endpoint, provider, date.UTC()); err != nil {
		return fmt.Errorf("upserting api usage: %w", err)
	}

	return nil
}

// UsageOn returns all counters recorded for a day.
func (db *DB) UsageOn(ctx context.Context, date time.Time) ([]usage.Counter, error) {
	query := `
		SELECT endpoint, provider, date, requests
		FROM api_usage
		WHERE date = ?
		ORDER BY endpoint, provider
	`

	rows, err := db.QueryContext(ctx, query, date.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying api usage: %w", err)
	}
	defer rows.Close()

	var counters []usage.Counter
	for rows.Next() {
		var c usage.Counter
		if err := rows.Scan(&c.Endpoint, &c.Provider, &c.Date, &c.Requests); err != nil {
			return nil, fmt.Errorf("scanning api usage: %w", err)
		}
		counters = append(counters, c)
	}

	return counters, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNews(row rowScanner) (news.Record, error) {
	var (
		rec         news.Record
		description sql.NullString
		imageURL    sql.NullString
		author      sql.NullString
		sentiment   sql.NullFloat64
	)

	err := row.Scan(
		&rec.ID, &rec.Title, &description, &rec.URL, &imageURL, &rec.Source,
		&rec.Category, &author, &rec.PublishedAt, &sentiment, &rec.CreatedAt,
	)
	if err != nil {
		return news.Record{}, fmt.Errorf("scanning news: %w", err)
	}

	rec.Description = description.String
	rec.ImageURL = imageURL.String
	rec.Author = author.String
	if sentiment.Valid {
		rec.Sentiment = &sentiment.Float64
	}

	return rec, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
