package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/grambudget/grambudget/internal/models"
)

// NewsFetcher retrieves fresh articles from an upstream news API.
type NewsFetcher interface {
	Articles(ctx context.Context) ([]models.NewsArticle, error)
}

// NewsStore persists the last fetched snapshot of articles.
type NewsStore interface {
	LatestNews(ctx context.Context) (NewsSnapshot, bool, error)
	StoreNews(ctx context.Context, snap NewsSnapshot) error
}

// NewsCache serves articles from a NewsStore while they are younger than the TTL and refetches from
// upstream otherwise. With a nil fetcher, or when upstream fails or returns nothing, it serves
// FallbackNews.
type NewsCache struct {
	fetcher NewsFetcher
	store   NewsStore
	ttl     time.Duration
	now     func() time.Time

	logger *slog.Logger
}

// DefaultNewsTTL is how long a fetched snapshot is served before upstream is queried again.
const DefaultNewsTTL = 10 * time.Minute

// NewNewsCache creates a NewsCache. A non-positive ttl selects DefaultNewsTTL.
func NewNewsCache(fetcher NewsFetcher, store NewsStore, ttl time.Duration, logger *slog.Logger) NewsCache {
	if ttl <= 0 {
		ttl = DefaultNewsTTL
	}
	return NewsCache{
		fetcher: fetcher,
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.With(slog.String("module", "news")),
	}
}

// WithClock returns a copy of the cache that reads the time from now.
func (c NewsCache) WithClock(now func() time.Time) NewsCache {
	c.now = now
	return c
}

// Articles returns the headlines to show. It never fails; every error path degrades to the fallback list.
func (c NewsCache) Articles(ctx context.Context) ([]models.NewsArticle, error) {
	if c.fetcher == nil {
		return FallbackNews(c.now()), nil
	}

	snap, found, err := c.store.LatestNews(ctx)
	if err != nil {
		c.logger.Warn("Failed to read cached news", slog.String(errLoggerKey, err.Error()))
	}
	if found && c.now().Sub(snap.FetchedAt) < c.ttl && len(snap.Articles) > 0 {
		return snap.Articles, nil
	}

	articles, err := c.refresh(ctx)
	if err != nil {
		c.logger.Warn("Failed to fetch news, serving fallback", slog.String(errLoggerKey, err.Error()))
		return FallbackNews(c.now()), nil
	}
	if len(articles) == 0 {
		return FallbackNews(c.now()), nil
	}
	return articles, nil
}

func (c NewsCache) refresh(ctx context.Context) ([]models.NewsArticle, error) {
	articles, err := c.fetcher.Articles(ctx)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}

	if err := c.store.StoreNews(ctx, NewsSnapshot{Articles: articles, FetchedAt: c.now()}); err != nil {
		c.logger.Warn("Failed to store news", slog.String(errLoggerKey, err.Error()))
	}
	return articles, nil
}

// Run refreshes the cache once per TTL until ctx is done, so requests rarely wait on upstream.
func (c NewsCache) Run(ctx context.Context) error {
	if c.fetcher == nil {
		return nil
	}

	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		if _, err := c.refresh(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("Background news refresh failed", slog.String(errLoggerKey, err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
