package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/grambudget/grambudget/internal/models"
)

// GNews searches the gnews.io API for rural finance and governance headlines.
type GNews struct {
	apiKey   string
	endpoint string

	client *http.Client

	logger *slog.Logger
}

type gnewsResponse struct {
	TotalArticles int                  `json:"totalArticles"`
	Articles      []models.NewsArticle `json:"articles"`
}

const (
	gnewsAPIEndpoint = "https://gnews.io/api/v4"
	gnewsQuery       = "India government finance scheme rural budget panchayat"
)

// NewGNews creates a GNews client. An empty endpoint selects the public gnews.io API.
func NewGNews(apiKey, endpoint string, logger *slog.Logger) GNews {
	if endpoint == "" {
		endpoint = gnewsAPIEndpoint
	}
	return GNews{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With(slog.String("module", "gnews")),
	}
}

// Articles runs the search and returns at most ten English articles about India.
func (g GNews) Articles(ctx context.Context) ([]models.NewsArticle, error) {
	q := url.Values{}
	q.Set("q", gnewsQuery)
	q.Set("lang", "en")
	q.Set("country", "in")
	q.Set("max", "10")
	q.Set("apikey", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var res gnewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	g.logger.Debug("Fetched news", slog.Int("articles", len(res.Articles)))

	return res.Articles, nil
}
