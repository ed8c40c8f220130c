package models

import "time"

// NewsArticle is a single headline shown in the dashboard news feed. The shape follows the gnews.io
// search response so upstream articles can be passed through without conversion.
type NewsArticle struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Image       *string    `json:"image"`
	PublishedAt time.Time  `json:"publishedAt"`
	Source      NewsSource `json:"source"`
}

// NewsSource identifies the publisher of a NewsArticle.
type NewsSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
