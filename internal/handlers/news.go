package handlers

import (
	"log/slog"
	"net/http"

	"github.com/grambudget/grambudget/internal/models"
)

type newsResponse struct {
	Articles []models.NewsArticle `json:"articles"`
}

// HandleNews serves the dashboard news feed as {"articles": [...]}.
func (m Main) HandleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		m.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if m.news == nil {
		m.writeError(w, http.StatusNotFound, "news feed is not configured")
		return
	}

	articles, err := m.news.Articles(r.Context())
	if err != nil {
		m.logger.Error("Failed to get news", slog.String(errLoggerKey, err.Error()))
		m.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if articles == nil {
		articles = []models.NewsArticle{}
	}

	w.Header().Set("Cache-Control", "public, max-age=600")
	if err := writeJSON(w, http.StatusOK, newsResponse{Articles: articles}); err != nil {
		m.logger.Debug("Failed to write news response", slog.String(errLoggerKey, err.Error()))
	}
}
