package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/grambudget/grambudget/internal/models"
	"google.golang.org/genai"
)

// Gemini implements the LLM interface on top of Google's Gemini API.
type Gemini struct {
	model        string
	systemPrompt string

	params LLMParameters

	client *genai.Client

	logger *slog.Logger
}

// NewGemini creates a Gemini client for the given API key and model.
func NewGemini(ctx context.Context, apiKey, model, systemPrompt string, params LLMParameters, logger *slog.Logger) (Gemini, error) {
	if apiKey == "" {
		return Gemini{}, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return Gemini{}, fmt.Errorf("failed to create genai client: %w", err)
	}

	return Gemini{
		model:        model,
		systemPrompt: systemPrompt,
		params:       params,
		client:       client,
		logger:       logger.With(slog.String("module", "gemini")),
	}, nil
}

func geminiContents(messages []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		text := msg.Text()
		if text == "" {
			continue
		}
		var role genai.Role = genai.RoleUser
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}
	return contents
}

// Chat streams a Gemini completion for the conversation. The system prompt travels as the request's
// system instruction.
func (g Gemini) Chat(ctx context.Context, messages []models.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(g.systemPrompt, genai.RoleUser),
			Temperature:       g.params.Temperature,
			TopP:              g.params.TopP,
			StopSequences:     g.params.Stop,
		}
		if g.params.MaxTokens != nil {
			cfg.MaxOutputTokens = int32(*g.params.MaxTokens)
		}

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, geminiContents(messages), cfg) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
