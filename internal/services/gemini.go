package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/prompts"
	"github.com/desertthunder/maestro/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiService implements [Curator] against the Gemini generateContent endpoint.
//
// Calls are throttled by a token bucket and never retried.
type GeminiService struct {
	api     *APIService
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// Option configures a [GeminiService].
type Option func(*GeminiService)

// WithAPIKey sets the API key sent with every request.
func WithAPIKey(key string) Option {
	return func(g *GeminiService) { g.apiKey = strings.TrimSpace(key) }
}

// WithModel selects the model, e.g. "gemini-2.0-flash".
func WithModel(model string) Option {
	return func(g *GeminiService) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(base string) Option {
	return func(g *GeminiService) {
		if base != "" {
			g.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GeminiService) { g.client = client }
}

// WithRequestsPerMinute throttles outgoing calls. Zero or negative disables throttling.
func WithRequestsPerMinute(rpm float64) Option {
	return func(g *GeminiService) {
		if rpm <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(rpm/60), 1)
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(g *GeminiService) { g.logger = logger }
}

// NewGeminiService creates a Gemini client. Without options it targets the public API with
// no key, so every call fails with [shared.ErrConfiguration].
func NewGeminiService(opts ...Option) *GeminiService {
	g := &GeminiService{
		model:   defaultGeminiModel,
		baseURL: defaultGeminiBaseURL,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = shared.NewLogger(nil)
	}
	g.api = NewAPIService(g.baseURL, g.client)
	if g.apiKey != "" {
		g.api.SetHeader("x-goog-api-key", g.apiKey)
	}
	return g
}

// NewGeminiServiceFromConfig builds a client from the [credentials.gemini] config section.
// opts are applied after the config values.
func NewGeminiServiceFromConfig(cfg shared.GeminiConfig, logger *log.Logger, opts ...Option) *GeminiService {
	base := []Option{
		WithAPIKey(cfg.APIKey),
		WithModel(cfg.Model),
		WithBaseURL(cfg.BaseURL),
		WithRequestsPerMinute(cfg.RequestsPerMinute),
		WithLogger(logger),
	}
	return NewGeminiService(append(base, opts...)...)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   prompts.Schema `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends p and returns the text of the first candidate.
//
// When p carries a schema the request asks for application/json output.
func (g *GeminiService) Generate(ctx context.Context, p prompts.Prompt) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: Gemini API key is not configured (set GEMINI_API_KEY or credentials.gemini.api_key)", shared.ErrConfiguration)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	reqBody := generateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: p.Text}}}},
	}
	if p.Schema != nil {
		reqBody.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   p.Schema,
		}
	}

	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(g.model))
	g.logger.Debug("gemini request", "model", g.model, "structured", p.Schema != nil)

	resp, err := g.api.PostJSON(ctx, path, reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrUpstream, err)
	}
	if err := resp.Err(); err != nil {
		return "", err
	}

	var out generateResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: response contained no candidates", shared.ErrUpstream)
	}

	text := out.Candidates[0].Content.Parts[0].Text
	g.logger.Debug("gemini response", "status", resp.StatusCode, "chars", len(text))
	return text, nil
}

// SongIdeas decodes {suggestions: [...]}.
func (g *GeminiService) SongIdeas(ctx context.Context, p prompts.Prompt) ([]models.RawSuggestion, error) {
	var out struct {
		Suggestions []models.RawSuggestion `json:"suggestions"`
	}
	if err := g.generateJSON(ctx, p, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// Titles decodes {titles: [...]}.
func (g *GeminiService) Titles(ctx context.Context, p prompts.Prompt) ([]string, error) {
	var out struct {
		Titles []string `json:"titles"`
	}
	if err := g.generateJSON(ctx, p, &out); err != nil {
		return nil, err
	}
	return nonEmpty(out.Titles), nil
}

// LinerNotes returns the free-text answer, trimmed.
func (g *GeminiService) LinerNotes(ctx context.Context, p prompts.Prompt) (string, error) {
	text, err := g.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty liner notes", shared.ErrUpstream)
	}
	return text, nil
}

// FutureIdeas decodes {future_ideas: [...]}.
func (g *GeminiService) FutureIdeas(ctx context.Context, p prompts.Prompt) ([]string, error) {
	var out struct {
		FutureIdeas []string `json:"future_ideas"`
	}
	if err := g.generateJSON(ctx, p, &out); err != nil {
		return nil, err
	}
	return nonEmpty(out.FutureIdeas), nil
}

func (g *GeminiService) generateJSON(ctx context.Context, p prompts.Prompt, v any) error {
	text, err := g.Generate(ctx, p)
	if err != nil {
		return err
	}
	return decodeStructured(text, v)
}

// decodeStructured parses a JSON answer, tolerating a surrounding markdown code fence.
// Numbers are kept as [json.Number] so untyped fields can be validated later.
func decodeStructured(text string, v any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: response did not match the expected schema: %v", shared.ErrUpstream, err)
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
