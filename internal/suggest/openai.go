// Package suggest classifies artefact text against clause labels using an
// OpenAI-compatible chat completion endpoint.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/domain"
)

const (
	defaultModel      = "gpt-4o-mini"
	defaultMaxRetries = 3
	maxContentRunes   = 12000
)

// ChatCompletions is the subset of the OpenAI client used here.
type ChatCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
}

// Candidate is one label the oracle may choose, with a human-readable hint.
type Candidate struct {
	Label string `json:"label"`
	Title string `json:"title"`
}

type Oracle struct {
	completions ChatCompletions
	model       string
	maxRetries  int
	backoff     func(attempt int) time.Duration
}

func New(cfg Config) (*Oracle, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("suggest: api key required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return NewWithCompletions(&client.Chat.Completions, cfg.Model, cfg.MaxRetries), nil
}

// NewWithCompletions builds an Oracle over an existing completions client.
func NewWithCompletions(c ChatCompletions, model string, maxRetries int) *Oracle {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &Oracle{
		completions: c,
		model:       model,
		maxRetries:  maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * 200 * time.Millisecond
		},
	}
}

const systemPrompt = `You map compliance documents to ISO management system clauses.
Answer with JSON only, shaped as {"suggestions":[{"label":"<one of the given labels>","confidence":<0..1>,"rationale":"<one sentence>"}]}.
Return at most five suggestions, most relevant first. Use only labels from the candidate list.`

// Classify returns the oracle's suggestions for text, highest confidence
// first. Entries with a label outside candidates or a confidence outside
// [0,1] are discarded.
func (o *Oracle) Classify(ctx context.Context, text string, candidates []Candidate) ([]domain.Classification, error) {
	if len(candidates) == 0 {
		return []domain.Classification{}, nil
	}

	var catalog strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&catalog, "- %s: %s\n", c.Label, c.Title)
	}
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Candidate labels:\n" + catalog.String() + "\nDocument:\n" + truncate(text, maxContentRunes)),
		},
		Temperature: openai.Float(0),
	}

	var content string
	err := o.withRetry(ctx, func(ctx context.Context) error {
		completion, err := o.completions.New(ctx, params)
		if err != nil {
			return err
		}
		if completion == nil || len(completion.Choices) == 0 {
			return errors.New("empty completion")
		}
		content = completion.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("suggest.Classify: %w", err)
	}

	out, err := parse(content, candidates)
	if err != nil {
		return nil, fmt.Errorf("suggest.Classify: %w", err)
	}
	return out, nil
}

type answer struct {
	Suggestions []domain.Classification `json:"suggestions"`
}

func parse(content string, candidates []Candidate) ([]domain.Classification, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var a answer
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &a); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.Label] = true
	}
	out := make([]domain.Classification, 0, len(a.Suggestions))
	for _, s := range a.Suggestions {
		s.Label = strings.TrimSpace(s.Label)
		if !known[s.Label] || s.Confidence < 0 || s.Confidence > 1 {
			log.Debug().Str("label", s.Label).Float64("confidence", s.Confidence).Msg("suggest.parse: dropped suggestion")
			continue
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(x, y domain.Classification) int {
		switch {
		case x.Confidence > y.Confidence:
			return -1
		case x.Confidence < y.Confidence:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

func (o *Oracle) withRetry(ctx context.Context, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) || attempt >= o.maxRetries {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("suggest.Classify: retrying completion")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.backoff(attempt + 1)):
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
