// Package presidio implements a recognizer backed by a Presidio analyzer
// service reached over HTTP. Calls go through a circuit breaker so a failing
// sidecar is skipped quickly instead of adding its timeout to every scan.
package presidio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/redactyl/promptscan/internal/recognizer"
)

const (
	DefaultTimeout        = 5 * time.Second
	DefaultLanguage       = "en"
	defaultHealthInterval = 500 * time.Millisecond
	defaultHealthAttempts = 20
)

// Config configures the client. Zero values select the defaults.
type Config struct {
	URL      string
	Timeout  time.Duration
	Language string

	HealthInterval time.Duration
	HealthAttempts int

	// Breaker trips after this many consecutive failures and stays open for OpenTimeout.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// Client calls the analyzer's /analyze and /health endpoints.
type Client struct {
	base     string
	language string
	interval time.Duration
	attempts int
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      *zap.Logger
}

// New returns a client for the analyzer at cfg.URL.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}
	if cfg.HealthAttempts <= 0 {
		cfg.HealthAttempts = defaultHealthAttempts
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	c := &Client{
		base:     strings.TrimRight(cfg.URL, "/"),
		language: cfg.Language,
		interval: cfg.HealthInterval,
		attempts: cfg.HealthAttempts,
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      logger,
	}
	threshold := cfg.ConsecutiveFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "presidio",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("recognizer circuit state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return c
}

// Name implements recognizer.Recognizer.
func (c *Client) Name() string { return "presidio" }

// Init polls /health until the analyzer answers 200, the attempts run out,
// or ctx is done.
func (c *Client) Init(ctx context.Context) error {
	var last error
	for i := 0; i < c.attempts; i++ {
		if last = c.health(ctx); last == nil {
			return nil
		}
		c.log.Debug("presidio not healthy yet", zap.Int("attempt", i+1), zap.Error(last))
		if i == c.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.interval):
		}
	}
	return fmt.Errorf("presidio: health check failed after %d attempts: %w", c.attempts, last)
}

func (c *Client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

type analyzeRequest struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Entities []string `json:"entities,omitempty"`
}

type analyzeResult struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
}

// Recognize implements recognizer.Recognizer. The analyzer reports offsets in
// code points; they are converted to byte offsets here.
func (c *Client) Recognize(ctx context.Context, text string, entities []string) ([]recognizer.Entity, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.analyze(ctx, text, entities)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("presidio unavailable (circuit %s): %w", c.breaker.State(), err)
		}
		return nil, err
	}
	results := out.([]analyzeResult)

	offsets := runeOffsets(text)
	ents := make([]recognizer.Entity, 0, len(results))
	for _, r := range results {
		if r.Start < 0 || r.End >= len(offsets) || r.Start >= r.End {
			continue
		}
		start, end := offsets[r.Start], offsets[r.End]
		ents = append(ents, recognizer.Entity{
			Type:  r.EntityType,
			Start: start,
			End:   end,
			Score: r.Score,
			Text:  text[start:end],
		})
	}
	return ents, nil
}

func (c *Client) analyze(ctx context.Context, text string, entities []string) ([]analyzeResult, error) {
	body, err := json.Marshal(analyzeRequest{Text: text, Language: c.language, Entities: entities})
	if err != nil {
		return nil, fmt.Errorf("presidio: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("presidio: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("presidio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("presidio: unexpected status %d", resp.StatusCode)
	}
	var results []analyzeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("presidio: decode: %w", err)
	}
	return results, nil
}

// runeOffsets maps code point index i to its byte offset; the final entry is len(text).
func runeOffsets(text string) []int {
	offs := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offs = append(offs, i)
	}
	return append(offs, len(text))
}

var _ recognizer.Recognizer = (*Client)(nil)
