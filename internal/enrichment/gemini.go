package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
	"gitlab.com/timkado/api/daisi-crm-insights/pkg/logger"
)

const maxResponseBodySize = 2 << 20 // 2MB

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerMinute int // 0 disables the local limiter
	Burst             int
	MaxRetries        int
	HTTPClient        *http.Client
}

// GeminiClient calls the generateContent endpoint of the Generative Language API.
type GeminiClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient creates a client for the configured model. The API key is
// sent as a request header and never appears in URLs.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", apperrors.ErrBadRequest)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: gemini base url is empty", apperrors.ErrBadRequest)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: gemini model is empty", apperrors.ErrBadRequest)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Deadlines come from the caller context.
		httpClient = &http.Client{Timeout: 0}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}

	return &GeminiClient{
		apiKey:     cfg.APIKey,
		endpoint:   fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(cfg.BaseURL, "/"), cfg.Model),
		httpClient: httpClient,
		limiter:    limiter,
		maxRetries: max(cfg.MaxRetries, 0),
	}, nil
}

// GenerateText sends prompt as a single-part request and returns the text of
// the first candidate. Transient failures are retried until ctx expires.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return "", fmt.Errorf("%w: %w: local quota exhausted", apperrors.ErrEnrichmentUnavailable, apperrors.ErrRateLimited)
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %w", apperrors.ErrEnrichmentUnavailable, err)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 200 * time.Millisecond
	expBackoff.MaxInterval = 2 * time.Second
	expBackoff.MaxElapsedTime = 0 // Bounded by retries and the context
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(c.maxRetries)), ctx)

	notify := func(err error, d time.Duration) {
		logger.FromContext(ctx).Debug("Retrying text generation",
			zap.Error(err),
			zap.Duration("backoff", d),
		)
	}

	text, err := backoff.RetryNotifyWithData(func() (string, error) {
		return c.doRequest(ctx, body)
	}, policy, notify)
	if err != nil {
		// A cancelled policy surfaces the bare context error.
		if !apperrors.IsEnrichmentError(err) {
			err = fmt.Errorf("%w: %w", apperrors.ErrEnrichmentUnavailable, err)
		}
		return "", err
	}
	return text, nil
}

func (c *GeminiClient) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: creating request: %w", apperrors.ErrEnrichmentUnavailable, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", apperrors.ErrEnrichmentUnavailable, err)
		if ctx.Err() != nil {
			return "", backoff.Permanent(wrapped)
		}
		return "", wrapped
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", apperrors.ErrEnrichmentUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("%w: status %d: %s", apperrors.ErrEnrichmentRejected, resp.StatusCode, truncate(string(raw), 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", statusErr
		}
		return "", backoff.Permanent(statusErr)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", backoff.Permanent(fmt.Errorf("%w: decoding response: %w", apperrors.ErrEnrichmentInvalidResponse, err))
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", backoff.Permanent(fmt.Errorf("%w: no candidates", apperrors.ErrEnrichmentInvalidResponse))
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", backoff.Permanent(fmt.Errorf("%w: empty candidate text", apperrors.ErrEnrichmentInvalidResponse))
	}
	return text, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
