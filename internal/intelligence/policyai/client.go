package policyai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
)

// ClientConfig holds the HTTP analyzer client parameters.
type ClientConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// HTTPClient is the HTTP-backed Analyzer implementation.  It posts the
// rendered prompt to the provider's completion endpoint and decodes the JSON
// analysis from the response body.
type HTTPClient struct {
	cfg    ClientConfig
	http   *http.Client
	logger logging.Logger
}

// completionRequest is the provider wire format.
type completionRequest struct {
	Model          string  `json:"model"`
	Prompt         string  `json:"prompt"`
	Temperature    float64 `json:"temperature"`
	ResponseFormat string  `json:"response_format"`
}

// completionResponse is the provider wire format; Analysis carries the
// decoded document analysis and Usage the token telemetry.
type completionResponse struct {
	Analysis AnalyzeResponse `json:"analysis"`
	Model    string          `json:"model"`
	Usage    struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// NewHTTPClient constructs an analyzer client.  Timeout defaults to 60s and
// applies per attempt; the per-request context deadline still wins when
// shorter.
func NewHTTPClient(cfg ClientConfig, logger logging.Logger) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.InvalidParam("analyzer base_url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("policyai"),
	}, nil
}

// Analyze implements Analyzer.  Transient failures (5xx, transport errors)
// are retried up to MaxRetries with linear backoff; context expiry maps to
// ErrCodeProviderTimeout and is never retried.
func (c *HTTPClient) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(completionRequest{
		Model:          c.cfg.Model,
		Prompt:         prompt,
		Temperature:    0.1,
		ResponseFormat: "json",
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode analyzer request")
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeProviderTimeout, "analyzer call cancelled")
			case <-time.After(time.Duration(attempt) * c.cfg.RetryBackoff):
			}
		}

		resp, err := c.doOnce(ctx, body)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrCodeProviderTimeout, "analyzer call timed out")
		}
		if !errors.IsCode(err, errors.ErrCodeProviderError) {
			// Validation and client-side failures do not improve on retry.
			return nil, err
		}
		lastErr = err
		c.logger.Warn("analyzer attempt failed",
			logging.Int("attempt", attempt+1),
			logging.Err(err),
		)
	}
	return nil, lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, body []byte) (*AnalyzeResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build analyzer request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderError, "analyzer request failed")
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderError, "failed to read analyzer response")
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeProviderError, "analyzer returned status %d", httpResp.StatusCode).
			WithDetail(string(raw[:min(len(raw), 512)]))
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderValidation, "analyzer response is not valid JSON")
	}
	if err := cr.Analysis.Validate(); err != nil {
		return nil, err
	}

	out := cr.Analysis
	if out.ModelVersion == "" {
		out.ModelVersion = cr.Model
	}
	if out.TokensUsed == 0 {
		out.TokensUsed = cr.Usage.TotalTokens
	}
	c.logger.Debug("analyzer call succeeded",
		logging.Duration("latency", time.Since(start)),
		logging.Int("tokens", out.TokensUsed),
		logging.Int("clauses", len(out.DetectedClauses)),
	)
	return &out, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
