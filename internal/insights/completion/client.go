// Package completion issues single calls to the hosted chat-completion
// backend under a timeout and a bounded retry policy. Absence of a usable
// reply is a value, never an error: callers receive {Text, OK}.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/harborcx/agentdesk-backend/internal/config"
	"github.com/harborcx/agentdesk-backend/internal/observability"
	"github.com/harborcx/agentdesk-backend/internal/pkg/httpx"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

// Result is the outcome of one Complete call. OK is false when the backend is
// unconfigured, every attempt failed, or a fatal failure was hit.
type Result struct {
	Text string
	OK   bool
}

// RetryPolicy bounds the attempts of one call.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retriable   func(err error) bool
}

// DefaultRetry is the reference policy: two attempts, linear 400ms backoff.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Backoff: LinearBackoff, Retriable: httpx.IsRetryableError}
}

// ReinforcedRetry is the larger budget used for the second JSON-only pass.
func ReinforcedRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, Backoff: LinearBackoff, Retriable: httpx.IsRetryableError}
}

func LinearBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * 400 * time.Millisecond
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = LinearBackoff
	}
	if p.Retriable == nil {
		p.Retriable = httpx.IsRetryableError
	}
	return p
}

// Options configures one Complete call.
type Options struct {
	Temperature float64
	ForceJSON   bool
	Retry       RetryPolicy
}

type Client struct {
	log        *logger.Logger
	cfg        config.Completion
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg config.Completion) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	cfg.Timeout = timeout
	c := &Client{
		log: log.With("service", "CompletionClient"),
		cfg: cfg,
		// Connections are reused across all concurrent widget calls; each
		// call is logically independent.
		httpClient: &http.Client{},
	}
	if !cfg.Configured() {
		c.log.Warn("completion backend not configured; all calls will report no response")
	}
	return c
}

// NewClientWithHTTPClient avoids network access in tests via a custom
// RoundTripper.
func NewClientWithHTTPClient(log *logger.Logger, cfg config.Completion, httpClient *http.Client) *Client {
	c := NewClient(log, cfg)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

const (
	systemInstruction     = "You are an assistant embedded in a contact-center agent desktop. Be concise and factual."
	systemInstructionJSON = "You are an assistant embedded in a contact-center agent desktop. Respond with valid JSON only: no markdown, no code fences, no commentary."
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs one backend call under the retry policy. It never returns
// an error; an unusable backend yields Result{OK: false}.
func (c *Client) Complete(ctx context.Context, promptText string, opts Options) Result {
	if !c.cfg.Configured() {
		return Result{}
	}

	policy := opts.Retry.normalized()
	body := c.buildRequest(promptText, opts)

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		start := time.Now()
		text, resp, err := c.doOnce(ctx, body)
		dur := time.Since(start)

		status := statusLabel(resp, err)
		c.log.Debug("completion attempt",
			"attempt", attempt,
			"duration", dur.String(),
			"status", status,
			"json_mode", opts.ForceJSON,
		)
		observability.Current().ObserveCompletion(status, opts.ForceJSON, dur)

		if err == nil {
			return Result{Text: text, OK: true}
		}
		if !policy.Retriable(err) && !isEmptyCompletion(err) {
			c.log.Warn("completion failed with fatal error", "attempt", attempt, "error", err)
			return Result{}
		}
		if attempt == policy.MaxAttempts {
			c.log.Warn("completion retries exhausted", "attempts", attempt, "error", err)
			return Result{}
		}

		sleepFor := httpx.RetryAfterDuration(resp, policy.Backoff(attempt), 10*time.Second)
		select {
		case <-ctx.Done():
			return Result{}
		case <-time.After(httpx.JitterSleep(sleepFor)):
		}
	}

	return Result{}
}

func (c *Client) buildRequest(promptText string, opts Options) chatRequest {
	system := systemInstruction
	req := chatRequest{
		Temperature: opts.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if opts.ForceJSON {
		system = systemInstructionJSON
		req.ResponseFormat = map[string]any{"type": "json_object"}
	}
	req.Messages = []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: promptText},
	}
	return req
}

var errEmptyCompletion = errors.New("empty completion")

// errEmptyCompletion is retriable: the backend answered but said nothing.
func isEmptyCompletion(err error) bool { return errors.Is(err, errEmptyCompletion) }

func (c *Client) doOnce(ctx context.Context, body chatRequest) (string, *http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.completionURL(), &buf)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return "", resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp, &httpx.Error{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", resp, err
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", resp, errEmptyCompletion
	}
	return parsed.Choices[0].Message.Content, resp, nil
}

func (c *Client) completionURL() string {
	apiVersion := c.cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-02-15-preview"
	}
	base := strings.TrimRight(c.cfg.Endpoint, "/")
	return base + "/openai/deployments/" + url.PathEscape(c.cfg.Deployment) +
		"/chat/completions?api-version=" + url.QueryEscape(apiVersion)
}

func statusLabel(resp *http.Response, err error) string {
	if err == nil && resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	var httpErr *httpx.Error
	if errors.As(err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode)
	}
	if isEmptyCompletion(err) {
		return "empty"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}
