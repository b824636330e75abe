package completion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/harborcx/agentdesk-backend/internal/config"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func testConfig() config.Completion {
	return config.Completion{
		Endpoint:   "https://example.openai.azure.com",
		Deployment: "gpt-4o",
		APIKey:     "test-key",
		APIVersion: "2024-02-15-preview",
		Timeout:    2 * time.Second,
		MaxTokens:  800,
	}
}

func noBackoff() RetryPolicy {
	p := DefaultRetry()
	p.Backoff = func(int) time.Duration { return 0 }
	return p
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func chatReply(content string) string {
	return `{"choices": [{"message": {"content": ` + mustQuote(content) + `}}]}`
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestComplete_UnconfiguredBackendReportsAbsence(t *testing.T) {
	client := NewClient(testLogger(t), config.Completion{})
	res := client.Complete(context.Background(), "hello", Options{Retry: DefaultRetry()})
	if res.OK {
		t.Fatalf("unconfigured backend must never report OK")
	}
}

func TestComplete_SuccessFirstAttempt(t *testing.T) {
	var calls int
	transport := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if got := r.Header.Get("api-key"); got != "test-key" {
			t.Fatalf("missing api-key header, got %q", got)
		}
		if !strings.Contains(r.URL.Path, "/openai/deployments/gpt-4o/chat/completions") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		return jsonResponse(200, chatReply("hi there")), nil
	})
	client := NewClientWithHTTPClient(testLogger(t), testConfig(), &http.Client{Transport: transport})

	res := client.Complete(context.Background(), "hello", Options{Retry: noBackoff()})
	if !res.OK || res.Text != "hi there" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestComplete_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls int
	transport := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return jsonResponse(500, `{"error": "boom"}`), nil
		}
		return jsonResponse(200, chatReply("recovered")), nil
	})
	client := NewClientWithHTTPClient(testLogger(t), testConfig(), &http.Client{Transport: transport})

	policy := noBackoff()
	policy.MaxAttempts = 3
	res := client.Complete(context.Background(), "hello", Options{Retry: policy})
	if !res.OK || res.Text != "recovered" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestComplete_FatalClientErrorStopsImmediately(t *testing.T) {
	var calls int
	transport := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(400, `{"error": "bad request"}`), nil
	})
	client := NewClientWithHTTPClient(testLogger(t), testConfig(), &http.Client{Transport: transport})

	policy := noBackoff()
	policy.MaxAttempts = 3
	res := client.Complete(context.Background(), "hello", Options{Retry: policy})
	if res.OK {
		t.Fatalf("400 must not produce a result")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestComplete_ExhaustedRetriesReportAbsence(t *testing.T) {
	var calls int
	transport := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(503, "overloaded"), nil
	})
	client := NewClientWithHTTPClient(testLogger(t), testConfig(), &http.Client{Transport: transport})

	res := client.Complete(context.Background(), "hello", Options{Retry: noBackoff()})
	if res.OK {
		t.Fatalf("exhausted retries must report absence")
	}
	if calls != 2 {
		t.Fatalf("default policy is 2 attempts, got %d", calls)
	}
}

func TestComplete_EmptyReplyIsRetried(t *testing.T) {
	var calls int
	transport := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(200, `{"choices": []}`), nil
		}
		return jsonResponse(200, chatReply("second try")), nil
	})
	client := NewClientWithHTTPClient(testLogger(t), testConfig(), &http.Client{Transport: transport})

	res := client.Complete(context.Background(), "hello", Options{Retry: noBackoff()})
	if !res.OK || res.Text != "second try" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestComplete_ForceJSONSetsResponseFormat(t *testing.T) {
	transport := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("body not JSON: %v", err)
		}
		rf, ok := body["response_format"].(map[string]any)
		if !ok || rf["type"] != "json_object" {
			t.Fatalf("expected response_format json_object, got %#v", body["response_format"])
		}
		return jsonResponse(200, chatReply(`{"ok": true}`)), nil
	})
	client := NewClientWithHTTPClient(testLogger(t), testConfig(), &http.Client{Transport: transport})

	res := client.Complete(context.Background(), "hello", Options{ForceJSON: true, Retry: noBackoff()})
	if !res.OK {
		t.Fatalf("unexpected absence")
	}
}
