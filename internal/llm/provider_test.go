package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func geminiServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "" {
			t.Error("missing key query parameter")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestGeminiGenerateText(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{
		"candidates": [{"content": {"parts": [
			{"text": "thinking about it", "thought": true},
			{"text": "hello "},
			{"text": "world"}
		]}}],
		"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15}
	}`)
	defer srv.Close()

	p, err := NewGeminiProvider("test-key", "gemini-2.5-pro", srv.URL)
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	resp, err := p.GenerateText(context.Background(), Request{Prompt: "hi", Temperature: 0.7})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if resp.Content != "hello world" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Thinking != "thinking about it" {
		t.Errorf("thinking = %q", resp.Thinking)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}

func TestGeminiGenerateJSONRecoversFence(t *testing.T) {
	srv := geminiServer(t, http.StatusOK,
		"{\"candidates\": [{\"content\": {\"parts\": [{\"text\": \"```json\\n{\\\"items\\\": []}\\n```\"}]}}]}")
	defer srv.Close()

	p, err := NewGeminiProvider("test-key", "", srv.URL)
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	raw, err := p.GenerateJSON(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if string(raw) != `{"items": []}` {
		t.Errorf("raw = %q", raw)
	}
}

func TestGeminiErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{http.StatusForbidden, func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{http.StatusTooManyRequests, func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
	}
	for _, tc := range cases {
		srv := geminiServer(t, tc.status, `{"error": "nope"}`)
		p, err := NewGeminiProvider("test-key", "", srv.URL)
		if err != nil {
			t.Fatalf("NewGeminiProvider: %v", err)
		}
		_, err = p.GenerateText(context.Background(), Request{Prompt: "hi"})
		if err == nil || !tc.check(err) {
			t.Errorf("status %d: unexpected error %v", tc.status, err)
		}
		srv.Close()
	}
}

func TestOpenAIGenerateJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
			t.Error("response_format not requested")
		}
		if req.Messages[0].Role != "system" {
			t.Errorf("first message role = %q", req.Messages[0].Role)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "{\"ok\": true}"}}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", "gpt-4o", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	raw, err := p.GenerateJSON(context.Background(), Request{
		Prompt:            "hi",
		SystemInstruction: "be terse",
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if string(raw) != `{"ok": true}` {
		t.Errorf("raw = %q", raw)
	}
}

func TestOpenAIRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("test-key", "", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	_, err = p.GenerateText(context.Background(), Request{Prompt: "hi"})
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("want *RateLimitError, got %v", err)
	}
}

func TestProviderRequiresAPIKey(t *testing.T) {
	if _, err := NewGeminiProvider("", "", ""); err == nil {
		t.Error("gemini: want error for empty key")
	}
	if _, err := NewOpenAIProvider("", "", ""); err == nil {
		t.Error("openai: want error for empty key")
	}
}
