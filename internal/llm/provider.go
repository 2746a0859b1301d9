// Package llm wraps two interchangeable model providers behind one call
// interface with a fixed retry and failover ladder.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Request is one generation request to a provider.
type Request struct {
	Prompt            string
	SystemInstruction string
	Temperature       float64
	MaxTokens         int
}

// Response is the text output of a provider call.
type Response struct {
	Content  string
	Thinking string
	Usage    Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is a single model backend.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, req Request) (*Response, error)
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
}

// AuthError means the provider rejected our credentials. It is still worth
// trying the next ladder rung, which may use a different provider.
type AuthError struct {
	Provider string
	Detail   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: invalid credentials: %s", e.Provider, e.Detail)
}

// RateLimitError means the provider returned HTTP 429.
type RateLimitError struct {
	Provider string
	Detail   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Provider, e.Detail)
}

// TimeoutError means the request did not complete within the call timeout.
type TimeoutError struct {
	Provider string
	Detail   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out: %s", e.Provider, e.Detail)
}

// ParseError means the model's output could not be decoded as JSON even
// after code-fence extraction. Raw carries a truncated copy of the output.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable JSON response: %.120s", e.Raw)
}
