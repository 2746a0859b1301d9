package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider talks to the chat completions API. A custom base URL makes
// it work with OpenAI-compatible backends (Kimi, DeepSeek, ...).
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key not set")
	}
	if model == "" {
		model = "gpt-4o"
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []openaiMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (o *OpenAIProvider) GenerateText(ctx context.Context, req Request) (*Response, error) {
	return o.generate(ctx, req, nil)
}

func (o *OpenAIProvider) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := o.generate(ctx, req, &openaiResponseFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}
	return DecodeJSON(resp.Content)
}

func (o *OpenAIProvider) generate(ctx context.Context, req Request, format *openaiResponseFormat) (*Response, error) {
	var messages []openaiMessage
	if req.SystemInstruction != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemInstruction})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(openaiRequest{
		Model:          o.model,
		Messages:       messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: format,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Provider: "openai", Detail: err.Error()}
		}
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readErrorBody(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, &AuthError{Provider: "openai", Detail: detail}
		case http.StatusTooManyRequests:
			return nil, &RateLimitError{Provider: "openai", Detail: detail}
		default:
			return nil, fmt.Errorf("openai API %d: %s", resp.StatusCode, detail)
		}
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("decoding openai response: %w", err)
	}
	if len(or.Choices) == 0 {
		return nil, fmt.Errorf("empty openai response")
	}

	return &Response{
		Content: or.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     or.Usage.PromptTokens,
			CompletionTokens: or.Usage.CompletionTokens,
			TotalTokens:      or.Usage.TotalTokens,
		},
	}, nil
}
