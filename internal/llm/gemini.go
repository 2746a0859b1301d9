package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiProvider talks to the Gemini generateContent API.
type GeminiProvider struct {
	apiKey string
	model  string
	apiURL string
	client *http.Client
}

func NewGeminiProvider(apiKey, model, baseURL string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	if model == "" {
		model = "gemini-2.5-pro"
	}
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultGeminiBaseURL
	}
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
		apiURL: fmt.Sprintf("%s/%s:generateContent", base, model),
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

type geminiPart struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (g *GeminiProvider) GenerateText(ctx context.Context, req Request) (*Response, error) {
	return g.generate(ctx, req, "")
}

func (g *GeminiProvider) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := g.generate(ctx, req, "application/json")
	if err != nil {
		return nil, err
	}
	return DecodeJSON(resp.Content)
}

func (g *GeminiProvider) generate(ctx context.Context, req Request, mimeType string) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      req.Temperature,
			MaxOutputTokens:  maxTokens,
			ResponseMimeType: mimeType,
		},
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Provider: "gemini", Detail: err.Error()}
		}
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := readErrorBody(resp.Body)
		switch {
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden:
			return nil, &AuthError{Provider: "gemini", Detail: detail}
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &RateLimitError{Provider: "gemini", Detail: detail}
		default:
			return nil, fmt.Errorf("gemini API %d: %s", resp.StatusCode, detail)
		}
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	var content, thinking strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		if part.Thought {
			thinking.WriteString(part.Text)
		} else {
			content.WriteString(part.Text)
		}
	}

	usage := Usage{
		PromptTokens:     gr.UsageMetadata.PromptTokenCount,
		CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      gr.UsageMetadata.TotalTokenCount,
	}
	if usage.TotalTokens > 0 {
		log.Printf("[llm] gemini usage: prompt=%d completion=%d total=%d",
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}

	return &Response{Content: content.String(), Thinking: thinking.String(), Usage: usage}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 1024))
	return string(b)
}
