package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrAllAttemptsFailed is returned when every rung of the retry ladder has
// been exhausted without a usable response.
var ErrAllAttemptsFailed = errors.New("all LLM attempts failed")

const retryBackoff = 2 * time.Second

// Kind selects the response decoding mode for a call.
type Kind int

const (
	KindJSON Kind = iota
	KindText
)

// CallRequest is a single orchestrated request. Context is a short tag
// ("filter", "summary", "translate") used only for logging.
type CallRequest struct {
	Prompt            string
	SystemInstruction string
	Kind              Kind
	Temperature       float64
	MaxTokens         int
	Context           string
}

type CallResult struct {
	JSON     json.RawMessage
	Text     string
	Provider string
}

type attempt struct {
	provider    Provider
	temperature float64
	desc        string
}

// Orchestrator runs requests through a fixed retry ladder: the primary
// provider at the requested temperature, the primary again slightly colder,
// then the fallback provider (when configured) through the same two rungs.
type Orchestrator struct {
	registry *Registry
	backoff  time.Duration
}

func NewOrchestrator(registry *Registry) *Orchestrator {
	return &Orchestrator{registry: registry, backoff: retryBackoff}
}

func (o *Orchestrator) ladder(temperature float64) []attempt {
	primary := o.registry.Primary()
	attempts := []attempt{
		{primary, temperature, fmt.Sprintf("primary (%s)", primary.Name())},
		{primary, lowerTemp(temperature), fmt.Sprintf("primary (%s) retry", primary.Name())},
	}
	if fb := o.registry.Fallback(); fb != nil {
		attempts = append(attempts,
			attempt{fb, temperature, fmt.Sprintf("fallback (%s)", fb.Name())},
			attempt{fb, lowerTemp(temperature), fmt.Sprintf("fallback (%s) retry", fb.Name())},
		)
	}
	return attempts
}

func lowerTemp(t float64) float64 {
	if t-0.2 < 0.3 {
		return 0.3
	}
	return t - 0.2
}

// Call runs the ladder until one attempt succeeds. Attempts fail
// independently; a parse failure on one rung does not poison the next.
func (o *Orchestrator) Call(ctx context.Context, req CallRequest) (*CallResult, error) {
	attempts := o.ladder(req.Temperature)
	for i, a := range attempts {
		if i > 0 && o.backoff > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.backoff):
			}
		}

		pr := Request{
			Prompt:            req.Prompt,
			SystemInstruction: req.SystemInstruction,
			Temperature:       a.temperature,
			MaxTokens:         req.MaxTokens,
		}

		if req.Kind == KindJSON {
			raw, err := a.provider.GenerateJSON(ctx, pr)
			if err != nil {
				log.Printf("[llm] %s attempt failed (%s): %v", a.desc, req.Context, err)
				continue
			}
			return &CallResult{JSON: raw, Provider: a.provider.Name()}, nil
		}

		resp, err := a.provider.GenerateText(ctx, pr)
		if err != nil {
			log.Printf("[llm] %s attempt failed (%s): %v", a.desc, req.Context, err)
			continue
		}
		if strings.TrimSpace(resp.Content) == "" {
			log.Printf("[llm] %s attempt returned empty content (%s)", a.desc, req.Context)
			continue
		}
		return &CallResult{Text: resp.Content, Provider: a.provider.Name()}, nil
	}
	return nil, ErrAllAttemptsFailed
}
