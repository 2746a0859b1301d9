// Package selector ranks a subscriber's candidate items into priority
// sections using the language model, batching when the candidate set is
// large.
package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
	"github.com/justDance-everybody/web3-info-denoise/internal/llm"
	"github.com/justDance-everybody/web3-info-denoise/internal/prompts"
)

const (
	SectionMustRead    = "must_read"
	SectionMacro       = "macro_insights"
	SectionRecommended = "recommended"
	SectionOther       = "other"
)

// FallbackReason marks items selected without model input.
const FallbackReason = "AI unavailable"

var sectionPriority = map[string]int{
	SectionMustRead:    0,
	SectionMacro:       1,
	SectionRecommended: 2,
	SectionOther:       3,
}

// Selected is an item placed into a digest section.
type Selected struct {
	feed.Item
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

// Caller is the slice of the orchestrator the selector needs.
type Caller interface {
	Call(ctx context.Context, req llm.CallRequest) (*llm.CallResult, error)
}

type Options struct {
	MinItems  int
	MaxItems  int
	BatchSize int
}

func (o Options) withDefaults() Options {
	if o.MinItems <= 0 {
		o.MinItems = 5
	}
	if o.MaxItems <= 0 {
		o.MaxItems = 15
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 40
	}
	return o
}

type Selector struct {
	caller Caller
	opts   Options
}

func New(caller Caller, opts Options) *Selector {
	return &Selector{caller: caller, opts: opts.withDefaults()}
}

type candidate struct {
	N    int    `json:"n"`
	Src  string `json:"src"`
	Text string `json:"t"`
}

type pick struct {
	N      int    `json:"n"`
	Reason string `json:"r"`
}

type selection struct {
	MustRead    []pick `json:"must_read"`
	Macro       []pick `json:"macro_insights"`
	Recommended []pick `json:"recommended"`
	Other       []pick `json:"other"`
}

// mergedText favors the longer of title and summary, joining both when the
// summary adds information beyond the title.
func mergedText(it feed.Item) string {
	title := strings.TrimSpace(it.Title)
	summary := strings.TrimSpace(it.Summary)
	switch {
	case summary == "" || summary == title:
		return title
	case title == "":
		return summary
	case strings.Contains(summary, title):
		return summary
	case strings.Contains(title, summary):
		return title
	default:
		return title + " | " + summary
	}
}

// Select classifies items into sections. Oversized candidate sets are split
// into consecutive batches classified independently; the merged result is
// ordered by section priority, deduplicated by exact title keeping the first
// occurrence, and truncated to MaxItems.
func (s *Selector) Select(ctx context.Context, items []feed.Item, profile string) []Selected {
	if len(items) == 0 {
		return nil
	}

	var out []Selected
	for start := 0; start < len(items); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(items) {
			end = len(items)
		}
		out = append(out, s.selectBatch(ctx, items[start:end], profile)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return sectionPriority[out[i].Section] < sectionPriority[out[j].Section]
	})

	seen := make(map[string]bool, len(out))
	deduped := out[:0]
	for _, sel := range out {
		if seen[sel.Title] {
			continue
		}
		seen[sel.Title] = true
		deduped = append(deduped, sel)
	}

	if len(deduped) > s.opts.MaxItems {
		deduped = deduped[:s.opts.MaxItems]
	}
	return deduped
}

func (s *Selector) selectBatch(ctx context.Context, items []feed.Item, profile string) []Selected {
	candidates := make([]candidate, len(items))
	for i, it := range items {
		candidates[i] = candidate{N: i + 1, Src: it.Source, Text: mergedText(it)}
	}
	encoded, err := json.Marshal(candidates)
	if err != nil {
		log.Printf("[selector] encoding candidates: %v", err)
		return s.fallback(items)
	}

	prompt, err := prompts.Filtering(prompts.FilteringData{
		Profile:  profile,
		MinItems: s.opts.MinItems,
		MaxItems: s.opts.MaxItems,
		Items:    string(encoded),
	})
	if err != nil {
		log.Printf("[selector] rendering prompt: %v", err)
		return s.fallback(items)
	}

	res, err := s.caller.Call(ctx, llm.CallRequest{
		Prompt:      prompt,
		Kind:        llm.KindJSON,
		Temperature: 0.7,
		Context:     "filter",
	})
	if err != nil {
		log.Printf("[selector] batch of %d items falling back: %v", len(items), err)
		return s.fallback(items)
	}

	var sel selection
	if err := json.Unmarshal(res.JSON, &sel); err != nil {
		log.Printf("[selector] decoding selection: %v", err)
		return s.fallback(items)
	}

	var out []Selected
	appendPicks := func(section string, picks []pick) {
		for _, p := range picks {
			if p.N < 1 || p.N > len(items) {
				log.Printf("[selector] model referenced item %d outside batch of %d, skipping", p.N, len(items))
				continue
			}
			out = append(out, Selected{Item: items[p.N-1], Section: section, Reason: p.Reason})
		}
	}
	appendPicks(SectionMustRead, sel.MustRead)
	appendPicks(SectionMacro, sel.Macro)
	appendPicks(SectionRecommended, sel.Recommended)
	appendPicks(SectionOther, sel.Other)
	return out
}

// fallback keeps the first MaxItems candidates so the subscriber still gets
// a digest when the model is unreachable.
func (s *Selector) fallback(items []feed.Item) []Selected {
	n := len(items)
	if n > s.opts.MaxItems {
		n = s.opts.MaxItems
	}
	out := make([]Selected, n)
	for i := 0; i < n; i++ {
		out[i] = Selected{Item: items[i], Section: SectionOther, Reason: FallbackReason}
	}
	return out
}

// Summary asks the model for a short digest opener. On failure it returns a
// plain headline count so the digest never goes out without an intro.
func (s *Selector) Summary(ctx context.Context, selected []Selected, profile string) string {
	lines := make([]string, len(selected))
	for i, sel := range selected {
		lines[i] = fmt.Sprintf("- [%s] %s", sel.Source, sel.Title)
	}

	prompt, err := prompts.Summary(prompts.SummaryData{Profile: profile, Items: strings.Join(lines, "\n")})
	if err != nil {
		log.Printf("[selector] rendering summary prompt: %v", err)
		return fallbackSummary(len(selected))
	}

	res, err := s.caller.Call(ctx, llm.CallRequest{
		Prompt:      prompt,
		Kind:        llm.KindText,
		Temperature: 0.7,
		Context:     "summary",
	})
	if err != nil {
		log.Printf("[selector] summary falling back: %v", err)
		return fallbackSummary(len(selected))
	}
	return strings.TrimSpace(res.Text)
}

func fallbackSummary(n int) string {
	return fmt.Sprintf("Today's digest has %d selected stories.", n)
}
