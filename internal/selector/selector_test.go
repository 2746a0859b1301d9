package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
	"github.com/justDance-everybody/web3-info-denoise/internal/llm"
)

// scriptedCaller answers each batch with a canned selection, or fails when
// fail is set.
type scriptedCaller struct {
	fail    bool
	answers []string
	calls   int
	prompts []string
}

func (c *scriptedCaller) Call(_ context.Context, req llm.CallRequest) (*llm.CallResult, error) {
	c.prompts = append(c.prompts, req.Prompt)
	if c.fail {
		return nil, llm.ErrAllAttemptsFailed
	}
	if c.calls >= len(c.answers) {
		return nil, fmt.Errorf("unscripted call %d", c.calls)
	}
	answer := c.answers[c.calls]
	c.calls++
	if req.Kind == llm.KindText {
		return &llm.CallResult{Text: answer, Provider: "fake"}, nil
	}
	return &llm.CallResult{JSON: json.RawMessage(answer), Provider: "fake"}, nil
}

func makeItems(n int, prefix string) []feed.Item {
	items := make([]feed.Item, n)
	for i := range items {
		items[i] = feed.Item{
			ID:     fmt.Sprintf("%s-%d", prefix, i),
			Source: "CoinDesk",
			Title:  fmt.Sprintf("%s headline %d", prefix, i),
		}
	}
	return items
}

func TestSelectSingleBatch(t *testing.T) {
	caller := &scriptedCaller{answers: []string{
		`{"must_read": [{"n": 2, "r": "directly relevant"}], "macro_insights": [], "recommended": [{"n": 1, "r": "solid"}], "other": []}`,
	}}
	s := New(caller, Options{MaxItems: 10, BatchSize: 40})

	out := s.Select(context.Background(), makeItems(3, "a"), "DeFi reader")
	if len(out) != 2 {
		t.Fatalf("got %d items", len(out))
	}
	if out[0].Section != SectionMustRead || out[0].ID != "a-1" {
		t.Errorf("first = %+v", out[0])
	}
	if out[1].Section != SectionRecommended || out[1].Reason != "solid" {
		t.Errorf("second = %+v", out[1])
	}
}

func TestSelectDiscardsOutOfRangeIndexes(t *testing.T) {
	caller := &scriptedCaller{answers: []string{
		`{"must_read": [{"n": 99, "r": "invented"}, {"n": 0, "r": "invented"}], "macro_insights": [], "recommended": [], "other": [{"n": 1, "r": "fine"}]}`,
	}}
	s := New(caller, Options{})

	out := s.Select(context.Background(), makeItems(2, "a"), "reader")
	if len(out) != 1 || out[0].ID != "a-0" {
		t.Fatalf("got %+v", out)
	}
}

func TestSelectBatchMerge(t *testing.T) {
	// Two batches of 2. Batch answers interleave sections; the merged
	// result must come back ordered by section priority.
	caller := &scriptedCaller{answers: []string{
		`{"must_read": [], "macro_insights": [], "recommended": [{"n": 1, "r": "r1"}], "other": [{"n": 2, "r": "r2"}]}`,
		`{"must_read": [{"n": 2, "r": "r3"}], "macro_insights": [], "recommended": [], "other": []}`,
	}}
	s := New(caller, Options{MaxItems: 10, BatchSize: 2})

	out := s.Select(context.Background(), makeItems(4, "a"), "reader")
	if caller.calls != 2 {
		t.Fatalf("expected 2 batch calls, got %d", caller.calls)
	}
	gotSections := make([]string, len(out))
	for i, sel := range out {
		gotSections[i] = sel.Section
	}
	want := []string{SectionMustRead, SectionRecommended, SectionOther}
	if len(out) != 3 {
		t.Fatalf("got %d items: %v", len(out), gotSections)
	}
	for i := range want {
		if gotSections[i] != want[i] {
			t.Errorf("position %d section = %q, want %q", i, gotSections[i], want[i])
		}
	}
	if out[0].ID != "a-3" {
		t.Errorf("must_read item = %q", out[0].ID)
	}
}

func TestSelectDeduplicatesByExactTitle(t *testing.T) {
	items := []feed.Item{
		{ID: "x", Source: "CoinDesk", Title: "Same headline"},
		{ID: "y", Source: "TheBlock", Title: "Same headline"},
		{ID: "z", Source: "TheBlock", Title: "same headline"},
	}
	caller := &scriptedCaller{answers: []string{
		`{"must_read": [{"n": 1, "r": "a"}, {"n": 2, "r": "b"}, {"n": 3, "r": "c"}], "macro_insights": [], "recommended": [], "other": []}`,
	}}
	s := New(caller, Options{})

	out := s.Select(context.Background(), items, "reader")
	if len(out) != 2 {
		t.Fatalf("got %d items", len(out))
	}
	if out[0].ID != "x" {
		t.Errorf("kept %q, want first occurrence", out[0].ID)
	}
	if out[1].ID != "z" {
		t.Errorf("case variant should survive, got %q", out[1].ID)
	}
}

func TestSelectTruncatesToMaxItems(t *testing.T) {
	var picks []string
	for i := 1; i <= 8; i++ {
		picks = append(picks, fmt.Sprintf(`{"n": %d, "r": "r"}`, i))
	}
	caller := &scriptedCaller{answers: []string{
		fmt.Sprintf(`{"must_read": [%s], "macro_insights": [], "recommended": [], "other": []}`, strings.Join(picks, ",")),
	}}
	s := New(caller, Options{MaxItems: 3})

	out := s.Select(context.Background(), makeItems(8, "a"), "reader")
	if len(out) != 3 {
		t.Fatalf("got %d items, want 3", len(out))
	}
}

func TestSelectFallbackNeverEmpty(t *testing.T) {
	caller := &scriptedCaller{fail: true}
	s := New(caller, Options{MaxItems: 5, BatchSize: 3})

	out := s.Select(context.Background(), makeItems(10, "a"), "reader")
	if len(out) == 0 {
		t.Fatal("fallback produced empty digest")
	}
	if len(out) > 5 {
		t.Fatalf("fallback exceeded max: %d", len(out))
	}
	for _, sel := range out {
		if sel.Section != SectionOther || sel.Reason != FallbackReason {
			t.Errorf("fallback item %+v", sel)
		}
	}
}

func TestSelectEmptyInput(t *testing.T) {
	caller := &scriptedCaller{}
	s := New(caller, Options{})
	if out := s.Select(context.Background(), nil, "reader"); out != nil {
		t.Fatalf("got %+v", out)
	}
	if caller.calls != 0 {
		t.Errorf("caller invoked %d times", caller.calls)
	}
}

func TestMergedText(t *testing.T) {
	cases := []struct {
		name    string
		title   string
		summary string
		want    string
	}{
		{"title only", "Big news", "", "Big news"},
		{"identical", "Big news", "Big news", "Big news"},
		{"summary extends title", "Big news", "Big news hits the market hard", "Big news hits the market hard"},
		{"summary adds info", "Big news", "Markets rally on ETF approval", "Big news | Markets rally on ETF approval"},
		{"summary only", "", "Markets rally", "Markets rally"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mergedText(feed.Item{Title: tc.title, Summary: tc.summary})
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	caller := &scriptedCaller{answers: []string{"A busy day for DeFi."}}
	s := New(caller, Options{})

	got := s.Summary(context.Background(), []Selected{{Item: feed.Item{Source: "CoinDesk", Title: "ETH up"}}}, "reader")
	if got != "A busy day for DeFi." {
		t.Errorf("summary = %q", got)
	}
	if !strings.Contains(caller.prompts[0], "[CoinDesk] ETH up") {
		t.Errorf("prompt missing headline: %q", caller.prompts[0])
	}
}

func TestSummaryFallback(t *testing.T) {
	caller := &scriptedCaller{fail: true}
	s := New(caller, Options{})

	got := s.Summary(context.Background(), make([]Selected, 4), "reader")
	if !strings.Contains(got, "4") {
		t.Errorf("fallback summary = %q", got)
	}
}
