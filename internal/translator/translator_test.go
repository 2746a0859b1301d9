package translator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/justDance-everybody/web3-info-denoise/internal/feed"
	"github.com/justDance-everybody/web3-info-denoise/internal/llm"
	"github.com/justDance-everybody/web3-info-denoise/internal/selector"
)

type fakeCaller struct {
	fail   bool
	answer string
	calls  int
}

func (c *fakeCaller) Call(_ context.Context, req llm.CallRequest) (*llm.CallResult, error) {
	c.calls++
	if c.fail {
		return nil, llm.ErrAllAttemptsFailed
	}
	return &llm.CallResult{JSON: json.RawMessage(c.answer), Provider: "fake"}, nil
}

func sample() []selector.Selected {
	return []selector.Selected{
		{
			Item:    feed.Item{ID: "a", Source: "CoinDesk", Title: "ETH rallies", Summary: "Ether gains 8%", Link: "https://example.com/a"},
			Section: selector.SectionMustRead,
			Reason:  "you follow ETH",
		},
		{
			Item:    feed.Item{ID: "b", Source: "TheBlock", Title: "SEC update", Summary: "New guidance"},
			Section: selector.SectionOther,
			Reason:  "regulatory",
		},
	}
}

func TestDetectLanguageMarkers(t *testing.T) {
	tr := New(&fakeCaller{}, "")
	cases := []struct {
		profile string
		want    string
	}{
		{"I'm a DeFi trader, please reply in English", LanguageEnglish},
		{"中文用户，关注以太坊生态", LanguageChinese},
		{"日本語でお願いします", LanguageJapanese},
		{"한국어 사용자입니다", LanguageKorean},
		{"Prefiero español, sigo Bitcoin", LanguageSpanish},
		{"Just a trader watching BTC and L2s", LanguageEnglish},
		{"", LanguageChinese},
	}
	for _, tc := range cases {
		if got := tr.DetectLanguage(tc.profile); got != tc.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tc.profile, got, tc.want)
		}
	}
}

func TestDetectLanguageSniffsScript(t *testing.T) {
	tr := New(&fakeCaller{}, "")
	if got := tr.DetectLanguage("比特币交易员"); got != LanguageChinese {
		t.Errorf("got %q", got)
	}
	if got := tr.DetectLanguage("ビットコインのトレーダー"); got != LanguageJapanese {
		t.Errorf("got %q", got)
	}
}

func TestTranslateReplacesTextFields(t *testing.T) {
	caller := &fakeCaller{answer: `{
		"items": [
			{"id": "a", "title": "以太坊大涨", "summary": "以太币上涨8%", "reason": "你关注ETH"},
			{"id": "b", "title": "SEC动态", "summary": "新指引", "reason": "监管"}
		],
		"summary": "今日要闻概览"
	}`}
	tr := New(caller, "")

	items, summary := tr.Translate(context.Background(), sample(), "Today's overview", LanguageChinese)
	if summary != "今日要闻概览" {
		t.Errorf("summary = %q", summary)
	}
	if items[0].Title != "以太坊大涨" || items[0].Reason != "你关注ETH" {
		t.Errorf("item a = %+v", items[0])
	}
	if items[0].ID != "a" || items[0].Link != "https://example.com/a" || items[0].Section != selector.SectionMustRead {
		t.Errorf("structural fields changed: %+v", items[0])
	}
}

func TestTranslateKeepsOriginalsOnFailure(t *testing.T) {
	tr := New(&fakeCaller{fail: true}, "")
	orig := sample()

	items, summary := tr.Translate(context.Background(), orig, "Today's overview", LanguageChinese)
	if summary != "Today's overview" {
		t.Errorf("summary = %q", summary)
	}
	if items[0].Title != "ETH rallies" {
		t.Errorf("item = %+v", items[0])
	}
}

func TestTranslateSkipsEnglishLatinContent(t *testing.T) {
	caller := &fakeCaller{}
	tr := New(caller, "")

	items, summary := tr.Translate(context.Background(), sample(), "Today's overview", LanguageEnglish)
	if caller.calls != 0 {
		t.Errorf("expected skip, caller invoked %d times", caller.calls)
	}
	if summary != "Today's overview" || items[0].Title != "ETH rallies" {
		t.Errorf("content changed on skip")
	}
}

func TestTranslateEnglishTargetWithCJKContent(t *testing.T) {
	caller := &fakeCaller{answer: `{
		"items": [{"id": "a", "title": "ETH rallies", "summary": "Ether gains 8%", "reason": "you follow ETH"}],
		"summary": "done"
	}`}
	tr := New(caller, "")

	in := sample()[:1]
	in[0].Title = "以太坊大涨"
	tr.Translate(context.Background(), in, "", LanguageEnglish)
	if caller.calls != 1 {
		t.Errorf("CJK content should force translation, calls = %d", caller.calls)
	}
}

func TestTranslateIgnoresUnknownIDs(t *testing.T) {
	caller := &fakeCaller{answer: `{
		"items": [{"id": "zzz", "title": "幽灵", "summary": "", "reason": ""}],
		"summary": ""
	}`}
	tr := New(caller, "")

	items, summary := tr.Translate(context.Background(), sample(), "intro", LanguageChinese)
	if items[0].Title != "ETH rallies" {
		t.Errorf("unmatched item mutated: %+v", items[0])
	}
	if summary != "intro" {
		t.Errorf("empty translated summary should keep original, got %q", summary)
	}
}
