// Package translator localizes the selected digest into the subscriber's
// language, detected from their profile text.
package translator

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"unicode"

	"github.com/justDance-everybody/web3-info-denoise/internal/llm"
	"github.com/justDance-everybody/web3-info-denoise/internal/prompts"
	"github.com/justDance-everybody/web3-info-denoise/internal/selector"
)

const (
	LanguageChinese  = "Chinese"
	LanguageEnglish  = "English"
	LanguageJapanese = "Japanese"
	LanguageKorean   = "Korean"
	LanguageSpanish  = "Spanish"
)

// Caller is the slice of the orchestrator the translator needs.
type Caller interface {
	Call(ctx context.Context, req llm.CallRequest) (*llm.CallResult, error)
}

type Translator struct {
	caller          Caller
	defaultLanguage string
}

func New(caller Caller, defaultLanguage string) *Translator {
	if defaultLanguage == "" {
		defaultLanguage = LanguageChinese
	}
	return &Translator{caller: caller, defaultLanguage: defaultLanguage}
}

var languageMarkers = map[string][]string{
	LanguageChinese:  {"中文", "chinese", "汉语", "普通话"},
	LanguageEnglish:  {"english", "英文", "英语"},
	LanguageJapanese: {"日本語", "japanese", "日语"},
	LanguageKorean:   {"한국어", "korean", "韩语"},
	LanguageSpanish:  {"español", "spanish", "西班牙语"},
}

// DetectLanguage picks a target language from the subscriber's profile.
// Explicit markers win; otherwise the script of the text decides, and an
// inconclusive profile falls back to the configured default.
func (t *Translator) DetectLanguage(profile string) string {
	lowered := strings.ToLower(profile)
	for _, lang := range []string{LanguageChinese, LanguageEnglish, LanguageJapanese, LanguageKorean, LanguageSpanish} {
		for _, marker := range languageMarkers[lang] {
			if strings.Contains(lowered, marker) {
				return lang
			}
		}
	}

	runes := []rune(profile)
	if len(runes) > 200 {
		runes = runes[:200]
	}
	var han, kana, hangul, latin int
	for _, r := range runes {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		case unicode.In(r, unicode.Han):
			han++
		case unicode.In(r, unicode.Hangul):
			hangul++
		case unicode.IsLetter(r) && r < 128:
			latin++
		}
	}
	switch {
	case kana > 0:
		return LanguageJapanese
	case hangul > 0:
		return LanguageKorean
	case han > 0:
		return LanguageChinese
	case latin > 0:
		return LanguageEnglish
	}
	return t.defaultLanguage
}

type translatedItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

type translation struct {
	Items   []translatedItem `json:"items"`
	Summary string           `json:"summary"`
}

type payloadItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type payload struct {
	Items   []payloadItem `json:"items"`
	Summary string        `json:"summary"`
}

// Translate rewrites titles, summaries and reasons into targetLanguage,
// leaving every other field untouched. Any failure returns the original
// content unchanged.
func (t *Translator) Translate(ctx context.Context, items []selector.Selected, summary, targetLanguage string) ([]selector.Selected, string) {
	if len(items) == 0 && summary == "" {
		return items, summary
	}
	if targetLanguage == LanguageEnglish && !containsNonLatinScript(items, summary) {
		return items, summary
	}

	p := payload{Summary: summary, Items: make([]payloadItem, len(items))}
	for i, it := range items {
		p.Items[i] = payloadItem{ID: it.ID, Title: it.Title, Summary: it.Summary, Reason: it.Reason}
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		log.Printf("[translate] encoding payload: %v", err)
		return items, summary
	}

	prompt, err := prompts.Translate(prompts.TranslateData{Language: targetLanguage, Payload: string(encoded)})
	if err != nil {
		log.Printf("[translate] rendering prompt: %v", err)
		return items, summary
	}

	res, err := t.caller.Call(ctx, llm.CallRequest{
		Prompt:      prompt,
		Kind:        llm.KindJSON,
		Temperature: 0.3,
		Context:     "translate",
	})
	if err != nil {
		log.Printf("[translate] keeping original content: %v", err)
		return items, summary
	}

	var tr translation
	if err := json.Unmarshal(res.JSON, &tr); err != nil {
		log.Printf("[translate] decoding response: %v", err)
		return items, summary
	}

	byID := make(map[string]translatedItem, len(tr.Items))
	for _, it := range tr.Items {
		byID[it.ID] = it
	}

	out := make([]selector.Selected, len(items))
	copy(out, items)
	for i := range out {
		ti, ok := byID[out[i].ID]
		if !ok {
			continue
		}
		if ti.Title != "" {
			out[i].Title = ti.Title
		}
		if ti.Summary != "" {
			out[i].Summary = ti.Summary
		}
		if ti.Reason != "" {
			out[i].Reason = ti.Reason
		}
	}

	if tr.Summary != "" {
		summary = tr.Summary
	}
	return out, summary
}

func containsNonLatinScript(items []selector.Selected, summary string) bool {
	if hasCJKOrHangul(summary) {
		return true
	}
	for _, it := range items {
		if hasCJKOrHangul(it.Title) || hasCJKOrHangul(it.Summary) || hasCJKOrHangul(it.Reason) {
			return true
		}
	}
	return false
}

func hasCJKOrHangul(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
	}
	return false
}
