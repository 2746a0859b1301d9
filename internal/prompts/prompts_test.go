package prompts

import (
	"strings"
	"testing"
)

func TestFilteringIncludesProfileAndBounds(t *testing.T) {
	out, err := Filtering(FilteringData{
		Profile:  "DeFi researcher, follows ETH and L2s",
		MinItems: 5,
		MaxItems: 15,
		Items:    `[{"n":1,"src":"CoinDesk","t":"ETH upgrade ships"}]`,
	})
	if err != nil {
		t.Fatalf("Filtering: %v", err)
	}
	for _, want := range []string{"DeFi researcher", "between 5 and 15", `"n":1`, "must_read", "macro_insights"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestTranslateIncludesLanguage(t *testing.T) {
	out, err := Translate(TranslateData{Language: "Japanese", Payload: `{"items":[]}`})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(out, "into Japanese") {
		t.Errorf("prompt missing language: %q", out)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := Render("nope", nil); err == nil {
		t.Fatal("want error for unknown template")
	}
}
