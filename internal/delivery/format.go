package delivery

import (
	"fmt"
	"html"
	"strings"

	"github.com/justDance-everybody/web3-info-denoise/internal/classify"
	"github.com/justDance-everybody/web3-info-denoise/internal/selector"
)

var sectionHeadings = map[string]map[string]string{
	"Chinese": {
		selector.SectionMustRead:    "🔥 必读",
		selector.SectionMacro:       "🌐 宏观视角",
		selector.SectionRecommended: "👍 推荐阅读",
		selector.SectionOther:       "📎 其他",
	},
	"English": {
		selector.SectionMustRead:    "🔥 Must Read",
		selector.SectionMacro:       "🌐 Macro Insights",
		selector.SectionRecommended: "👍 Recommended",
		selector.SectionOther:       "📎 Also Worth a Look",
	},
	"Japanese": {
		selector.SectionMustRead:    "🔥 必読",
		selector.SectionMacro:       "🌐 マクロの視点",
		selector.SectionRecommended: "👍 おすすめ",
		selector.SectionOther:       "📎 その他",
	},
	"Korean": {
		selector.SectionMustRead:    "🔥 필독",
		selector.SectionMacro:       "🌐 매크로 인사이트",
		selector.SectionRecommended: "👍 추천",
		selector.SectionOther:       "📎 기타",
	},
}

var topicLabels = map[string]string{
	classify.TopicDeFi:        "DeFi",
	classify.TopicNFT:         "NFT",
	classify.TopicLayer2:      "L2",
	classify.TopicTrading:     "Markets",
	classify.TopicDevelopment: "Dev",
}

func headings(language string) map[string]string {
	if h, ok := sectionHeadings[language]; ok {
		return h
	}
	return sectionHeadings["English"]
}

// FormatHTML renders a digest as Telegram-flavored HTML, grouping items
// under localized section headings in the order they arrive.
func FormatHTML(items []selector.Selected, summary, language string) string {
	var b strings.Builder
	if summary != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(summary))
	}

	h := headings(language)
	current := ""
	for _, it := range items {
		if it.Section != current {
			current = it.Section
			fmt.Fprintf(&b, "\n<b>%s</b>\n", h[current])
		}

		title := html.EscapeString(it.Title)
		if it.Link != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(it.Link), title)
		}
		fmt.Fprintf(&b, "• %s", title)
		if label, ok := topicLabels[classify.Topic(it.Title+" "+it.Summary)]; ok {
			fmt.Fprintf(&b, " <code>[%s]</code>", label)
		}
		b.WriteString("\n")

		if it.Reason != "" && it.Reason != selector.FallbackReason {
			fmt.Fprintf(&b, "  %s\n", html.EscapeString(it.Reason))
		}
	}
	return strings.TrimSpace(b.String())
}
