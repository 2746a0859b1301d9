// Package prompts holds the instruction templates sent to the language
// model for filtering, digest summaries and translation.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.txt"))

// FilteringData drives the content selection prompt. Items is the compact
// JSON array of candidate entries.
type FilteringData struct {
	Profile  string
	MinItems int
	MaxItems int
	Items    string
}

type SummaryData struct {
	Profile string
	Items   string
}

type TranslateData struct {
	Language string
	Payload  string
}

func Render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name+".txt", data); err != nil {
		return "", fmt.Errorf("rendering prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

func Filtering(data FilteringData) (string, error) { return Render("filtering", data) }
func Summary(data SummaryData) (string, error)     { return Render("summary", data) }
func Translate(data TranslateData) (string, error) { return Render("translate", data) }
