package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// Strip extracts the visible text of an HTML fragment, collapsing runs of
// whitespace. Input that does not parse as HTML is returned trimmed as-is,
// so plain text messages pass through unchanged.
func Strip(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if len(raw) > maxHTMLBodyBytes {
		raw = raw[:maxHTMLBodyBytes]
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
