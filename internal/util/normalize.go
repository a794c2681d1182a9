package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// HTMLToText flattens an HTML fragment (hh snippets carry <highlighttext>
// markup) to clean text.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(doc.Text())
}

// IsRemote reports whether a schedule id or location text describes remote work.
func IsRemote(scheduleID, location string) bool {
	if strings.EqualFold(scheduleID, "remote") {
		return true
	}
	blob := strings.ToLower(location)
	return strings.Contains(blob, "remote") || strings.Contains(blob, "удал")
}
