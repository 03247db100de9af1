// Package materialize turns untrusted raw news snapshots into the canonical
// news document. All key-name and encoding tolerance lives here; nothing
// downstream guesses schemas.
package materialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"fxradar/internal/fault"
	"fxradar/internal/models"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
	ansiRE  = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
)

// maxTrim bounds the progressive tail trim; a raw snapshot needing more
// than this is not a daily snapshot.
const maxTrim = 200_000

// ExtractPayload recovers the JSON payload from noisy raw bytes: BOM and
// ANSI escapes are stripped, the slice from the first opening bracket to
// the last closing bracket is taken, and if that still fails to parse the
// tail is trimmed back to earlier closing brackets until it does.
func ExtractPayload(raw []byte) ([]byte, error) {
	s := string(bytes.TrimPrefix(raw, utf8BOM))
	s = ansiRE.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	start := -1
	for _, c := range []string{"{", "["} {
		if i := strings.Index(s, c); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	end := max(strings.LastIndex(s, "}"), strings.LastIndex(s, "]"))
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON brackets found: %w", fault.ErrInputUnparsable)
	}

	payload := s[start : end+1]
	if json.Valid([]byte(payload)) {
		return []byte(payload), nil
	}

	// Concatenated JSON or trailing log garbage: trim the tail back to the
	// previous closing bracket until the remainder parses.
	p := strings.TrimRight(payload, " \t\n")
	limit := min(maxTrim, len(p)-1)
	for cut := 1; cut <= limit; cut++ {
		cand := strings.TrimRight(p[:len(p)-cut], " \t\n")
		if cand == "" {
			break
		}
		last := cand[len(cand)-1]
		if last != '}' && last != ']' {
			continue
		}
		if json.Valid([]byte(cand)) {
			return []byte(cand), nil
		}
	}
	return nil, fmt.Errorf("payload not repairable: %w", fault.ErrInputUnparsable)
}

// Materialize builds the canonical news document for date from raw snapshot
// bytes. It never returns a document with a nil Articles slice.
func Materialize(raw []byte, date string) (models.NewsDocument, error) {
	doc := models.NewsDocument{Date: date, Articles: []models.Article{}}

	payload, err := ExtractPayload(raw)
	if err != nil {
		return doc, err
	}

	var loose any
	if err := json.Unmarshal(payload, &loose); err != nil {
		return doc, fmt.Errorf("decode payload: %w", fault.ErrInputUnparsable)
	}

	items := extractItems(loose)
	for _, it := range items {
		a := models.Article{
			Title:       pickString(it, "title", "headline", "name"),
			URL:         pickString(it, "url", "link", "href", "source_url"),
			PublishedAt: pickString(it, "publishedAt", "published_at", "published", "time", "ts", "date"),
			Description: pickString(it, "description", "summary", "desc", "content"),
			Image:       pickString(it, "urlToImage", "image", "image_url", "imageUrl"),
			Source:      pickSource(it),
		}
		if a.Title == "" && a.URL == "" {
			continue
		}
		doc.Articles = append(doc.Articles, a)
	}

	if top, ok := loose.(map[string]any); ok {
		doc.FetchedAt = pickString(top, "fetched_at", "fetchedAt")
		doc.Query = pickString(top, "query", "q")
		if n, ok := pickNumber(top, "totalResults", "total_results"); ok {
			doc.TotalResults = int(n)
		}
	}
	if doc.TotalResults < len(doc.Articles) {
		doc.TotalResults = len(doc.Articles)
	}
	return doc, nil
}

// extractItems finds the article list in any of the shapes the fetcher has
// been observed to emit, including one level of nesting.
func extractItems(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		return onlyObjects(t)
	case map[string]any:
		for _, k := range []string{"items", "articles", "data", "news", "rows", "events"} {
			if list, ok := t[k].([]any); ok {
				return onlyObjects(list)
			}
		}
		for _, k := range []string{"daily_news", "payload", "result"} {
			if nested, ok := t[k].(map[string]any); ok {
				if items := extractItems(nested); len(items) > 0 {
					return items
				}
			}
		}
	}
	return nil
}

func onlyObjects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strings.TrimSpace(fmt.Sprintf("%v", v))
		}
	}
	return ""
}

func pickNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := m[k].(float64); ok {
			return n, true
		}
	}
	return 0, false
}

// pickSource flattens the source field: NewsAPI nests {"id","name"}, other
// variants use a bare string or different object keys.
func pickSource(m map[string]any) string {
	if s := pickString(m, "source", "publisher", "site", "domain"); s != "" {
		return s
	}
	if obj, ok := m["source"].(map[string]any); ok {
		return pickString(obj, "name", "domain", "id", "title")
	}
	return ""
}
