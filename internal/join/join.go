// Package join merges canonical news articles with per-article sentiment at
// read time. Identity is a normalized URL; nothing here writes artifacts.
package join

import (
	"html"
	"net/url"
	"strings"

	"fxradar/internal/models"
)

// trackingParams are dropped from query strings before keys are compared.
// Any parameter starting with "utm_" or "ref" is dropped as well.
var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "yclid": {}, "mc_cid": {}, "mc_eid": {},
	"igshid": {}, "cmpid": {}, "ocid": {}, "spm": {},
}

func isTracking(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "utm_") || strings.HasPrefix(lower, "ref") {
		return true
	}
	_, ok := trackingParams[lower]
	return ok
}

// NormalizeURL canonicalizes a URL into the join/dedup key: https scheme,
// lower-case host without leading www., no fragment, no tracking
// parameters, remaining query sorted, no trailing slash. Returns "" when
// no usable URL can be recovered.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(html.UnescapeString(raw))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimLeft(raw, "/")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimSuffix(u.EscapedPath(), "/")

	query := ""
	if u.RawQuery != "" {
		kept := url.Values{}
		for name, vals := range u.Query() {
			if isTracking(name) {
				continue
			}
			for _, v := range vals {
				kept.Add(name, v)
			}
		}
		// Encode sorts keys, giving a canonical parameter order.
		query = kept.Encode()
	}

	key := "https://" + host + path
	if query != "" {
		key += "?" + query
	}
	return key
}

// Key is the dedup/join identity for an article: the normalized URL, or
// host+title when no URL is present.
func Key(a models.Article) string {
	if k := NormalizeURL(a.URL); k != "" {
		return k
	}
	title := strings.ToLower(strings.TrimSpace(a.Title))
	if title == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(a.Source)) + "|" + title
}

func scoreKey(s models.ArticleScore) string {
	return Key(models.Article{URL: s.URL, Title: s.Title, Source: s.Source})
}

// Merge left-joins news articles with sentiment items. Dedup is
// first-seen-wins per key with original order preserved; articles without
// a matching score keep Sentiment == nil rather than a fabricated zero.
func Merge(news models.NewsDocument, sent models.SentimentDocument) []models.JoinedArticle {
	scores := make(map[string]models.ArticleScore, len(sent.Items))
	for _, s := range sent.Items {
		k := scoreKey(s)
		if k == "" {
			continue
		}
		if _, ok := scores[k]; !ok {
			scores[k] = s
		}
	}

	seen := make(map[string]struct{}, len(news.Articles))
	out := make([]models.JoinedArticle, 0, len(news.Articles))
	for _, a := range news.Articles {
		k := Key(a)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		j := models.JoinedArticle{Article: a}
		if s, ok := scores[k]; ok && k != "" {
			sc := s
			j.Sentiment = &sc
		}
		out = append(out, j)
	}
	return out
}
