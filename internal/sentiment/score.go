// Package sentiment scores canonical news documents with fixed lexicons.
// Scoring is pure: the same document always yields the same floats, with
// no network, no model, no clock.
package sentiment

import (
	"regexp"
	"strings"

	"fxradar/internal/models"
)

var tokenRE = regexp.MustCompile(`[a-z0-9']+`)

// Tokenize lowercases text and splits it into alphanumeric runs.
func Tokenize(text string) []string {
	return tokenRE.FindAllString(strings.ToLower(text), -1)
}

// ScoreArticle scores one article over title+description. Each axis is the
// lexicon hit count divided by the token count. Tokens == 0 marks the
// article as unscorable; it must not enter the daily mean.
func ScoreArticle(a models.Article) models.ArticleScore {
	toks := Tokenize(a.Title + " " + a.Description)
	score := models.ArticleScore{
		URL:    a.URL,
		Title:  a.Title,
		Source: a.Source,
		Tokens: len(toks),
	}
	if len(toks) == 0 {
		return score
	}

	var risk, pos, unc int
	for _, t := range toks {
		if _, ok := RiskWords[t]; ok {
			risk++
		}
		if _, ok := PositiveWords[t]; ok {
			pos++
		}
		if _, ok := UncertaintyWords[t]; ok {
			unc++
		}
	}

	n := float64(len(toks))
	score.Risk = float64(risk) / n
	score.Positive = float64(pos) / n
	score.Uncertainty = float64(unc) / n
	return score
}

// Score produces the daily sentiment document. The aggregate is the
// arithmetic mean of per-article axis scores over articles with at least
// one token; zero qualifying articles yields all-zero floats, never NaN.
func Score(doc models.NewsDocument) models.SentimentDocument {
	out := models.SentimentDocument{
		Date:   doc.Date,
		Method: "lexicon",
		Items:  make([]models.ArticleScore, 0, len(doc.Articles)),
	}

	var sum models.SentimentSummary
	for _, a := range doc.Articles {
		s := ScoreArticle(a)
		out.Items = append(out.Items, s)
		if s.Tokens == 0 {
			continue
		}
		sum.Articles++
		sum.Risk += s.Risk
		sum.Positive += s.Positive
		sum.Uncertainty += s.Uncertainty
	}

	if sum.Articles > 0 {
		n := float64(sum.Articles)
		sum.Risk /= n
		sum.Positive /= n
		sum.Uncertainty /= n
	}
	out.Today = sum
	return out
}
