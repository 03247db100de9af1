package sentiment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fxradar/internal/models"
	"fxradar/internal/sentiment"
)

func TestScoreArticleRiskRatio(t *testing.T) {
	// 20 tokens, "sanctions" (risk lexicon) appearing twice.
	a := models.Article{
		URL: "https://example.com/sanctions",
		Description: "sanctions imposed on the regime today as new sanctions follow " +
			"the earlier measures announced by officials in the region now",
	}

	s := sentiment.ScoreArticle(a)
	require.Equal(t, 20, s.Tokens)
	require.InDelta(t, 0.1, s.Risk, 1e-9)
	require.Zero(t, s.Positive)
	require.Zero(t, s.Uncertainty)
}

func TestScoreDailyMean(t *testing.T) {
	doc := models.NewsDocument{
		Date: "2026-02-14",
		Articles: []models.Article{
			{
				URL: "https://example.com/1",
				Description: "sanctions imposed on the regime today as new sanctions follow " +
					"the earlier measures announced by officials in the region now",
			},
			{URL: "https://example.com/2", Description: "markets were calm today"},
			{URL: "https://example.com/3", Description: "officials met quietly yesterday"},
		},
	}

	sent := sentiment.Score(doc)
	require.Equal(t, 3, sent.Today.Articles)
	require.InDelta(t, 0.1/3, sent.Today.Risk, 1e-9)
	require.Zero(t, sent.Today.Positive)
	require.Zero(t, sent.Today.Uncertainty)
	require.Len(t, sent.Items, 3)
}

func TestScoreExcludesZeroTokenArticles(t *testing.T) {
	doc := models.NewsDocument{
		Date: "2026-02-14",
		Articles: []models.Article{
			{URL: "https://example.com/empty"}, // no title, no description
			{URL: "https://example.com/war", Title: "war war war war"},
		},
	}

	sent := sentiment.Score(doc)
	// The empty article is excluded from both numerator and denominator.
	require.Equal(t, 1, sent.Today.Articles)
	require.InDelta(t, 1.0, sent.Today.Risk, 1e-9)
	require.Len(t, sent.Items, 2)
	require.Zero(t, sent.Items[0].Tokens)
}

func TestScoreZeroSafety(t *testing.T) {
	sent := sentiment.Score(models.NewsDocument{Date: "2026-02-14"})
	require.Equal(t, models.SentimentSummary{}, sent.Today)

	sent = sentiment.Score(models.NewsDocument{
		Date:     "2026-02-14",
		Articles: []models.Article{{URL: "https://example.com/blank"}},
	})
	require.Zero(t, sent.Today.Articles)
	require.Zero(t, sent.Today.Risk)
	require.Zero(t, sent.Today.Positive)
	require.Zero(t, sent.Today.Uncertainty)
}

func TestScoreDeterministic(t *testing.T) {
	doc := models.NewsDocument{
		Date: "2026-02-14",
		Articles: []models.Article{
			{URL: "https://example.com/a", Title: "Ceasefire talks amid tensions", Description: "A fragile truce faces doubts."},
			{URL: "https://example.com/b", Title: "Flood warning issued", Description: "Storm damage spreads."},
		},
	}

	first := sentiment.Score(doc)
	second := sentiment.Score(doc)
	require.Equal(t, first, second)
}

func TestLexiconEntriesAreMatchable(t *testing.T) {
	// Every entry must survive tokenization as a single token; an entry
	// the tokenizer splits (e.g. a hyphenated word) can never score.
	for name, set := range map[string]map[string]struct{}{
		"risk":        sentiment.RiskWords,
		"positive":    sentiment.PositiveWords,
		"uncertainty": sentiment.UncertaintyWords,
	} {
		for w := range set {
			require.Equal(t, []string{w}, sentiment.Tokenize(w), "%s lexicon entry %q", name, w)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "lowercases", input: "War AND Peace", want: []string{"war", "and", "peace"}},
		{name: "punctuation split", input: "stand-off, talks!", want: []string{"stand", "off", "talks"}},
		{name: "apostrophes kept", input: "won't stop", want: []string{"won't", "stop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, sentiment.Tokenize(tt.input))
		})
	}
}
