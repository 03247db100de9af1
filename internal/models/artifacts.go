package models

// Article is the canonical per-article record produced by the materializer.
// Every field is a plain string; absent upstream values become "".
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Source      string `json:"source"`
}

// NewsDocument is the canonical daily news artifact. Arrays are never null.
type NewsDocument struct {
	Date         string    `json:"date"`
	FetchedAt    string    `json:"fetched_at"`
	Query        string    `json:"query"`
	TotalResults int       `json:"total_results"`
	Articles     []Article `json:"articles"`
}

// SentimentSummary is the daily aggregate: mean per-article axis scores
// over articles with at least one token.
type SentimentSummary struct {
	Articles    int     `json:"articles"`
	Risk        float64 `json:"risk"`
	Positive    float64 `json:"positive"`
	Uncertainty float64 `json:"uncertainty"`
}

// ArticleScore carries per-article axis scores for the read-time join.
type ArticleScore struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	Tokens      int     `json:"tokens"`
	Risk        float64 `json:"risk"`
	Positive    float64 `json:"positive"`
	Uncertainty float64 `json:"uncertainty"`
}

// SentimentDocument is the daily sentiment artifact.
type SentimentDocument struct {
	Date   string           `json:"date"`
	Method string           `json:"method"`
	Today  SentimentSummary `json:"today"`
	Items  []ArticleScore   `json:"items"`
}

// SummaryDocument is the narrative daily summary. Method is "derived" for
// real derivations and "stub" for placeholders; Reason explains stubs.
type SummaryDocument struct {
	Date        string  `json:"date"`
	Headline    string  `json:"headline"`
	Articles    int     `json:"articles"`
	Risk        float64 `json:"risk"`
	Positive    float64 `json:"positive"`
	Uncertainty float64 `json:"uncertainty"`
	Method      string  `json:"method"`
	Reason      string  `json:"reason,omitempty"`
}

// ViewModelDocument is the display layer's joined view of news + sentiment.
type ViewModelDocument struct {
	Date             string           `json:"date"`
	GeneratedAt      string           `json:"generated_at"`
	SentimentSummary SentimentSummary `json:"sentiment_summary"`
	Articles         []JoinedArticle  `json:"articles"`
	Method           string           `json:"method"`
	Reason           string           `json:"reason,omitempty"`
}

// JoinedArticle is one deduplicated article with its sentiment attached.
// Sentiment is nil (JSON null) when no score is available for the article;
// a zero score is never fabricated.
type JoinedArticle struct {
	Article
	Sentiment *ArticleScore `json:"sentiment"`
}

// OverlayDocument pairs a day's sentiment with the FX rate in effect.
// RateDate is the business-day-adjusted lookup date; Date stays the
// publication date.
type OverlayDocument struct {
	Date        string  `json:"date"`
	Pair        string  `json:"pair"`
	Rate        float64 `json:"rate"`
	RateDate    string  `json:"rate_date"`
	Articles    int     `json:"articles"`
	Risk        float64 `json:"risk"`
	Positive    float64 `json:"positive"`
	Uncertainty float64 `json:"uncertainty"`
	Method      string  `json:"method"`
	Reason      string  `json:"reason,omitempty"`
}
