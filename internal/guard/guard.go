// Package guard reconciles dated artifacts with their latest pointers. For
// each family it ensures the dated artifact exists (deriving it when
// possible), then republishes the latest pointer from the same bytes, so
// family_latest is always byte-identical to family_<date> after a
// successful pass.
package guard

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fxradar/internal/artifact"
	"fxradar/internal/fault"
	"fxradar/internal/fxrate"
	"fxradar/internal/join"
	"fxradar/internal/materialize"
	"fxradar/internal/models"
	"fxradar/internal/sentiment"
)

// Guard drives per-family reconciliation for one artifact store.
type Guard struct {
	store  *artifact.Store
	log    *slog.Logger
	fxPair string
	now    func() time.Time
}

// New builds a Guard. fxPair names the FX feed used by the overlay family.
func New(store *artifact.Store, log *slog.Logger, fxPair string) *Guard {
	return &Guard{store: store, log: log, fxPair: fxPair, now: time.Now}
}

// Outcome reports one family's reconciliation.
type Outcome struct {
	Family  artifact.Family
	Action  string // "kept", "derived" or "stub"
	Pointer artifact.Pointer
	Err     error
}

// stubAllowed limits stub synthesis to narrative families. Numeric
// sentiment is never fabricated.
func stubAllowed(family artifact.Family) bool {
	switch family {
	case artifact.FamilySummary, artifact.FamilyViewModel, artifact.FamilyOverlay:
		return true
	}
	return false
}

// EnsureAll reconciles every family for date in order. One family's
// failure never blocks the others.
func (g *Guard) EnsureAll(date string) []Outcome {
	outcomes := make([]Outcome, 0, len(artifact.Families))
	for _, family := range artifact.Families {
		o := g.Ensure(family, date)
		if o.Err != nil {
			g.log.Warn("family reconciliation failed",
				slog.String("family", string(family)),
				slog.String("date", date),
				slog.Any("err", o.Err),
			)
		} else {
			g.log.Debug("family reconciled",
				slog.String("family", string(family)),
				slog.String("action", o.Action),
				slog.String("date", date),
			)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// Ensure reconciles a single family for date. An existing dated artifact
// is kept untouched and only mirrored to the latest pointer; a missing one
// is derived, or stubbed where stubs are allowed.
func (g *Guard) Ensure(family artifact.Family, date string) Outcome {
	out := Outcome{Family: family}

	dated := g.store.DatedPath(family, date)
	if artifact.Exists(dated) {
		data, err := os.ReadFile(dated)
		if err != nil {
			out.Err = fmt.Errorf("read %s: %w", dated, err)
			return out
		}
		if err := artifact.Publish(g.store.LatestPath(family), data); err != nil {
			out.Err = err
			return out
		}
		out.Action = "kept"
		out.Pointer = artifact.Pointer{Family: family, LogicalName: string(family) + "_latest", PhysicalPath: dated}
		return out
	}

	doc, err := g.derive(family, date)
	action := "derived"
	if err != nil {
		if !stubAllowed(family) {
			out.Err = err
			return out
		}
		doc = g.stub(family, date, err)
		action = "stub"
	}

	data, err := artifact.EncodeJSON(doc)
	if err != nil {
		out.Err = err
		return out
	}
	ptr, err := g.store.PublishDatedAndLatest(family, date, data)
	if err != nil {
		out.Err = err
		return out
	}
	out.Action = action
	out.Pointer = ptr
	return out
}

// derive produces a missing dated document from its upstream artifacts.
func (g *Guard) derive(family artifact.Family, date string) (any, error) {
	switch family {
	case artifact.FamilyNews:
		raw, err := g.store.ReadRaw(date)
		if err != nil {
			return nil, err
		}
		doc, err := materialize.Materialize(raw, date)
		if err != nil {
			return nil, err
		}
		return doc, nil

	case artifact.FamilySentiment:
		news, err := g.readNews(date)
		if err != nil {
			return nil, err
		}
		return sentiment.Score(news), nil

	case artifact.FamilySummary:
		news, err := g.readNews(date)
		if err != nil {
			return nil, err
		}
		sent, err := g.readSentiment(date)
		if err != nil {
			return nil, err
		}
		return models.SummaryDocument{
			Date:        date,
			Headline:    topHeadline(news),
			Articles:    sent.Today.Articles,
			Risk:        sent.Today.Risk,
			Positive:    sent.Today.Positive,
			Uncertainty: sent.Today.Uncertainty,
			Method:      "derived",
		}, nil

	case artifact.FamilyViewModel:
		news, err := g.readNews(date)
		if err != nil {
			return nil, err
		}
		sent, err := g.readSentiment(date)
		if err != nil {
			return nil, err
		}
		return models.ViewModelDocument{
			Date:             date,
			GeneratedAt:      g.now().UTC().Format(time.RFC3339),
			SentimentSummary: sent.Today,
			Articles:         join.Merge(news, sent),
			Method:           "derived",
		}, nil

	case artifact.FamilyOverlay:
		sent, err := g.readSentiment(date)
		if err != nil {
			return nil, err
		}
		src, err := fxrate.Load(g.store.FXRatePath(g.fxPair), g.fxPair)
		if err != nil {
			return nil, err
		}
		rate, rateDate, err := src.Lookup(date)
		if err != nil {
			return nil, err
		}
		return models.OverlayDocument{
			Date:        date,
			Pair:        g.fxPair,
			Rate:        rate,
			RateDate:    rateDate,
			Articles:    sent.Today.Articles,
			Risk:        sent.Today.Risk,
			Positive:    sent.Today.Positive,
			Uncertainty: sent.Today.Uncertainty,
			Method:      "derived",
		}, nil
	}
	return nil, fmt.Errorf("unknown family %q: %w", family, fault.ErrDerivationFailed)
}

// stub synthesizes the minimal placeholder for a narrative family.
func (g *Guard) stub(family artifact.Family, date string, cause error) any {
	reason := "derivation impossible"
	for _, sentinel := range []error{
		fault.ErrInputMissing, fault.ErrInputUnparsable,
		fault.ErrDerivationFailed, fault.ErrWriteFailed,
	} {
		if errors.Is(cause, sentinel) {
			reason = sentinel.Error()
			break
		}
	}

	switch family {
	case artifact.FamilySummary:
		return models.SummaryDocument{Date: date, Headline: "(no data)", Method: "stub", Reason: reason}
	case artifact.FamilyViewModel:
		return models.ViewModelDocument{
			Date:        date,
			GeneratedAt: g.now().UTC().Format(time.RFC3339),
			Articles:    []models.JoinedArticle{},
			Method:      "stub",
			Reason:      reason,
		}
	default:
		return models.OverlayDocument{Date: date, Pair: g.fxPair, Method: "stub", Reason: reason}
	}
}

func (g *Guard) readNews(date string) (models.NewsDocument, error) {
	var news models.NewsDocument
	err := artifact.ReadJSON(g.store.DatedPath(artifact.FamilyNews, date), &news)
	return news, err
}

func (g *Guard) readSentiment(date string) (models.SentimentDocument, error) {
	var sent models.SentimentDocument
	err := artifact.ReadJSON(g.store.DatedPath(artifact.FamilySentiment, date), &sent)
	return sent, err
}

func topHeadline(news models.NewsDocument) string {
	for _, a := range news.Articles {
		if a.Title != "" {
			return a.Title
		}
	}
	return "(no articles)"
}
