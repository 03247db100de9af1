// Package backfill closes artifact gaps across historical date ranges and
// rebuilds date-indexed aggregates from scratch.
package backfill

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fxradar/internal/artifact"
	"fxradar/internal/guard"
	"fxradar/internal/models"
)

// State classifies one date's artifact presence.
type State string

const (
	StateRawMissing       State = "raw_missing"
	StateRawOnly          State = "raw_only"
	StateNewsMaterialized State = "news_materialized"
	StateSentimentPresent State = "sentiment_present"
)

// GapRecord is the scan result for one date. Existence only; content is
// not validated here.
type GapRecord struct {
	Date            string
	RawExists       bool
	NewsExists      bool
	SentimentExists bool
}

// State derives the classification from the existence flags.
func (r GapRecord) State() State {
	switch {
	case r.SentimentExists:
		return StateSentimentPresent
	case r.NewsExists:
		return StateNewsMaterialized
	case r.RawExists:
		return StateRawOnly
	default:
		return StateRawMissing
	}
}

// Actionable reports whether the date can and should be recovered: raw is
// present but sentiment is not. Dates without raw are unrecoverable.
func (r GapRecord) Actionable() bool {
	return r.RawExists && !r.SentimentExists
}

// Report summarizes one backfill pass.
type Report struct {
	Scanned       int
	Recovered     int
	Unrecoverable int
	Failed        int
}

// Engine drives Guard reconciliation across a date range.
type Engine struct {
	store *artifact.Store
	guard *guard.Guard
	log   *slog.Logger
}

// New builds an Engine sharing the pipeline's store and guard.
func New(store *artifact.Store, g *guard.Guard, log *slog.Logger) *Engine {
	return &Engine{store: store, guard: g, log: log}
}

// Scan classifies every date in [start, end], both YYYY-MM-DD inclusive.
func (e *Engine) Scan(start, end string) ([]GapRecord, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("bad end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end %s before start %s", end, start)
	}

	var records []GapRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		records = append(records, GapRecord{
			Date:            date,
			RawExists:       artifact.Exists(e.store.RawPath(date)),
			NewsExists:      artifact.Exists(e.store.DatedPath(artifact.FamilyNews, date)),
			SentimentExists: artifact.Exists(e.store.DatedPath(artifact.FamilySentiment, date)),
		})
	}
	return records, nil
}

// Run scans the range, drives Guard over every actionable gap, and then
// rebuilds the sentiment time-series from scratch. Dates already holding
// sentiment are left untouched; dates without raw are counted as
// unrecoverable and skipped.
func (e *Engine) Run(start, end string) (Report, error) {
	records, err := e.Scan(start, end)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Scanned: len(records)}
	for _, r := range records {
		state := r.State()
		switch {
		case state == StateSentimentPresent:
			continue
		case !r.RawExists:
			rep.Unrecoverable++
			e.log.Debug("gap unrecoverable", slog.String("date", r.Date), slog.String("state", string(state)))
			continue
		}

		e.log.Info("recovering gap", slog.String("date", r.Date), slog.String("state", string(state)))
		failed := false
		for _, o := range e.guard.EnsureAll(r.Date) {
			if o.Err != nil && !stubAllowedFamily(o.Family) {
				failed = true
			}
		}
		if failed {
			rep.Failed++
			continue
		}
		rep.Recovered++
	}

	if err := e.RebuildTimeseries(); err != nil {
		return rep, err
	}
	return rep, nil
}

func stubAllowedFamily(f artifact.Family) bool {
	return f != artifact.FamilyNews && f != artifact.FamilySentiment
}

// RebuildTimeseries rewrites the sentiment time-series CSV from every
// present dated sentiment document, sorted by date. It never appends:
// a full rewrite guarantees no duplicate or out-of-order rows however many
// times backfill has run.
func (e *Engine) RebuildTimeseries() error {
	dates, err := e.store.Dates(artifact.FamilySentiment)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "articles", "risk", "positive", "uncertainty"}); err != nil {
		return fmt.Errorf("write timeseries header: %w", err)
	}

	for _, date := range dates {
		var sent models.SentimentDocument
		if err := artifact.ReadJSON(e.store.DatedPath(artifact.FamilySentiment, date), &sent); err != nil {
			e.log.Warn("skipping unreadable sentiment", slog.String("date", date), slog.Any("err", err))
			continue
		}
		row := []string{
			date,
			strconv.Itoa(sent.Today.Articles),
			formatScore(sent.Today.Risk),
			formatScore(sent.Today.Positive),
			formatScore(sent.Today.Uncertainty),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write timeseries row %s: %w", date, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush timeseries: %w", err)
	}

	return artifact.Publish(e.store.TimeseriesPath(), buf.Bytes())
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
