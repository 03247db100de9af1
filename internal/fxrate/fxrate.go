// Package fxrate reads the daily FX rate feed. The feed is an opaque
// upstream CSV of date,rate rows; bad rows are skipped and the last value
// per date wins.
package fxrate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"fxradar/internal/fault"
)

// LookbackDays caps how far a rate lookup walks back from the requested
// date. Weekends and single holidays resolve within this window; anything
// older is treated as no rate.
const LookbackDays = 7

// Source holds one pair's daily rates keyed by YYYY-MM-DD.
type Source struct {
	pair  string
	rates map[string]float64
}

// Load reads the rate CSV for a pair. A header row is optional.
func Load(path, pair string) (*Source, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("fx rates for %s: %w", pair, fault.ErrInputMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("open fx rates for %s: %w", pair, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	src := &Source{pair: pair, rates: make(map[string]float64)}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue // malformed row, e.g. a stray quote
		}
		if len(rec) < 2 {
			continue
		}
		date := strings.TrimSpace(rec[0])
		if _, perr := time.Parse("2006-01-02", date); perr != nil {
			continue // header or junk row
		}
		rate, perr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if perr != nil {
			continue
		}
		src.rates[date] = rate
	}

	if len(src.rates) == 0 {
		return nil, fmt.Errorf("fx rates for %s: no usable rows: %w", pair, fault.ErrInputUnparsable)
	}
	return src, nil
}

// Pair returns the pair name the source was loaded for.
func (s *Source) Pair() string { return s.pair }

// Lookup returns the rate in effect on date. Dates without a row (weekends,
// holidays) resolve to the most recent earlier date with a rate, up to
// LookbackDays back. The caller publishes under the original date; the
// returned rateDate records the adjustment.
func (s *Source) Lookup(date string) (rate float64, rateDate string, err error) {
	day, perr := time.Parse("2006-01-02", date)
	if perr != nil {
		return 0, "", fmt.Errorf("fx lookup: bad date %q: %w", date, perr)
	}

	for back := 0; back <= LookbackDays; back++ {
		d := day.AddDate(0, 0, -back).Format("2006-01-02")
		if r, ok := s.rates[d]; ok {
			return r, d, nil
		}
	}
	return 0, "", fmt.Errorf("fx lookup: no rate within %d days of %s: %w", LookbackDays, date, fault.ErrDerivationFailed)
}
