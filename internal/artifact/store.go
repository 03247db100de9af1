// Package artifact owns the on-disk artifact tree: conventional paths per
// family, existence checks, and the write-temp-then-rename publish
// discipline that keeps every conventional path either absent or a fully
// written document.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"fxradar/internal/fault"
)

// Family names an artifact family. The physical naming convention is
// <family>_<YYYY-MM-DD>.json for dated artifacts and <family>_latest.json
// for the latest pointer.
type Family string

const (
	FamilyNews      Family = "daily_news"
	FamilySentiment Family = "sentiment"
	FamilySummary   Family = "daily_summary"
	FamilyViewModel Family = "view_model"
	FamilyOverlay   Family = "fx_overlay"
)

// Families lists every family in reconciliation order.
var Families = []Family{FamilyNews, FamilySentiment, FamilySummary, FamilyViewModel, FamilyOverlay}

// Pointer records one latest-pointer publication.
type Pointer struct {
	Family       Family
	LogicalName  string
	PhysicalPath string
}

// Store resolves conventional paths under a single data root.
type Store struct {
	root     string
	category string
}

// NewStore creates a store rooted at root for one news category.
func NewStore(root, category string) *Store {
	return &Store{root: root, category: category}
}

// RawPath is the fetcher-owned raw snapshot path for a date.
func (s *Store) RawPath(date string) string {
	return filepath.Join(s.root, s.category, date+".json")
}

// AnalysisDir holds every derived artifact for the category.
func (s *Store) AnalysisDir() string {
	return filepath.Join(s.root, s.category, "analysis")
}

// DatedPath is the dated artifact path for a family.
func (s *Store) DatedPath(family Family, date string) string {
	return filepath.Join(s.AnalysisDir(), fmt.Sprintf("%s_%s.json", family, date))
}

// LatestPath is the latest-pointer path for a family.
func (s *Store) LatestPath(family Family) string {
	return filepath.Join(s.AnalysisDir(), string(family)+"_latest.json")
}

// TimeseriesPath is the date-indexed sentiment aggregate.
func (s *Store) TimeseriesPath() string {
	return filepath.Join(s.AnalysisDir(), "sentiment_timeseries.csv")
}

// FXRatePath is the daily rate CSV for a pair, e.g. "usdjpy".
func (s *Store) FXRatePath(pair string) string {
	return filepath.Join(s.root, "fx", pair+".csv")
}

// Exists reports whether a non-empty file is present at path.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular() && st.Size() > 0
}

// ReadRaw returns the raw snapshot bytes for a date.
func (s *Store) ReadRaw(date string) ([]byte, error) {
	b, err := os.ReadFile(s.RawPath(date))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("raw snapshot for %s: %w", date, fault.ErrInputMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("read raw snapshot for %s: %w", date, err)
	}
	return b, nil
}

// ReadJSON decodes the document at path into v.
func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", filepath.Base(path), fault.ErrInputMissing)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), fault.ErrInputUnparsable)
	}
	return nil
}

// Publish writes data to path atomically: a temp file in the same
// directory, fsync, then rename. A concurrent reader never observes a
// partial file.
func Publish(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, fault.ErrWriteFailed)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, fault.ErrWriteFailed)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp for %s: %w", path, fault.ErrWriteFailed)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp for %s: %w", path, fault.ErrWriteFailed)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", path, fault.ErrWriteFailed)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, fault.ErrWriteFailed)
	}
	return nil
}

// EncodeJSON renders a document in the one wire format every artifact
// uses: two-space indentation plus a trailing newline. A single encoding
// keeps re-derived artifacts byte-comparable.
func EncodeJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// PublishJSON encodes v and publishes it atomically.
func PublishJSON(path string, v any) error {
	data, err := EncodeJSON(v)
	if err != nil {
		return fmt.Errorf("%s: %w", path, fault.ErrWriteFailed)
	}
	return Publish(path, data)
}

// PublishDatedAndLatest publishes identical bytes to the dated path and the
// latest pointer for the family, dated first so the pointer never leads the
// dated artifact.
func (s *Store) PublishDatedAndLatest(family Family, date string, data []byte) (Pointer, error) {
	dated := s.DatedPath(family, date)
	if err := Publish(dated, data); err != nil {
		return Pointer{}, err
	}
	latest := s.LatestPath(family)
	if err := Publish(latest, data); err != nil {
		return Pointer{}, err
	}
	return Pointer{Family: family, LogicalName: string(family) + "_latest", PhysicalPath: dated}, nil
}

var datedNameRE = regexp.MustCompile(`^([a-z_]+)_(\d{4}-\d{2}-\d{2})\.json$`)

// Dates lists every date with a dated artifact for the family, ascending.
func (s *Store) Dates(family Family) ([]string, error) {
	entries, err := os.ReadDir(s.AnalysisDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis dir: %w", err)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := datedNameRE.FindStringSubmatch(e.Name())
		if m == nil || m[1] != string(family) {
			continue
		}
		dates = append(dates, m[2])
	}
	sort.Strings(dates)
	return dates, nil
}
