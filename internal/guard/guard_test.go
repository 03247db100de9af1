package guard_test

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"fxradar/internal/artifact"
	"fxradar/internal/guard"
	"fxradar/internal/models"
)

const rawSnapshot = `{
	"fetched_at": "2026-02-13T06:00:00Z",
	"query": "world politics",
	"articles": [
		{"title": "Sanctions tighten", "url": "https://example.com/a", "description": "New sanctions announced.", "source": {"name": "Wire"}},
		{"title": "Ceasefire holds", "url": "https://example.com/b", "description": "A truce brings relief.", "source": {"name": "Wire"}}
	]
}`

func newGuard(t *testing.T) (*guard.Guard, *artifact.Store) {
	t.Helper()
	store := artifact.NewStore(t.TempDir(), "world_politics")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return guard.New(store, log, "usdjpy"), store
}

func writeRaw(t *testing.T, store *artifact.Store, date string) {
	t.Helper()
	require.NoError(t, artifact.Publish(store.RawPath(date), []byte(rawSnapshot)))
}

func requireLatestInvariant(t *testing.T, store *artifact.Store, family artifact.Family, date string) {
	t.Helper()
	dated, err := os.ReadFile(store.DatedPath(family, date))
	require.NoError(t, err)
	latest, err := os.ReadFile(store.LatestPath(family))
	require.NoError(t, err)
	require.Equal(t, dated, latest, "family %s latest must mirror dated", family)
}

func TestEnsureAllDerivesFromRaw(t *testing.T) {
	g, store := newGuard(t)
	date := "2026-02-13"
	writeRaw(t, store, date)

	outcomes := g.EnsureAll(date)
	require.Len(t, outcomes, len(artifact.Families))

	for _, o := range outcomes {
		require.NoError(t, o.Err, "family %s", o.Family)
		requireLatestInvariant(t, store, o.Family, date)
	}

	var sent models.SentimentDocument
	require.NoError(t, artifact.ReadJSON(store.DatedPath(artifact.FamilySentiment, date), &sent))
	require.Equal(t, date, sent.Date)
	require.Equal(t, "lexicon", sent.Method)
	require.Equal(t, 2, sent.Today.Articles)

	// No FX feed in this tree: the overlay is an explicit stub.
	var overlay models.OverlayDocument
	require.NoError(t, artifact.ReadJSON(store.DatedPath(artifact.FamilyOverlay, date), &overlay))
	require.Equal(t, "stub", overlay.Method)
	require.NotEmpty(t, overlay.Reason)
}

func TestEnsureAllIdempotent(t *testing.T) {
	g, store := newGuard(t)
	date := "2026-02-13"
	writeRaw(t, store, date)

	g.EnsureAll(date)

	before := map[artifact.Family][]byte{}
	for _, f := range artifact.Families {
		data, err := os.ReadFile(store.DatedPath(f, date))
		require.NoError(t, err)
		before[f] = data
	}

	outcomes := g.EnsureAll(date)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		require.Equal(t, "kept", o.Action, "family %s", o.Family)

		after, err := os.ReadFile(store.DatedPath(o.Family, date))
		require.NoError(t, err)
		require.Equal(t, before[o.Family], after)
		requireLatestInvariant(t, store, o.Family, date)
	}
}

func TestEnsureSentimentNeverStubbed(t *testing.T) {
	g, store := newGuard(t)

	o := g.Ensure(artifact.FamilySentiment, "2026-02-13")
	require.Error(t, o.Err)
	require.False(t, artifact.Exists(store.DatedPath(artifact.FamilySentiment, "2026-02-13")))
	require.False(t, artifact.Exists(store.LatestPath(artifact.FamilySentiment)))
}

func TestEnsureNewsKeepsPriorArtifactOnFailedRegeneration(t *testing.T) {
	g, store := newGuard(t)
	date := "2026-02-13"

	prior := []byte(`{"date":"2026-02-13","articles":[{"title":"kept"}]}`)
	require.NoError(t, artifact.Publish(store.DatedPath(artifact.FamilyNews, date), prior))

	// Raw is absent; the existing canonical artifact must survive untouched.
	o := g.Ensure(artifact.FamilyNews, date)
	require.NoError(t, o.Err)
	require.Equal(t, "kept", o.Action)

	data, err := os.ReadFile(store.DatedPath(artifact.FamilyNews, date))
	require.NoError(t, err)
	require.Equal(t, prior, data)
	requireLatestInvariant(t, store, artifact.FamilyNews, date)
}

func TestEnsureSummaryStubWhenInputsMissing(t *testing.T) {
	g, store := newGuard(t)
	date := "2026-02-13"

	o := g.Ensure(artifact.FamilySummary, date)
	require.NoError(t, o.Err)
	require.Equal(t, "stub", o.Action)

	var summary models.SummaryDocument
	require.NoError(t, artifact.ReadJSON(store.DatedPath(artifact.FamilySummary, date), &summary))
	require.Equal(t, "stub", summary.Method)
	require.NotEmpty(t, summary.Reason)
	requireLatestInvariant(t, store, artifact.FamilySummary, date)
}

func TestEnsureOverlayWeekendAdjustment(t *testing.T) {
	g, store := newGuard(t)
	date := "2026-02-14" // a Saturday
	writeRaw(t, store, date)

	csv := "date,rate\n2026-02-12,153.10\n2026-02-13,153.42\n"
	require.NoError(t, artifact.Publish(store.FXRatePath("usdjpy"), []byte(csv)))

	for _, f := range []artifact.Family{artifact.FamilyNews, artifact.FamilySentiment, artifact.FamilyOverlay} {
		o := g.Ensure(f, date)
		require.NoError(t, o.Err, "family %s", f)
	}

	var overlay models.OverlayDocument
	require.NoError(t, artifact.ReadJSON(store.DatedPath(artifact.FamilyOverlay, date), &overlay))
	require.Equal(t, "derived", overlay.Method)
	require.Equal(t, date, overlay.Date)
	require.Equal(t, "2026-02-13", overlay.RateDate)
	require.InDelta(t, 153.42, overlay.Rate, 1e-9)
}

func TestEnsureViewModelJoinsArticles(t *testing.T) {
	g, store := newGuard(t)
	date := "2026-02-13"
	writeRaw(t, store, date)

	for _, f := range []artifact.Family{artifact.FamilyNews, artifact.FamilySentiment, artifact.FamilyViewModel} {
		require.NoError(t, g.Ensure(f, date).Err)
	}

	var vm models.ViewModelDocument
	require.NoError(t, artifact.ReadJSON(store.DatedPath(artifact.FamilyViewModel, date), &vm))
	require.Equal(t, "derived", vm.Method)
	require.Len(t, vm.Articles, 2)
	for _, a := range vm.Articles {
		require.NotNil(t, a.Sentiment)
	}
	require.Equal(t, 2, vm.SentimentSummary.Articles)
}
