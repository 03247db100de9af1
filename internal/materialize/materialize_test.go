package materialize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fxradar/internal/materialize"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "clean object", input: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "bom prefix", input: "\xEF\xBB\xBF" + `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "banner prefix and trailing whitespace", input: strings.Repeat("#", 40) + "\n" + `{"a":[1,2]}` + "\n\n  ", want: `{"a":[1,2]}`, ok: true},
		{name: "ansi escapes", input: "\x1b[32mOK\x1b[0m{\"a\":1}", want: `{"a":1}`, ok: true},
		{name: "trailing log garbage", input: `{"a":1}` + "\n[INFO] done {", want: `{"a":1}`, ok: true},
		{name: "concatenated json", input: `{"a":1}{"b":2}`, want: `{"a":1}`, ok: true},
		{name: "array payload", input: "noise [1,2,3] tail", want: "[1,2,3]", ok: true},
		{name: "no brackets", input: "plain text only", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := materialize.ExtractPayload([]byte(tt.input))
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestMaterializeNewsAPIShape(t *testing.T) {
	raw := `{
		"fetched_at": "2026-02-14T06:00:00Z",
		"query": "world politics",
		"totalResults": 120,
		"articles": [
			{
				"title": "Summit ends",
				"url": "https://example.com/summit",
				"publishedAt": "2026-02-14T05:00:00Z",
				"description": "Leaders met.",
				"urlToImage": "https://example.com/img.png",
				"source": {"id": "ex", "name": "Example Wire"}
			},
			{
				"headline": "Alt keys",
				"link": "https://example.org/alt",
				"summary": "Variant schema.",
				"image_url": "https://example.org/i.png",
				"publisher": "Example Org"
			},
			{"irrelevant": true}
		]
	}`

	doc, err := materialize.Materialize([]byte(raw), "2026-02-14")
	require.NoError(t, err)

	require.Equal(t, "2026-02-14", doc.Date)
	require.Equal(t, "2026-02-14T06:00:00Z", doc.FetchedAt)
	require.Equal(t, "world politics", doc.Query)
	require.Equal(t, 120, doc.TotalResults)
	require.Len(t, doc.Articles, 2)

	first := doc.Articles[0]
	require.Equal(t, "Summit ends", first.Title)
	require.Equal(t, "https://example.com/img.png", first.Image)
	require.Equal(t, "Example Wire", first.Source)

	second := doc.Articles[1]
	require.Equal(t, "Alt keys", second.Title)
	require.Equal(t, "https://example.org/alt", second.URL)
	require.Equal(t, "Variant schema.", second.Description)
	require.Equal(t, "https://example.org/i.png", second.Image)
	require.Equal(t, "Example Org", second.Source)
}

func TestMaterializeNoisyBanner(t *testing.T) {
	banner := "=== daily fetch run 2026-02-14 ======== \n"
	raw := banner + `{"items":[{"title":"A","url":"https://a.example/x"},{"title":"B","url":"https://b.example/y"}]}` + "   \n\t"
	doc, err := materialize.Materialize([]byte(raw), "2026-02-14")
	require.NoError(t, err)
	require.Len(t, doc.Articles, 2)
	require.Equal(t, 2, doc.TotalResults)
}

func TestMaterializeNestedAndEmpty(t *testing.T) {
	doc, err := materialize.Materialize([]byte(`{"payload":{"articles":[{"title":"Nested"}]}}`), "2026-01-01")
	require.NoError(t, err)
	require.Len(t, doc.Articles, 1)
	require.Equal(t, "Nested", doc.Articles[0].Title)

	doc, err = materialize.Materialize([]byte(`{"articles":[]}`), "2026-01-01")
	require.NoError(t, err)
	require.NotNil(t, doc.Articles)
	require.Empty(t, doc.Articles)
}

func TestMaterializeUnparsable(t *testing.T) {
	_, err := materialize.Materialize([]byte("no json here at all"), "2026-01-01")
	require.Error(t, err)
}
