// Package search maintains the optional article search index. The index is
// a downstream convenience for the display layer; pipeline correctness
// never depends on it.
package search

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"fxradar/internal/fault"
	"fxradar/internal/join"
	"fxradar/internal/models"
)

// IndexedArticle is the search index document shape.
type IndexedArticle struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
}

// SearchParams narrow the article search.
type SearchParams struct {
	Query  string
	Source string
	Start  string // YYYY-MM-DD inclusive
	End    string // YYYY-MM-DD inclusive
	From   int
	Size   int
	Sort   string
}

// SearchResult bundles hits and total count.
type SearchResult struct {
	Total int64            `json:"total"`
	Items []IndexedArticle `json:"items"`
}

// Client wraps go-elasticsearch with helpers tailored to this project.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// New instantiates the search client.
func New(addr, index string, logger *slog.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{es: es, index: index, log: logger}, nil
}

// Ping checks if the search backend is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping search index: %w", fault.ErrDownstreamUnavailable)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search index ping failed: %s: %w", res.Status(), fault.ErrDownstreamUnavailable)
	}
	return nil
}

// ArticleID derives the deterministic index ID from the article's join key,
// so re-indexing the same day overwrites instead of duplicating.
func ArticleID(a models.Article) string {
	key := join.Key(a)
	if key == "" {
		return ""
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// IndexArticles indexes every keyable article of a day's canonical news.
// Returns the number indexed.
func (c *Client) IndexArticles(ctx context.Context, doc models.NewsDocument) (int, error) {
	indexed := 0
	for _, a := range doc.Articles {
		id := ArticleID(a)
		if id == "" {
			continue
		}

		payload, err := json.Marshal(IndexedArticle{
			ID:          id,
			Date:        doc.Date,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source,
			PublishedAt: a.PublishedAt,
		})
		if err != nil {
			return indexed, fmt.Errorf("marshal article: %w", err)
		}

		req := esapi.IndexRequest{
			Index:      c.index,
			DocumentID: id,
			Body:       bytes.NewReader(payload),
			Refresh:    "false",
		}
		res, err := req.Do(ctx, c.es)
		if err != nil {
			return indexed, fmt.Errorf("index article: %w", fault.ErrDownstreamUnavailable)
		}
		if res.IsError() {
			body, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return indexed, fmt.Errorf("index article failed: %s", strings.TrimSpace(string(body)))
		}
		res.Body.Close()
		indexed++
	}
	return indexed, nil
}

// SearchArticles executes a bool query with optional filters.
func (c *Client) SearchArticles(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Size <= 0 {
		params.Size = 20
	}
	if params.Size > 200 {
		params.Size = 200
	}
	if params.From < 0 {
		params.From = 0
	}

	must := make([]map[string]any, 0, 1)
	filters := make([]map[string]any, 0, 2)

	if params.Query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  params.Query,
				"fields": []string{"title^2", "description"},
			},
		})
	}
	if params.Source != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"source": params.Source},
		})
	}
	if params.Start != "" || params.End != "" {
		rangeQuery := map[string]any{}
		if params.Start != "" {
			rangeQuery["gte"] = params.Start
		}
		if params.End != "" {
			rangeQuery["lte"] = params.End
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"date": rangeQuery},
		})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(must) == 0 && len(filters) == 0 {
		boolQuery["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}

	sortField := params.Sort
	if sortField == "" {
		sortField = "date:desc"
	}
	parts := strings.SplitN(sortField, ":", 2)
	field := parts[0]
	if field == "" {
		field = "date"
	}
	order := "desc"
	if len(parts) > 1 && parts[1] != "" {
		order = parts[1]
	}

	body := map[string]any{
		"from":             params.From,
		"size":             params.Size,
		"track_total_hits": true,
		"query":            map[string]any{"bool": boolQuery},
		"sort":             []map[string]any{{field: map[string]any{"order": order}}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", fault.ErrDownstreamUnavailable)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source IndexedArticle `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]IndexedArticle, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}
	return &SearchResult{Total: parsed.Hits.Total.Value, Items: items}, nil
}

// DeleteOlderThan removes indexed articles dated on or before cutoff
// (YYYY-MM-DD) using batched delete-by-query. It loops until a batch
// deletes fewer documents than batchSize.
func (c *Client) DeleteOlderThan(ctx context.Context, cutoff string, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	totalDeleted := int64(0)
	for {
		body := map[string]any{
			"query": map[string]any{
				"range": map[string]any{
					"date": map[string]any{"lte": cutoff},
				},
			},
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
		}

		res, err := c.es.DeleteByQuery(
			[]string{c.index},
			bytes.NewReader(payload),
			c.es.DeleteByQuery.WithContext(ctx),
			c.es.DeleteByQuery.WithWaitForCompletion(true),
			c.es.DeleteByQuery.WithConflicts("proceed"),
			c.es.DeleteByQuery.WithScrollSize(batchSize),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("delete by query: %w", fault.ErrDownstreamUnavailable)
		}
		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode delete response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted
		if parsed.Deleted < int64(batchSize) {
			break
		}
	}
	return totalDeleted, nil
}

// Health checks cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("cluster health: %w", fault.ErrDownstreamUnavailable)
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
