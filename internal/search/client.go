package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/telemetry"
	"github.com/elastic/go-elasticsearch/v8"
)

// Index names
const (
	IndexArticles = "articles"
	IndexTweets   = "tweets"
)

// Client wraps the Elasticsearch client with the article and tweet indices.
type Client struct {
	es *elasticsearch.Client
}

// NewClient creates a client for cfg and verifies the cluster answers.
func NewClient(cfg config.ElasticsearchConfig) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: telemetry.NewInstrumentedTransport("elasticsearch", nil),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	return &Client{es: es}, nil
}

// Ping reports whether the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// InitializeIndices creates the article and tweet indices when missing.
func (c *Client) InitializeIndices(ctx context.Context) error {
	if err := c.createIndex(ctx, IndexArticles, articleMapping()); err != nil {
		return fmt.Errorf("failed to create articles index: %w", err)
	}
	if err := c.createIndex(ctx, IndexTweets, tweetMapping()); err != nil {
		return fmt.Errorf("failed to create tweets index: %w", err)
	}
	return nil
}

func articleMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"type":              map[string]interface{}{"type": "keyword"},
				"id":                map[string]interface{}{"type": "keyword"},
				"time":              map[string]interface{}{"type": "date"},
				"headline":          map[string]interface{}{"type": "text", "analyzer": "standard"},
				"short_description": map[string]interface{}{"type": "text", "analyzer": "standard"},
				"author":            map[string]interface{}{"type": "text"},
				"category":          map[string]interface{}{"type": "keyword"},
			},
		},
	}
}

func tweetMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"type":     map[string]interface{}{"type": "keyword"},
				"id":       map[string]interface{}{"type": "keyword"},
				"time":     map[string]interface{}{"type": "date"},
				"text":     map[string]interface{}{"type": "text", "analyzer": "standard"},
				"author":   map[string]interface{}{"type": "keyword"},
				"category": map[string]interface{}{"type": "text"},
			},
		},
	}
}

func (c *Client) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	res, err := c.es.Indices.Exists([]string{indexName}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("creating index", res.Status(), res.Body)
	}
	return nil
}

// DeleteIndex drops an index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, indexName string) error {
	ctx, span := telemetry.TraceElasticsearchCall(ctx, "delete_index", indexName)
	defer span.End()

	res, err := c.es.Indices.Delete([]string{indexName}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		err := responseError("deleting index", res.Status(), res.Body)
		telemetry.RecordServiceError(span, err)
		return err
	}
	return nil
}

// IndexArticle indexes or replaces one article.
func (c *Client) IndexArticle(ctx context.Context, doc ContentDoc) error {
	return c.index(ctx, IndexArticles, doc.ID, doc)
}

// IndexTweet indexes or replaces one tweet.
func (c *Client) IndexTweet(ctx context.Context, doc ContentDoc) error {
	return c.index(ctx, IndexTweets, tweetDocumentID(doc.ID), doc)
}

func (c *Client) index(ctx context.Context, indexName, id string, doc ContentDoc) error {
	ctx, span := telemetry.TraceElasticsearchCall(ctx, "index", indexName)
	defer span.End()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", doc.Type, err)
	}

	res, err := c.es.Index(indexName, bytes.NewReader(body),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to index %s: %w", doc.Type, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		err := responseError("indexing "+doc.Type, res.Status(), res.Body)
		telemetry.RecordServiceError(span, err)
		return err
	}
	return nil
}

// SearchContent matches article headlines and descriptions and tweet text
// across both indices, newest first.
func (c *Client) SearchContent(ctx context.Context, query string, limit int) ([]repository.ContentRef, error) {
	indices := IndexArticles + "," + IndexTweets
	ctx, span := telemetry.TraceElasticsearchCall(ctx, "search", indices)
	defer span.End()

	body, err := json.Marshal(contentQuery(query, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexArticles, IndexTweets),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		err := responseError("searching content", res.Status(), res.Body)
		telemetry.RecordServiceError(span, err)
		return nil, err
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				Source ContentDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	refs := make([]repository.ContentRef, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		refs = append(refs, hit.Source.Ref())
	}
	repository.SortRefsNewestFirst(refs)
	return refs, nil
}

func contentQuery(query string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"headline^2", "short_description", "text"},
				"fuzziness": "AUTO",
			},
		},
		"sort": []map[string]interface{}{
			{"time": map[string]interface{}{"order": "desc"}},
		},
		"_source": []string{"type", "id", "time"},
		"size":    limit,
	}
}

func responseError(action, status string, body io.Reader) error {
	var errResp map[string]interface{}
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return fmt.Errorf("error %s [%s]", action, status)
	}
	return fmt.Errorf("error %s: [%s] %v", action, status, errResp["error"])
}
