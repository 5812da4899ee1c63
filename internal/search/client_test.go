package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCluster answers just enough of the Elasticsearch API for the client.
type fakeCluster struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	hits     string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies[r.URL.Path] = string(body)
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/":
		io.WriteString(w, `{"version":{"number":"8.19.0"},"tagline":"You Know, for Search"}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		io.WriteString(w, `{"hits":{"hits":`+f.hits+`}}`)
	default:
		io.WriteString(w, `{"result":"created"}`)
	}
}

func newFakeCluster(t *testing.T, hits string) (*fakeCluster, *Client) {
	t.Helper()
	fc := &fakeCluster{bodies: map[string]string{}, hits: hits}
	srv := httptest.NewServer(fc)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.ElasticsearchConfig{URL: srv.URL})
	require.NoError(t, err)
	return fc, c
}

func TestSearchContentParsesHitsNewestFirst(t *testing.T) {
	fc, c := newFakeCluster(t, `[
		{"_source":{"type":"article","id":"4","time":"2024-03-10T08:00:00Z"}},
		{"_source":{"type":"tweet","id":"https://x.com/a/status/1","time":"2024-03-10T12:00:00Z"}}
	]`)

	refs, err := c.SearchContent(context.Background(), "election", 50)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, repository.TypeTweet, refs[0].Type)
	assert.Equal(t, "https://x.com/a/status/1", refs[0].ID)
	assert.True(t, refs[0].Time.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "4", refs[1].ID)

	body := fc.bodies["/articles,tweets/_search"]
	require.NotEmpty(t, body)
	var q map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &q))
	assert.EqualValues(t, 50, q["size"])
	mm := q["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "election", mm["query"])
}

func TestIndexTweetUsesStableDocumentID(t *testing.T) {
	fc, c := newFakeCluster(t, `[]`)

	link := "https://x.com/reporter/status/42"
	require.NoError(t, c.IndexTweet(context.Background(), ContentDoc{Type: repository.TypeTweet, ID: link}))
	require.NoError(t, c.IndexArticle(context.Background(), ContentDoc{Type: repository.TypeArticle, ID: "7"}))

	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Contains(t, fc.requests, "PUT /tweets/_doc/"+tweetDocumentID(link))
	assert.Contains(t, fc.requests, "PUT /articles/_doc/7")
	assert.Equal(t, tweetDocumentID(link), tweetDocumentID(link))
	assert.NotEqual(t, tweetDocumentID(link), tweetDocumentID(link+"1"))
}
