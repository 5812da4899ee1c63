package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/pkg/api"
	"github.com/chronically/chronically/pkg/client"
	"github.com/chronically/chronically/pkg/config"
	"github.com/chronically/chronically/pkg/credentials"
	"github.com/chronically/chronically/pkg/output"
)

const (
	articlesBody = `{"status":"Articles found","data":[
		{"id":1,"headline":"Old story","category":"World","date":"2026-01-01T10:00:00Z","clusterID":-1},
		{"id":2,"headline":"New story","category":"World","date":"2026-01-01T12:00:00Z","clusterID":-1}]}`
	tweetsBody = `{"status":"Tweets found","data":[
		{"Tweet_Link":"https://x.com/a/1","Username":"a","Tweet":"t1","Created_At":"2026-01-01T11:00:00Z"},
		{"Tweet_Link":"https://x.com/a/2","Username":"a","Tweet":"t2","Created_At":"2026-01-01T09:00:00Z"},
		{"Tweet_Link":"https://x.com/a/3","Username":"a","Tweet":"t3","Created_At":"2026-01-01T08:00:00Z"}]}`
)

// newTestServer points the client at routes and captures output.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *bytes.Buffer {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	if err := config.Init(filepath.Join(t.TempDir(), "config.toml")); err != nil {
		t.Fatalf("config.Init: %v", err)
	}
	config.Set("api.base_url", srv.URL)
	client.Init()

	var buf bytes.Buffer
	prev := output.Writer
	output.Writer = &buf
	t.Cleanup(func() { output.Writer = prev })
	return &buf
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestComposeFeedMixesBothFetches(t *testing.T) {
	var hits atomic.Int32
	newTestServer(t, map[string]http.HandlerFunc{
		"/get-articles": func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			jsonHandler(articlesBody)(w, r)
		},
		"/get-tweets": func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			jsonHandler(tweetsBody)(w, r)
		},
	})

	items, err := ComposeFeed(context.Background(), "World", 0.6)
	if err != nil {
		t.Fatalf("ComposeFeed: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("Expected both routes to be called, got %d", hits.Load())
	}
	// 5 items at 0.6: 3 tweets and 2 articles, newest first.
	if len(items) != 5 {
		t.Fatalf("Expected 5 items, got %d", len(items))
	}
	wantTypes := []string{feed.TypeArticle, feed.TypeTweet, feed.TypeArticle, feed.TypeTweet, feed.TypeTweet}
	for i, want := range wantTypes {
		if items[i].Type != want {
			t.Errorf("items[%d].Type = %s, want %s", i, items[i].Type, want)
		}
	}
	if items[0].Article.Headline != "New story" {
		t.Errorf("Expected newest article first, got %s", items[0].Article.Headline)
	}
}

func TestComposeFeedFailsWhenOneFetchFails(t *testing.T) {
	newTestServer(t, map[string]http.HandlerFunc{
		"/get-articles": jsonHandler(articlesBody),
		"/get-tweets": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":"Error","code":"BAD_REQUEST","message":"nope"}`))
		},
	})

	_, err := ComposeFeed(context.Background(), "World", 0.7)
	if err == nil || !strings.Contains(err.Error(), "tweets") {
		t.Errorf("Expected a tweets error, got %v", err)
	}
}

func TestFeedViewEmpty(t *testing.T) {
	buf := newTestServer(t, map[string]http.HandlerFunc{
		"/get-allarticles": jsonHandler(`{"status":"No articles found"}`),
		"/get-alltweets":   jsonHandler(`{"status":"No tweets found"}`),
	})

	if err := NewFeedService().View(context.Background(), "", false, -1); err != nil {
		t.Fatalf("View: %v", err)
	}
	if !strings.Contains(buf.String(), "No news yet") {
		t.Errorf("Expected the empty message, got %q", buf.String())
	}
}

func TestFeedViewFromServer(t *testing.T) {
	buf := newTestServer(t, map[string]http.HandlerFunc{
		"/my-news": jsonHandler(`{"status":"Success","category":"Sports","data":[
			{"type":"tweet","Tweet_Link":"https://x.com/s/1","Tweet":"goal","Created_At":"2026-01-01T11:00:00Z"}],
			"meta":{"count":1,"tweet_count":1}}`),
	})

	if err := NewFeedService().View(context.Background(), "", true, -1); err != nil {
		t.Fatalf("View: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Sports") || !strings.Contains(out, "goal") {
		t.Errorf("Expected the server feed in output, got %q", out)
	}
}

func TestLoginWithTokenSavesCredentials(t *testing.T) {
	newTestServer(t, map[string]http.HandlerFunc{
		"/get-username": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"status":"Error","message":"bad token"}`))
				return
			}
			jsonHandler(`{"status":"Success","username":"alice"}`)(w, r)
		},
	})

	if err := NewAuthService().Login(LoginOptions{Token: "tok-1"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	creds, err := credentials.Load()
	if err != nil || creds == nil {
		t.Fatalf("Expected saved credentials, got %v %v", creds, err)
	}
	if creds.Username != "alice" || creds.Token != "tok-1" {
		t.Errorf("Unexpected credentials %+v", creds)
	}

	if err := NewAuthService().Login(LoginOptions{Token: "wrong"}); err == nil {
		t.Error("Expected a rejected token to fail")
	}

	if err := NewAuthService().Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := RequireLogin(); err == nil {
		t.Error("Expected RequireLogin to fail after logout")
	}
}

func TestThreadOrder(t *testing.T) {
	id := func(v int64) *int64 { return &v }
	rows := []commentRow{
		{ID: 1, Content: "root a"},
		{ID: 2, Content: "root b"},
		{ID: 3, Parent: id(1), Content: "reply a"},
		{ID: 4, Parent: id(3), Content: "reply to reply"},
		{ID: 5, Parent: id(99), Content: "orphan"},
	}
	got := threadOrder(rows)
	want := []int64{1, 3, 4, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].ID != w {
			t.Errorf("position %d: got id %d, want %d", i, got[i].ID, w)
		}
	}
}

func TestParseArticleID(t *testing.T) {
	if id, err := ParseArticleID("42"); err != nil || id != 42 {
		t.Errorf("ParseArticleID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "0", "-3"} {
		if _, err := ParseArticleID(bad); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestChronologicalSendsFilters(t *testing.T) {
	var got api.ChronologicalQuery
	buf := newTestServer(t, map[string]http.HandlerFunc{
		"/get-chronological-feed": func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode body: %v", err)
			}
			jsonHandler(`{"status":"Content found","data":[
				{"type":"tweet","Tweet_Link":"https://bsky.app/p/1","Tweet":"sky post","sourcename":"bluesky","Created_At":"2026-01-01T11:00:00Z"}]}`)(w, r)
		},
	})

	q := api.ChronologicalQuery{Categories: []string{"World"}, Region: "EU", ItemType: feed.ItemTypeBluesky, Page: 2, Limit: 5}
	if err := NewFeedService().Chronological(q); err != nil {
		t.Fatalf("Chronological: %v", err)
	}
	if got.ItemType != feed.ItemTypeBluesky || got.Region != "EU" || got.Page != 2 || got.Limit != 5 {
		t.Errorf("Unexpected request %+v", got)
	}
	out := buf.String()
	if !strings.Contains(out, "bluesky") || !strings.Contains(out, "sky post") {
		t.Errorf("Expected the bluesky row in output, got %q", out)
	}
}

func TestChronologicalEmpty(t *testing.T) {
	buf := newTestServer(t, map[string]http.HandlerFunc{
		"/get-chronological-feed": jsonHandler(`{"status":"No content found for the given criteria","data":[]}`),
	})

	if err := NewFeedService().Chronological(api.ChronologicalQuery{ItemType: feed.ItemTypeAll}); err != nil {
		t.Fatalf("Chronological: %v", err)
	}
	if !strings.Contains(buf.String(), "No content found") {
		t.Errorf("Expected the empty message, got %q", buf.String())
	}
}

func TestTrendingPassesRegion(t *testing.T) {
	var region string
	buf := newTestServer(t, map[string]http.HandlerFunc{
		"/get_trending_tweets": func(w http.ResponseWriter, r *http.Request) {
			region = r.URL.Query().Get("region")
			jsonHandler(tweetsBody)(w, r)
		},
	})

	if err := NewContentService().Trending("EU"); err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if region != "EU" {
		t.Errorf("Expected region EU in the query, got %q", region)
	}
	if !strings.Contains(buf.String(), "Trending in EU") {
		t.Errorf("Expected the region heading, got %q", buf.String())
	}
}

func TestExplainRoutesByReference(t *testing.T) {
	var articleID int64
	var tweetLink string
	buf := newTestServer(t, map[string]http.HandlerFunc{
		"/explain_article": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				ArticleID int64 `json:"article_id"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			articleID = body.ArticleID
			jsonHandler(`{"status":"Success","article_id":42,"explanation":"article context"}`)(w, r)
		},
		"/explain_tweet": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				TweetLink string `json:"tweetlink"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			tweetLink = body.TweetLink
			jsonHandler(`{"status":"Success","explanation":"tweet context"}`)(w, r)
		},
	})

	cs := NewContentService()
	if err := cs.Explain("42"); err != nil {
		t.Fatalf("Explain article: %v", err)
	}
	if err := cs.Explain("https://x.com/a/1"); err != nil {
		t.Fatalf("Explain tweet: %v", err)
	}
	if articleID != 42 {
		t.Errorf("Expected article_id 42, got %d", articleID)
	}
	if tweetLink != "https://x.com/a/1" {
		t.Errorf("Expected the tweet link to be sent, got %q", tweetLink)
	}
	out := buf.String()
	if !strings.Contains(out, "article context") || !strings.Contains(out, "tweet context") {
		t.Errorf("Expected both explanations in output, got %q", out)
	}
}
