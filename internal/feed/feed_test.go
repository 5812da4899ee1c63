package feed

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func makeTweets(n int, step time.Duration) []models.Tweet {
	out := make([]models.Tweet, n)
	for i := range out {
		out[i] = models.Tweet{TweetLink: fmt.Sprintf("t%d", i), CreatedAt: base.Add(-time.Duration(i) * step)}
	}
	return out
}

func makeArticles(n int, step time.Duration) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{ID: int64(i + 1), Date: base.Add(-time.Duration(i) * step)}
	}
	return out
}

func count(items []Item) (tweets, articles int) {
	for _, it := range items {
		if it.Type == TypeTweet {
			tweets++
		} else {
			articles++
		}
	}
	return
}

func TestComposeRatio(t *testing.T) {
	tests := []struct {
		name                     string
		tweets, articles         int
		ratio                    float64
		wantTweets, wantArticles int
	}{
		{"exact split", 7, 3, 0.7, 7, 3},
		{"tweets capped", 10, 10, 0.7, 10, 6},
		{"articles capped", 100, 5, 0.7, 73, 5},
		{"half", 4, 4, 0.5, 4, 4},
		{"only tweets", 3, 0, 0.7, 3, 0},
		{"only articles", 0, 4, 0.7, 0, 4},
		{"empty", 0, 0, 0.7, 0, 0},
		{"all tweets", 2, 2, 1, 2, 0},
		{"ratio clamped", 2, 2, 3, 2, 0},
		{"float product floored", 63, 27, 0.7, 62, 27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Compose(makeTweets(tt.tweets, time.Minute), makeArticles(tt.articles, time.Minute), tt.ratio)
			gotT, gotA := count(items)
			assert.Equal(t, tt.wantTweets, gotT)
			assert.Equal(t, tt.wantArticles, gotA)
		})
	}
}

func TestComposeTakesFromFrontAndSortsNewestFirst(t *testing.T) {
	tweets := []models.Tweet{
		{TweetLink: "old", CreatedAt: base.Add(-3 * time.Hour)},
		{TweetLink: "new", CreatedAt: base},
		{TweetLink: "dropped", CreatedAt: base.Add(time.Hour)},
	}
	articles := []models.Article{
		{ID: 1, Date: base.Add(-time.Hour)},
		{ID: 2, Date: base.Add(2 * time.Hour)},
	}

	// total 5, ratio 0.5: two tweets and two articles.
	items := Compose(tweets, articles, 0.5)

	want := []Item{
		{Type: TypeArticle, Article: &articles[1]},
		{Type: TypeTweet, Tweet: &tweets[1]},
		{Type: TypeArticle, Article: &articles[0]},
		{Type: TypeTweet, Tweet: &tweets[0]},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("Compose() mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeEqualTimesKeepInputOrder(t *testing.T) {
	tweets := []models.Tweet{{TweetLink: "a", CreatedAt: base}, {TweetLink: "b", CreatedAt: base}}
	articles := []models.Article{{ID: 9, Date: base}}

	items := Compose(tweets, articles, 0.7)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Tweet.TweetLink)
	assert.Equal(t, "b", items[1].Tweet.TweetLink)

	// total 3, ratio 0.34: one tweet and one article, tweets first on ties.
	items = Compose(tweets, articles, 0.34)
	require.Len(t, items, 2)
	assert.Equal(t, TypeTweet, items[0].Type)
	assert.Equal(t, TypeArticle, items[1].Type)
}

func TestItemJSONIsFlat(t *testing.T) {
	tw := models.Tweet{TweetLink: "https://x.com/a/1", Tweet: "hello", CreatedAt: base, Favorites: 3}
	raw, err := json.Marshal(Item{Type: TypeTweet, Tweet: &tw})
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Equal(t, "tweet", flat["type"])
	assert.Equal(t, "https://x.com/a/1", flat["Tweet_Link"])
	assert.Equal(t, "hello", flat["Tweet"])
	assert.EqualValues(t, 3, flat["Favorites"])

	var back Item
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Tweet)
	assert.Nil(t, back.Article)
	assert.Equal(t, tw.TweetLink, back.Tweet.TweetLink)
	assert.True(t, back.Tweet.CreatedAt.Equal(base))
}

func TestItemJSONArticle(t *testing.T) {
	a := models.Article{ID: 42, Headline: "Budget passes", Category: "POLITICS", Date: base, ClusterID: 7}
	raw, err := json.Marshal([]Item{{Type: TypeArticle, Article: &a}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"article"`)
	assert.Contains(t, string(raw), `"headline":"Budget passes"`)
	assert.Contains(t, string(raw), `"clusterID":7`)

	var back []Item
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Len(t, back, 1)
	assert.Equal(t, int64(42), back[0].Article.ID)
}

func TestItemJSONRejectsUnknownType(t *testing.T) {
	var it Item
	assert.Error(t, json.Unmarshal([]byte(`{"type":"video"}`), &it))
	_, err := json.Marshal(Item{Type: TypeTweet})
	assert.Error(t, err)
}
