// Package feed builds the "My News" feed: a mix of articles and tweets in a
// fixed count ratio, newest first.
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chronically/chronically/internal/models"
)

// DefaultTweetRatio is the share of the feed given to tweets.
const DefaultTweetRatio = 0.7

// Item kinds.
const (
	TypeArticle = "article"
	TypeTweet   = "tweet"
)

// Item is one feed entry. Exactly one of Article and Tweet is set. On the
// wire the content fields are flattened next to a "type" key.
type Item struct {
	Type    string
	Article *models.Article
	Tweet   *models.Tweet
}

// Time is the timestamp the feed is ordered by.
func (i Item) Time() time.Time {
	switch {
	case i.Article != nil:
		return i.Article.Date
	case i.Tweet != nil:
		return i.Tweet.CreatedAt
	}
	return time.Time{}
}

func (i Item) MarshalJSON() ([]byte, error) {
	var body []byte
	var err error
	switch {
	case i.Article != nil:
		body, err = json.Marshal(i.Article)
	case i.Tweet != nil:
		body, err = json.Marshal(i.Tweet)
	default:
		return nil, fmt.Errorf("feed item %q has no content", i.Type)
	}
	if err != nil {
		return nil, err
	}
	typ, err := json.Marshal(i.Type)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Type {
	case TypeArticle:
		var a models.Article
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		*i = Item{Type: TypeArticle, Article: &a}
	case TypeTweet:
		var t models.Tweet
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*i = Item{Type: TypeTweet, Tweet: &t}
	default:
		return fmt.Errorf("unknown feed item type %q", head.Type)
	}
	return nil
}

// Compose mixes tweets and articles. When both are present the feed keeps
// floor(total*tweetRatio) tweets and floor(total*(1-tweetRatio)) articles,
// each capped by what is available and taken from the front of its input.
// When only one kind is present all of it is kept. The result is ordered by
// time descending; items with equal times keep tweets-then-articles input
// order.
func Compose(tweets []models.Tweet, articles []models.Article, tweetRatio float64) []Item {
	tweetRatio = clampRatio(tweetRatio)

	wantTweets, wantArticles := len(tweets), len(articles)
	if len(tweets) > 0 && len(articles) > 0 {
		total := float64(len(tweets) + len(articles))
		wantTweets = min(len(tweets), floor(total*tweetRatio))
		wantArticles = min(len(articles), floor(total*(1-tweetRatio)))
	}

	items := make([]Item, 0, wantTweets+wantArticles)
	for i := 0; i < wantTweets; i++ {
		items = append(items, Item{Type: TypeTweet, Tweet: &tweets[i]})
	}
	for i := 0; i < wantArticles; i++ {
		items = append(items, Item{Type: TypeArticle, Article: &articles[i]})
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Time().After(items[b].Time())
	})
	return items
}

// floor truncates the float product as is, so 90*0.7 keeps 62 tweets just
// like the web client's Math.floor.
func floor(x float64) int {
	return int(math.Floor(x))
}

func clampRatio(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
