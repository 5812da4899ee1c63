package api

import (
	"context"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
)

type categoryBody struct {
	Category string `json:"category"`
}

// GetArticles lists articles in category, or every article when it is empty.
func GetArticles(ctx context.Context, category string) ([]models.Article, error) {
	path := "/get-allarticles"
	if category != "" {
		path = "/get-articles"
	}
	var resp envelope[[]models.Article]
	if err := postCtx(ctx, path, categoryBody{Category: category}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetTweets lists tweets in category, or the newest of every category.
func GetTweets(ctx context.Context, category string) ([]models.Tweet, error) {
	path := "/get-alltweets"
	if category != "" {
		path = "/get-tweets"
	}
	var resp envelope[[]models.Tweet]
	if err := postCtx(ctx, path, categoryBody{Category: category}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetArticle returns one article, or nil when the id is unknown.
func GetArticle(id int64) (*models.Article, error) {
	var resp envelope[*models.Article]
	if err := post("/get-article-by-id", map[string]int64{"id": id}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetRelated lists articles from the same story cluster.
func GetRelated(id int64) ([]models.Article, error) {
	var resp envelope[[]models.Article]
	err := post("/get-related", map[string]int64{"id": id}, &resp)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetTweet returns one tweet, or nil when the link is unknown.
func GetTweet(link string) (*models.Tweet, error) {
	var resp envelope[*models.Tweet]
	if err := post("/get-tweet-by-link", map[string]string{"link": link}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetTrending lists the most favorited recent tweets, from region only when
// it is set.
func GetTrending(region string) ([]models.Tweet, error) {
	var query map[string]string
	if region != "" {
		query = map[string]string{"region": region}
	}
	var resp envelope[[]models.Tweet]
	if err := get("/get_trending_tweets", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ExplainTweet returns a tweet's explanation, generated by the server when
// none is stored.
func ExplainTweet(link string) (string, error) {
	var resp struct {
		Explanation string `json:"explanation"`
	}
	if err := post("/explain_tweet", map[string]string{"tweetlink": link}, &resp); err != nil {
		return "", err
	}
	return resp.Explanation, nil
}

// ExplainArticle is ExplainTweet for articles.
func ExplainArticle(id int64) (string, error) {
	var resp struct {
		Explanation string `json:"explanation"`
	}
	if err := post("/explain_article", articleBody{ArticleID: id}, &resp); err != nil {
		return "", err
	}
	return resp.Explanation, nil
}

// SearchContent matches articles and tweets, newest first.
func SearchContent(query string) ([]repository.ContentRef, error) {
	var resp envelope[[]repository.ContentRef]
	if err := post("/search_content", map[string]string{"searchQuery": query}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MyNewsResponse is the server-composed feed.
type MyNewsResponse struct {
	Category string      `json:"category"`
	Data     []feed.Item `json:"data"`
	Meta     feed.Meta   `json:"meta"`
}

// GetMyNews asks the server to compose the caller's feed.
func GetMyNews(category string) (*MyNewsResponse, error) {
	var resp MyNewsResponse
	if err := post("/my-news", categoryBody{Category: category}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type pageBody struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// GetForYouFeed returns one page of tweets ranked for the caller.
func GetForYouFeed(page, limit int) ([]feed.Scored, error) {
	var resp envelope[[]feed.Scored]
	if err := post("/get-for-you-feed", pageBody{Page: page, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ChronologicalQuery selects a page of the chronological feed. Zero values
// mean no filter and the server's default page.
type ChronologicalQuery struct {
	Categories []string `json:"categories,omitempty"`
	Region     string   `json:"region,omitempty"`
	ItemType   string   `json:"itemTypeFilter,omitempty"`
	Page       int      `json:"page,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// GetChronologicalFeed lists tweets, Bluesky posts and articles newest first.
func GetChronologicalFeed(q ChronologicalQuery) ([]feed.Item, error) {
	var resp envelope[[]feed.Item]
	if err := post("/get-chronological-feed", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// TrackInteraction reports that the caller did something with an item.
// itemType is "article", "tweet" or "bluesky".
func TrackInteraction(ctx context.Context, itemType, itemID, interaction string) error {
	body := map[string]string{"itemId": itemID, "itemType": itemType, "interactionType": interaction}
	return postCtx(ctx, "/track-interaction", body, nil)
}
