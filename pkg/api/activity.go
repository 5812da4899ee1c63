package api

import (
	"time"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/repository"
)

type articleBody struct {
	ArticleID int64 `json:"article_id"`
}

type tweetBody struct {
	TweetLink string `json:"tweet_link"`
}

// ShareArticle reposts an article to the caller's followers.
func ShareArticle(id int64) (string, error) {
	return postMessage("/share_articles", articleBody{ArticleID: id})
}

// ShareTweet reposts a tweet to the caller's followers.
func ShareTweet(link string) (string, error) {
	return postMessage("/share_tweets", tweetBody{TweetLink: link})
}

// SaveArticle bookmarks an article.
func SaveArticle(id int64) (string, error) {
	return postMessage("/save-articles", articleBody{ArticleID: id})
}

// SaveTweet bookmarks a tweet.
func SaveTweet(link string) (string, error) {
	return postMessage("/save-tweets", tweetBody{TweetLink: link})
}

// IsTweetSaved reports whether the caller bookmarked a tweet.
func IsTweetSaved(link string) (bool, error) {
	var resp struct {
		IsSaved bool `json:"isSaved"`
	}
	if err := post("/is-tweet-saved", tweetBody{TweetLink: link}, &resp); err != nil {
		return false, err
	}
	return resp.IsSaved, nil
}

// UnsaveArticle removes a bookmarked article.
func UnsaveArticle(id int64) (string, error) {
	return postMessage("/unsave-article", articleBody{ArticleID: id})
}

// UnsaveTweet removes a bookmarked tweet.
func UnsaveTweet(link string) (string, error) {
	return postMessage("/unsave-tweet", tweetBody{TweetLink: link})
}

// GetSaved lists the caller's bookmarks, newest first.
func GetSaved() ([]repository.SavedRef, error) {
	var resp envelope[[]repository.SavedRef]
	if err := post("/show-saved", map[string]string{}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetSharedContent lists shares by the caller and the users they follow.
func GetSharedContent() ([]repository.SharedRef, error) {
	var resp struct {
		Shared []repository.SharedRef `json:"shared_content"`
	}
	err := post("/get_shared_content", followBody{}, &resp)
	if IsNotFound(err) {
		return nil, nil
	}
	return resp.Shared, err
}

// Repost is a share with the content it points at.
type Repost struct {
	RepostedBy      string    `json:"reposted_by_username,omitempty"`
	RepostedAt      time.Time `json:"reposted_at"`
	ContentType     string    `json:"content_type"`
	OriginalContent feed.Item `json:"original_content"`
}

// GetFriendsReposts pages through shares by the users the caller follows.
func GetFriendsReposts(page, limit int) ([]Repost, error) {
	var resp envelope[[]Repost]
	body := map[string]int{"page": page, "limit": limit}
	if err := post("/get_friends_reposts_feed", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
