package api

import "github.com/chronically/chronically/internal/models"

type commentBody struct {
	ArticleID       int64  `json:"article_id,omitempty"`
	TweetLink       string `json:"tweet_link,omitempty"`
	Content         string `json:"content"`
	ParentCommentID int64  `json:"parent_comment_id,omitempty"`
}

// CommentArticle adds a comment to an article. parent is 0 for a
// top-level comment.
func CommentArticle(id int64, content string, parent int64) (string, error) {
	return postMessage("/comment_article", commentBody{ArticleID: id, Content: content, ParentCommentID: parent})
}

// CommentTweet adds a comment to a tweet.
func CommentTweet(link, content string, parent int64) (string, error) {
	return postMessage("/comment_tweet", commentBody{TweetLink: link, Content: content, ParentCommentID: parent})
}

// GetArticleComments lists an article's comments, oldest first.
func GetArticleComments(id int64) ([]models.ArticleComment, error) {
	var resp envelope[[]models.ArticleComment]
	if err := post("/get_comments_article", articleBody{ArticleID: id}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetTweetComments lists a tweet's comments, oldest first.
func GetTweetComments(link string) ([]models.TweetComment, error) {
	var resp envelope[[]models.TweetComment]
	if err := post("/get_comments_tweet", tweetBody{TweetLink: link}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
