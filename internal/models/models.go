// Package models maps the Chronically schema. Table and column names follow
// the existing MySQL database so the server can run against it unchanged.
package models

// AllModels lists every model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Preference{},
		&Article{},
		&Tweet{},
		&Follow{},
		&FollowRequest{},
		&SavedArticle{},
		&SavedTweet{},
		&SharedArticle{},
		&SharedTweet{},
		&ArticleComment{},
		&TweetComment{},
		&UserInteraction{},
	}
}
