// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/chronically/chronically/internal/config"
	"github.com/chronically/chronically/internal/database"
	"github.com/chronically/chronically/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database closed at test end.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"}, false)
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active account with a placeholder auth token.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		AuthToken: "hash-" + username,
		FullName:  username,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateArticle inserts an article dated at date.
func CreateArticle(t testing.TB, db *gorm.DB, headline, category string, date time.Time, cluster int64) *models.Article {
	t.Helper()
	a := &models.Article{
		Link:      "https://news.example.com/" + headline,
		Headline:  headline,
		Category:  category,
		Date:      date,
		ClusterID: cluster,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

// CreateTweet inserts a tweet created at createdAt.
func CreateTweet(t testing.TB, db *gorm.DB, link, text, categories string, createdAt time.Time, favorites int) *models.Tweet {
	t.Helper()
	tw := &models.Tweet{
		TweetLink:  link,
		Username:   "reporter",
		Tweet:      text,
		CreatedAt:  createdAt,
		Favorites:  favorites,
		Categories: categories,
	}
	require.NoError(t, db.Create(tw).Error)
	return tw
}
