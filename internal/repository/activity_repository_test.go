package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesKeepInsertionOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddPreference(ctx, "alice", "SPORTS"))
	require.NoError(t, repo.AddPreference(ctx, "alice", "POLITICS"))
	assert.ErrorIs(t, repo.AddPreference(ctx, "alice", "SPORTS"), ErrPreferenceExists)

	prefs, err := repo.Preferences(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"SPORTS", "POLITICS"}, prefs)

	n, err := repo.DeletePreferences(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = repo.DeletePreferences(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveAndUnsave(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateArticle(t, db, "a", "WORLD", day, 0)
	testutil.CreateTweet(t, db, "t1", "hello", "", day, 0)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveArticle(ctx, "alice", a.ID))
	assert.ErrorIs(t, repo.SaveArticle(ctx, "alice", a.ID), ErrAlreadySaved)
	assert.ErrorIs(t, repo.SaveArticle(ctx, "alice", 404), ErrArticleNotFound)
	require.NoError(t, repo.SaveTweet(ctx, "alice", "t1"))
	assert.ErrorIs(t, repo.SaveTweet(ctx, "alice", "nope"), ErrTweetNotFound)

	saved, err := repo.Saved(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, TypeTweet, saved[0].Type, "most recently saved first")

	require.NoError(t, repo.UnsaveTweet(ctx, "alice", "t1"))
	assert.ErrorIs(t, repo.UnsaveTweet(ctx, "alice", "t1"), ErrNotSaved)
	require.NoError(t, repo.UnsaveArticle(ctx, "alice", a.ID))
}

func TestSharesPaginateAcrossTables(t *testing.T) {
	db := testutil.NewDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := testutil.CreateArticle(t, db, "a"+string(rune('0'+i)), "WORLD", base, 0)
		require.NoError(t, db.Create(&models.SharedArticle{Username: "bob", ArticleID: a.ID, SharedAt: base.Add(time.Duration(2*i) * time.Hour)}).Error)
		link := "t" + string(rune('0'+i))
		testutil.CreateTweet(t, db, link, "x", "", base, 0)
		require.NoError(t, db.Create(&models.SharedTweet{Username: "carol", TweetLink: link, SharedAt: base.Add(time.Duration(2*i+1) * time.Hour)}).Error)
	}
	repo := NewActivityRepository(db)
	ctx := context.Background()

	page, err := repo.Shares(ctx, []string{"bob", "carol"}, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "t2", page[0].ContentID)
	assert.Equal(t, TypeArticle, page[1].ContentType)

	page, err = repo.Shares(ctx, []string{"bob", "carol"}, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "t0", page[0].ContentID)

	page, err = repo.Shares(ctx, []string{"bob", "carol"}, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = repo.Shares(ctx, []string{"bob", "carol"}, 50, -50)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = repo.Shares(ctx, []string{"bob", "carol"}, 50, math.MaxInt-10)
	assert.ErrorIs(t, err, ErrInvalidPage)

	only, err := repo.Shares(ctx, []string{"bob"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, only, 3)

	n, err := repo.CountShares(ctx, []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	assert.ErrorIs(t, repo.ShareTweet(ctx, "carol", "t0"), ErrAlreadyShared)
}

func TestCommentsAndReplies(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateArticle(t, db, "a", "WORLD", day, 0)
	b := testutil.CreateArticle(t, db, "b", "WORLD", day, 0)
	testutil.CreateTweet(t, db, "t1", "x", "", day, 0)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	root := &models.ArticleComment{ArticleID: a.ID, Username: "alice", Content: "first"}
	require.NoError(t, repo.AddArticleComment(ctx, root))
	require.NotZero(t, root.CommentID)

	reply := &models.ArticleComment{ArticleID: a.ID, Username: "bob", Content: "reply", ParentCommentID: &root.CommentID}
	require.NoError(t, repo.AddArticleComment(ctx, reply))

	wrong := &models.ArticleComment{ArticleID: b.ID, Username: "bob", Content: "x", ParentCommentID: &root.CommentID}
	assert.ErrorIs(t, repo.AddArticleComment(ctx, wrong), ErrParentMismatch)

	comments, err := repo.ArticleComments(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, root.CommentID, *comments[1].ParentCommentID)

	tc := &models.TweetComment{TweetLink: "t1", Username: "alice", Content: "nice"}
	require.NoError(t, repo.AddTweetComment(ctx, tc))
	assert.ErrorIs(t, repo.AddTweetComment(ctx, &models.TweetComment{TweetLink: "none", Username: "a", Content: "x"}), ErrTweetNotFound)

	tcs, err := repo.TweetComments(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, tcs, 1)
}

func TestIsTweetSaved(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateTweet(t, db, "t1", "x", "", time.Now(), 0)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	saved, err := repo.IsTweetSaved(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.False(t, saved)

	require.NoError(t, repo.SaveTweet(ctx, "alice", "t1"))
	saved, err = repo.IsTweetSaved(ctx, "alice", "t1")
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = repo.IsTweetSaved(ctx, "bob", "t1")
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestInteractions(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	track := func(user, item string, age time.Duration) {
		require.NoError(t, repo.TrackInteraction(ctx, &models.UserInteraction{
			Username:        user,
			ItemID:          item,
			ItemType:        models.SourceTweet,
			InteractionType: models.InteractionView,
			Timestamp:       now.Add(-age),
		}))
	}
	track("alice", "t1", time.Hour)
	track("alice", "t1", 2*time.Hour)
	track("bob", "t1", time.Hour)
	track("bob", "t2", 10*24*time.Hour)

	mine, err := repo.UserInteractions(ctx, "alice", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	counts, err := repo.InteractionCounts(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, InteractionCount{ItemType: models.SourceTweet, ItemID: "t1", Count: 3}, counts[0])
}
