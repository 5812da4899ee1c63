package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func TestArticlesByCategory(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateArticle(t, db, "old-politics", "POLITICS", day, 0)
	testutil.CreateArticle(t, db, "new-politics", "WORLD POLITICS", day.Add(time.Hour), 0)
	testutil.CreateArticle(t, db, "sports", "SPORTS", day.Add(2*time.Hour), 0)
	repo := NewContentRepository(db)
	ctx := context.Background()

	got, err := repo.Articles(ctx, "POLITICS", 1000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new-politics", got[0].Headline)

	all, err := repo.Articles(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := repo.Articles(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestTweetsByCategory(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateTweet(t, db, "t1", "budget vote", "Politics,Economy", day, 5)
	testutil.CreateTweet(t, db, "t2", "goal!", "Sports", day.Add(time.Hour), 9)
	repo := NewContentRepository(db)

	got, err := repo.Tweets(context.Background(), "Economy", 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].TweetLink)

	tw, err := repo.TweetByLink(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, "goal!", tw.Tweet)

	_, err = repo.TweetByLink(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTweetNotFound)
}

func TestRelated(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateArticle(t, db, "a", "WORLD", day, 7)
	b := testutil.CreateArticle(t, db, "b", "WORLD", day, 7)
	testutil.CreateArticle(t, db, "c", "WORLD", day, 8)
	lone := testutil.CreateArticle(t, db, "lone", "WORLD", day, -1)
	repo := NewContentRepository(db)
	ctx := context.Background()

	got, err := repo.Related(ctx, a.ID, 1000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = repo.Related(ctx, lone.ID, 1000)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.Related(ctx, 9999, 1000)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestTrendingWindow(t *testing.T) {
	db := testutil.NewDB(t)
	newest := day.Add(20 * time.Hour)
	testutil.CreateTweet(t, db, "today", "x", "", newest, 1)
	testutil.CreateTweet(t, db, "yesterday", "x", "", day.Add(-20*time.Hour), 50)
	testutil.CreateTweet(t, db, "stale", "x", "", day.Add(-50*time.Hour), 1000)
	repo := NewContentRepository(db)

	got, err := repo.Trending(context.Background(), "", 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "yesterday", got[0].TweetLink, "ordered by favorites")
	assert.Equal(t, "today", got[1].TweetLink)
}

func TestTrendingEmpty(t *testing.T) {
	repo := NewContentRepository(testutil.NewDB(t))
	got, err := repo.Trending(context.Background(), "", 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchMergesNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateArticle(t, db, "election results", "POLITICS", day, 0)
	testutil.CreateTweet(t, db, "t1", "election night", "", day.Add(time.Hour), 0)
	testutil.CreateTweet(t, db, "t2", "weather", "", day.Add(2*time.Hour), 0)
	repo := NewContentRepository(db)

	refs, err := repo.Search(context.Background(), "election", 50)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, TypeTweet, refs[0].Type)
	assert.Equal(t, "t1", refs[0].ID)
	assert.True(t, refs[0].Time.Equal(day.Add(time.Hour)))
	assert.Equal(t, TypeArticle, refs[1].Type)
	assert.Equal(t, strconv.FormatInt(a.ID, 10), refs[1].ID)
}

func TestTrendingByRegion(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateTweet(t, db, "us", "x", "", day, 1)
	testutil.CreateTweet(t, db, "uk", "x", "", day.Add(time.Hour), 5)
	require.NoError(t, db.Model(&models.Tweet{}).Where("Tweet_Link = ?", "us").Update("Region", "US").Error)
	require.NoError(t, db.Model(&models.Tweet{}).Where("Tweet_Link = ?", "uk").Update("Region", "UK").Error)
	repo := NewContentRepository(db)

	got, err := repo.Trending(context.Background(), "US", 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "us", got[0].TweetLink)

	got, err = repo.Trending(context.Background(), "", 100)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRecentContentFilters(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateTweet(t, db, "t-sports", "x", "Sports,World", day, 0)
	testutil.CreateTweet(t, db, "t-tech", "x", "Tech", day.Add(time.Hour), 0)
	testutil.CreateTweet(t, db, "b-sports", "x", "Sports", day.Add(2*time.Hour), 0)
	require.NoError(t, db.Model(&models.Tweet{}).Where("Tweet_Link = ?", "b-sports").
		Updates(map[string]interface{}{"sourcename": models.SourceBluesky, "Region": "US"}).Error)
	testutil.CreateArticle(t, db, "a-sports", "SPORTS", day, 0)
	tech := testutil.CreateArticle(t, db, "a-tech", "TECH", day.Add(time.Hour), 0)
	require.NoError(t, db.Model(&models.Article{}).Where("id = ?", tech.ID).Update("Region", "US").Error)
	repo := NewContentRepository(db)
	ctx := context.Background()

	tweets, err := repo.RecentTweets(ctx, ContentFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, tweets, 3)
	assert.Equal(t, "b-sports", tweets[0].TweetLink)
	assert.Equal(t, models.SourceTweet, tweets[1].SourceName)

	tweets, err = repo.RecentTweets(ctx, ContentFilter{Categories: []string{"Sports", "Tech"}, Sources: []string{models.SourceTweet}}, 0)
	require.NoError(t, err)
	require.Len(t, tweets, 2)
	assert.Equal(t, "t-tech", tweets[0].TweetLink)

	tweets, err = repo.RecentTweets(ctx, ContentFilter{Region: "US"}, 1)
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	assert.Equal(t, "b-sports", tweets[0].TweetLink)

	articles, err := repo.RecentArticles(ctx, ContentFilter{Categories: []string{"SPORTS"}}, 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "a-sports", articles[0].Headline)

	articles, err = repo.RecentArticles(ctx, ContentFilter{Region: "US"}, 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, tech.ID, articles[0].ID)
}

func TestSetExplanations(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateTweet(t, db, "t1", "x", "", day, 0)
	a := testutil.CreateArticle(t, db, "a", "WORLD", day, 0)
	repo := NewContentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetTweetExplanation(ctx, "t1", "context"))
	tw, err := repo.TweetByLink(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "context", tw.Explanation)
	assert.ErrorIs(t, repo.SetTweetExplanation(ctx, "none", "x"), ErrTweetNotFound)

	require.NoError(t, repo.SetArticleExplanation(ctx, a.ID, "summary"))
	got, err := repo.ArticleByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "summary", got.Explanation)
	assert.ErrorIs(t, repo.SetArticleExplanation(ctx, 9999, "x"), ErrArticleNotFound)
}
