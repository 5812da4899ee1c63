package feed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDBService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	return NewService(
		repository.NewContentRepository(db),
		repository.NewActivityRepository(db),
		repository.NewGraphRepository(db),
		repository.NewUserRepository(db),
		DefaultTweetRatio,
	)
}

func links(items []Scored) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Tweet.TweetLink
	}
	return out
}

func TestForYouScoring(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Now()

	testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")
	users := repository.NewUserRepository(db)
	graph := repository.NewGraphRepository(db)
	activity := repository.NewActivityRepository(db)
	require.NoError(t, users.UpdateFields(ctx, "alice", map[string]interface{}{"Region": "EU"}))
	require.NoError(t, graph.Follow(ctx, "alice", "bob"))
	require.NoError(t, activity.AddPreference(ctx, "alice", "SPORTS"))

	testutil.CreateTweet(t, db, "sci-old", "x", "Science", now.Add(-10*time.Hour), 0)
	testutil.CreateTweet(t, db, "shared", "x", "Politics", now.Add(-5*time.Hour), 0)
	testutil.CreateTweet(t, db, "pref", "x", "sports, tech", now.Add(-4*time.Hour), 0)
	testutil.CreateTweet(t, db, "cat", "x", "science", now.Add(-3*time.Hour), 0)
	region := testutil.CreateTweet(t, db, "region", "x", "Misc", now.Add(-2*time.Hour), 0)
	require.NoError(t, db.Model(region).Update("Region", "eu").Error)
	testutil.CreateTweet(t, db, "plain", "x", "Misc", now.Add(-time.Hour), 0)

	require.NoError(t, activity.ShareTweet(ctx, "bob", "shared"))
	for i := 0; i < 2; i++ {
		require.NoError(t, activity.TrackInteraction(ctx, &models.UserInteraction{
			Username: "alice", ItemID: "sci-old", ItemType: models.SourceTweet, InteractionType: models.InteractionView,
		}))
	}

	svc := newDBService(t, db)
	got, err := svc.ForYou(ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "region", "pref", "sci-old", "cat", "plain"}, links(got))

	scores := map[string]int{}
	for _, it := range got {
		scores[it.Tweet.TweetLink] = it.Score
	}
	assert.Equal(t, map[string]int{
		"shared":  ScoreFollowedShare,
		"region":  ScoreRegion,
		"pref":    ScorePreference,
		"sci-old": 2 + 2*PopularityWeight,
		"cat":     2,
		"plain":   0,
	}, scores)

	page, err := svc.ForYou(ctx, "alice", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"pref", "sci-old"}, links(page))

	past, err := svc.ForYou(ctx, "alice", 5, 100)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestForYouIgnoresStaleInteractions(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Now()

	testutil.CreateUser(t, db, "alice")
	testutil.CreateTweet(t, db, "old", "x", "Science", now.Add(-time.Hour), 0)
	testutil.CreateTweet(t, db, "new", "x", "Misc", now, 0)
	require.NoError(t, db.Create(&models.UserInteraction{
		Username: "alice", ItemID: "old", ItemType: models.SourceTweet,
		InteractionType: models.InteractionView, Timestamp: now.Add(-40 * 24 * time.Hour),
	}).Error)

	got, err := newDBService(t, db).ForYou(ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, links(got))
	assert.Zero(t, got[1].Score)
}

func TestForYouUnknownUserHasNoRegion(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateTweet(t, db, "t1", "x", "Misc", time.Now(), 0)

	got, err := newDBService(t, db).ForYou(context.Background(), "ghost", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Score)
}

func TestChronological(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	testutil.CreateTweet(t, db, "t-old", "x", "Sports", now.Add(-4*time.Hour), 0)
	require.NoError(t, db.Create(&models.Tweet{
		TweetLink: "bsky", Tweet: "x", Categories: "Sports", CreatedAt: now.Add(-2 * time.Hour),
		SourceName: models.SourceBluesky, Region: "EU",
	}).Error)
	a := testutil.CreateArticle(t, db, "match", "SPORTS", now.Add(-3*time.Hour), 0)
	require.NoError(t, db.Model(a).Update("Region", "EU").Error)
	testutil.CreateArticle(t, db, "chips", "TECH", now.Add(-time.Hour), 0)

	svc := newDBService(t, db)
	keys := func(items []Item) []string {
		var out []string
		for _, it := range items {
			if it.Tweet != nil {
				out = append(out, it.Tweet.TweetLink)
			} else {
				out = append(out, it.Article.Headline)
			}
		}
		return out
	}

	tests := []struct {
		name          string
		q             Query
		limit, offset int
		want          []string
	}{
		{"everything", Query{}, 10, 0, []string{"chips", "bsky", "match", "t-old"}},
		{"paged", Query{ItemType: ItemTypeAll}, 2, 1, []string{"bsky", "match"}},
		{"category", Query{Categories: []string{"sport"}}, 10, 0, []string{"bsky", "match", "t-old"}},
		{"region", Query{Region: "EU"}, 10, 0, []string{"bsky", "match"}},
		{"tweets only", Query{ItemType: ItemTypeTweet}, 10, 0, []string{"t-old"}},
		{"bluesky only", Query{ItemType: ItemTypeBluesky}, 10, 0, []string{"bsky"}},
		{"articles only", Query{ItemType: ItemTypeArticle}, 10, 0, []string{"chips", "match"}},
		{"unknown type", Query{ItemType: "video"}, 10, 0, nil},
		{"past the end", Query{}, 10, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Chronological(ctx, tt.q, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, keys(got))
		})
	}
}

func TestScoredJSON(t *testing.T) {
	in := Scored{Item: Item{Type: TypeTweet, Tweet: &models.Tweet{TweetLink: "l", SourceName: models.SourceBluesky}}, Score: 42}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.EqualValues(t, 42, fields["score"])
	assert.Equal(t, TypeTweet, fields["type"])
	assert.Equal(t, "bluesky", fields["sourcename"])

	var out Scored
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 42, out.Score)
	assert.Equal(t, "l", out.Tweet.TweetLink)
}
