package seed

import (
	"context"
	"testing"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDevAndClean(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewSeeder(db)
	ctx := context.Background()

	stats, err := s.SeedDev(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Users)
	assert.Equal(t, 40, stats.Articles)
	assert.Equal(t, 80, stats.Tweets)
	assert.Positive(t, stats.Follows)
	assert.Positive(t, stats.Comments)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 8, users)

	var self int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_username = followed_username").Count(&self).Error)
	assert.Zero(t, self)

	var noPrefs int64
	require.NoError(t, db.Model(&models.User{}).
		Where("username NOT IN (?)", db.Model(&models.Preference{}).Select("username")).
		Count(&noPrefs).Error)
	assert.Zero(t, noPrefs)

	require.NoError(t, s.Clean(ctx))
	for _, m := range []interface{}{&models.User{}, &models.Article{}, &models.Tweet{}, &models.ArticleComment{}, &models.Follow{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}

func TestSeedDevRejectsZeroUsers(t *testing.T) {
	_, err := NewSeeder(testutil.NewDB(t)).SeedDev(context.Background(), 0)
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "AdaLovelace", sanitize("Ada Lovelace!"))
	assert.Equal(t, "john.doe-1", sanitize("john.doe-1"))
	assert.Len(t, sanitize("abcdefghijklmnopqrstuvwxyz0123456789"), 30)
}
