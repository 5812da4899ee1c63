package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	refs  []repository.ContentRef
	err   error
	calls int
}

func (f *fakeBackend) SearchContent(ctx context.Context, query string, limit int) ([]repository.ContentRef, error) {
	f.calls++
	return f.refs, f.err
}

func seedContent(t *testing.T) repository.ContentRepository {
	db := testutil.NewDB(t)
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	testutil.CreateArticle(t, db, "Election results", "POLITICS", base, 0)
	testutil.CreateTweet(t, db, "https://x.com/a/status/1", "election night", "POLITICS", base.Add(time.Hour), 3)
	testutil.CreateTweet(t, db, "https://x.com/a/status/2", "football", "SPORTS", base.Add(2*time.Hour), 1)
	return repository.NewContentRepository(db)
}

func TestSearchUsesBackend(t *testing.T) {
	backend := &fakeBackend{refs: []repository.ContentRef{
		{Type: repository.TypeArticle, ID: "1"},
		{Type: repository.TypeArticle, ID: "2"},
		{Type: repository.TypeArticle, ID: "3"},
	}}
	svc := NewService(nil, backend)

	refs, err := svc.Search(context.Background(), "x", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)
	assert.Len(t, refs, 2)
}

func TestSearchFallsBackToSQL(t *testing.T) {
	backend := &fakeBackend{err: errors.New("cluster unavailable")}
	svc := NewService(seedContent(t), backend)

	refs, err := svc.Search(context.Background(), "election", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)
	require.Len(t, refs, 2)
	assert.Equal(t, repository.TypeTweet, refs[0].Type)
	assert.Equal(t, repository.TypeArticle, refs[1].Type)
}

func TestSearchWithoutBackend(t *testing.T) {
	svc := NewService(seedContent(t), nil)

	refs, err := svc.Search(context.Background(), "nothing matches", 10)
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestDocConversion(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := ArticleToDoc(models.Article{ID: 12, Headline: "h", ShortDescription: "d", Date: at})
	assert.Equal(t, repository.ContentRef{Type: repository.TypeArticle, ID: "12", Time: at}, doc.Ref())

	doc = TweetToDoc(models.Tweet{TweetLink: "l", Tweet: "t", CreatedAt: at})
	assert.Equal(t, "t", doc.Text)
	assert.Equal(t, repository.ContentRef{Type: repository.TypeTweet, ID: "l", Time: at}, doc.Ref())
}
