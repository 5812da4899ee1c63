package search

import (
	"strconv"
	"time"

	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/google/uuid"
)

// ContentDoc is the indexed form of an article or tweet. Both indices share
// the type/id/time fields so one query can sort hits from either.
type ContentDoc struct {
	Type     string    `json:"type"`
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Headline string    `json:"headline,omitempty"`
	Summary  string    `json:"short_description,omitempty"`
	Text     string    `json:"text,omitempty"`
	Author   string    `json:"author,omitempty"`
	Category string    `json:"category,omitempty"`
}

// Ref converts the document back into a listing reference.
func (d ContentDoc) Ref() repository.ContentRef {
	return repository.ContentRef{Type: d.Type, ID: d.ID, Time: d.Time}
}

// ArticleToDoc converts an article into its search document.
func ArticleToDoc(a models.Article) ContentDoc {
	return ContentDoc{
		Type:     repository.TypeArticle,
		ID:       strconv.FormatInt(a.ID, 10),
		Time:     a.Date,
		Headline: a.Headline,
		Summary:  a.ShortDescription,
		Author:   a.Authors,
		Category: a.Category,
	}
}

// TweetToDoc converts a tweet into its search document.
func TweetToDoc(t models.Tweet) ContentDoc {
	return ContentDoc{
		Type:     repository.TypeTweet,
		ID:       t.TweetLink,
		Time:     t.CreatedAt,
		Text:     t.Tweet,
		Author:   t.Username,
		Category: t.Categories,
	}
}

// tweetDocumentID derives a stable document id from a tweet link, which
// contains characters that do not belong in a URL path segment.
func tweetDocumentID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}
