package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/pkg/api"
	"github.com/chronically/chronically/pkg/credentials"
	"github.com/chronically/chronically/pkg/logger"
	"github.com/chronically/chronically/pkg/output"
)

const trackTimeout = 3 * time.Second

// ContentService reads articles and tweets
type ContentService struct{}

// NewContentService creates a new content service
func NewContentService() *ContentService {
	return &ContentService{}
}

// ListArticles prints articles in category, or all of them
func (cs *ContentService) ListArticles(ctx context.Context, category string) error {
	articles, err := api.GetArticles(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to fetch articles: %w", err)
	}
	if len(articles) == 0 {
		output.PrintInfo("No articles found.")
		return nil
	}
	return output.PrintList(articles, articlesTable(articles))
}

// ListTweets prints tweets in category, or all of them
func (cs *ContentService) ListTweets(ctx context.Context, category string) error {
	tweets, err := api.GetTweets(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to fetch tweets: %w", err)
	}
	if len(tweets) == 0 {
		output.PrintInfo("No tweets found.")
		return nil
	}
	return output.PrintList(tweets, tweetsTable(tweets))
}

// Trending prints the most favorited recent tweets, from region only when it
// is set
func (cs *ContentService) Trending(region string) error {
	tweets, err := api.GetTrending(region)
	if err != nil {
		return fmt.Errorf("failed to fetch trending tweets: %w", err)
	}
	if len(tweets) == 0 {
		output.PrintInfo("Nothing is trending right now.")
		return nil
	}
	if region != "" {
		output.PrintInfo("🔥 Trending in %s", region)
	} else {
		output.PrintInfo("🔥 Trending")
	}
	return output.PrintList(tweets, tweetsTable(tweets))
}

// ShowArticle prints one article
func (cs *ContentService) ShowArticle(id int64) error {
	a, err := api.GetArticle(id)
	if err != nil {
		return fmt.Errorf("failed to fetch article: %w", err)
	}
	if a == nil {
		output.PrintWarning("No article with id %d", id)
		return nil
	}
	trackView(feed.TypeArticle, strconv.FormatInt(a.ID, 10))
	return output.PrintRecord("Article", map[string]interface{}{
		"ID":          a.ID,
		"Headline":    a.Headline,
		"Category":    a.Category,
		"Authors":     a.Authors,
		"Date":        formatTime(a.Date),
		"Link":        a.Link,
		"Description": a.ShortDescription,
	})
}

// ShowTweet prints one tweet
func (cs *ContentService) ShowTweet(link string) error {
	tw, err := api.GetTweet(link)
	if err != nil {
		return fmt.Errorf("failed to fetch tweet: %w", err)
	}
	if tw == nil {
		output.PrintWarning("No tweet with link %s", link)
		return nil
	}
	source := tw.SourceName
	if source == "" {
		source = models.SourceTweet
	}
	trackView(source, tw.TweetLink)
	return output.PrintRecord("Tweet", map[string]interface{}{
		"User":       "@" + tw.Username,
		"Tweet":      tw.Tweet,
		"Created":    formatTime(tw.CreatedAt),
		"Favorites":  tw.Favorites,
		"Retweets":   tw.Retweets,
		"Categories": tw.Categories,
		"Link":       tw.TweetLink,
	})
}

// Related prints the other articles covering the same story
func (cs *ContentService) Related(id int64) error {
	articles, err := api.GetRelated(id)
	if err != nil {
		return fmt.Errorf("failed to fetch related articles: %w", err)
	}
	if len(articles) == 0 {
		output.PrintInfo("No related coverage for article %d.", id)
		return nil
	}
	return output.PrintList(articles, articlesTable(articles))
}

// Explain prints the explanation of an article, when ref is an article id,
// or of a tweet
func (cs *ContentService) Explain(ref string) error {
	var explanation string
	var record map[string]string
	if id, err := ParseArticleID(ref); err == nil {
		if explanation, err = api.ExplainArticle(id); err != nil {
			return fmt.Errorf("failed to explain article: %w", err)
		}
		record = map[string]string{"article_id": ref, "explanation": explanation}
	} else {
		if explanation, err = api.ExplainTweet(ref); err != nil {
			return fmt.Errorf("failed to explain tweet: %w", err)
		}
		record = map[string]string{"tweet_link": ref, "explanation": explanation}
	}
	if output.GetOutputFormat() == output.FormatJSON {
		return output.Print("", record)
	}
	output.PrintInfo("💡 %s", explanation)
	return nil
}

// Search prints articles and tweets matching query
func (cs *ContentService) Search(query string) error {
	refs, err := api.SearchContent(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(refs) == 0 {
		output.PrintInfo("No results for %q.", query)
		return nil
	}
	t := output.Table{Headers: []string{"Type", "Time", "Ref"}}
	for _, r := range refs {
		t.Rows = append(t.Rows, []string{r.Type, formatTime(r.Time), r.ID})
	}
	return output.PrintList(refs, t)
}

// ParseArticleID reads an article id argument
func ParseArticleID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid article id %q", s)
	}
	return id, nil
}

// trackView reports a view for the For You ranking. Failures, including not
// being logged in, are only logged.
func trackView(itemType, itemID string) {
	creds, err := credentials.Load()
	if err != nil || creds == nil || creds.IsExpired() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
	defer cancel()
	if err := api.TrackInteraction(ctx, itemType, itemID, models.InteractionView); err != nil {
		logger.Debug("Failed to track view", "type", itemType, "id", itemID, "error", err)
	}
}
