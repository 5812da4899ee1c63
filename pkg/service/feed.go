package service

import (
	"context"
	"fmt"

	"github.com/chronically/chronically/internal/feed"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/pkg/api"
	"github.com/chronically/chronically/pkg/config"
	"github.com/chronically/chronically/pkg/logger"
	"github.com/chronically/chronically/pkg/output"
	"golang.org/x/sync/errgroup"
)

// Feed modes
const (
	ModeMyNews        = "mynews"
	ModeForYou        = "foryou"
	ModeChronological = "chronological"
)

// FeedService builds the mixed news feed
type FeedService struct{}

// NewFeedService creates a new feed service
func NewFeedService() *FeedService {
	return &FeedService{}
}

// ComposeFeed fetches articles and tweets for category at the same time and
// mixes them locally. A failure of either fetch fails the feed.
func ComposeFeed(ctx context.Context, category string, tweetRatio float64) ([]feed.Item, error) {
	var articles []models.Article
	var tweets []models.Tweet

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		articles, err = api.GetArticles(gctx, category)
		if err != nil {
			return fmt.Errorf("failed to fetch articles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tweets, err = api.GetTweets(gctx, category)
		if err != nil {
			return fmt.Errorf("failed to fetch tweets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Composing feed", "category", category, "articles", len(articles), "tweets", len(tweets))
	return feed.Compose(tweets, articles, tweetRatio), nil
}

// View prints the feed. With fromServer the server composes it from the
// caller's preferences; otherwise it is composed here.
func (fs *FeedService) View(ctx context.Context, category string, fromServer bool, tweetRatio float64) error {
	if tweetRatio < 0 {
		tweetRatio = config.GetFloat("feed.tweet_ratio")
	}

	var items []feed.Item
	title := "Your feed"
	if fromServer {
		resp, err := api.GetMyNews(category)
		if err != nil {
			return fmt.Errorf("failed to fetch feed: %w", err)
		}
		items = resp.Data
		if resp.Category != "" {
			title = "Your feed: " + resp.Category
		}
	} else {
		var err error
		items, err = ComposeFeed(ctx, category, tweetRatio)
		if err != nil {
			return err
		}
		if category != "" {
			title = "Your feed: " + category
		}
	}

	if len(items) == 0 {
		output.PrintInfo("No news yet. Try another category.")
		return nil
	}
	if output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("📰 %s (%d items)", title, len(items))
	}
	return output.PrintList(items, itemsTable(items))
}

// ForYou prints one page of tweets ranked for the caller
func (fs *FeedService) ForYou(page, limit int) error {
	if _, err := RequireLogin(); err != nil {
		return err
	}
	ranked, err := api.GetForYouFeed(page, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch for you feed: %w", err)
	}
	if len(ranked) == 0 {
		output.PrintInfo("Nothing ranked for you yet. Save, share or view a few posts first.")
		return nil
	}
	if output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("✨ For you (page %d)", max(page, 1))
	}
	return output.PrintList(ranked, scoredTable(ranked))
}

// Chronological prints one page of tweets, Bluesky posts and articles,
// newest first
func (fs *FeedService) Chronological(q api.ChronologicalQuery) error {
	items, err := api.GetChronologicalFeed(q)
	if err != nil {
		return fmt.Errorf("failed to fetch chronological feed: %w", err)
	}
	if len(items) == 0 {
		output.PrintInfo("No content found for the given criteria.")
		return nil
	}
	if output.GetOutputFormat() != output.FormatJSON {
		output.PrintInfo("🕒 Latest (page %d)", max(q.Page, 1))
	}
	return output.PrintList(items, itemsTable(items))
}
