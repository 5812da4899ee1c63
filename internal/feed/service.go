package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/metrics"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetch limits match the /get-articles and /get-tweets endpoints.
const (
	ArticleLimit = 1000
	TweetLimit   = 100
)

// Result is a composed feed.
type Result struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
	Meta     Meta   `json:"meta"`
}

type Meta struct {
	Count        int     `json:"count"`
	TweetCount   int     `json:"tweet_count"`
	ArticleCount int     `json:"article_count"`
	TweetRatio   float64 `json:"tweet_ratio"`
}

// Service composes feeds from the content store.
type Service struct {
	content    repository.ContentRepository
	activity   repository.ActivityRepository
	graph      repository.GraphRepository
	users      repository.UserRepository
	tweetRatio float64
	now        func() time.Time
}

// NewService builds a feed service. graph and users are only used by
// ForYou.
func NewService(
	content repository.ContentRepository,
	activity repository.ActivityRepository,
	graph repository.GraphRepository,
	users repository.UserRepository,
	tweetRatio float64,
) *Service {
	return &Service{
		content:    content,
		activity:   activity,
		graph:      graph,
		users:      users,
		tweetRatio: clampRatio(tweetRatio),
		now:        time.Now,
	}
}

// MyNews builds username's feed. An empty category falls back to the user's
// first preference, and to every category when there is none.
func (s *Service) MyNews(ctx context.Context, username, category string) (*Result, error) {
	start := time.Now()
	ctx, span := telemetry.TraceFeed(ctx, username, category)
	defer span.End()

	if category == "" && username != "" {
		prefs, err := s.activity.Preferences(ctx, username)
		if err != nil {
			telemetry.RecordServiceError(span, err)
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		if len(prefs) > 0 {
			category = prefs[0]
		}
	}

	items, err := s.Compose(ctx, category)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, err
	}

	res := &Result{Category: category, Items: items, Meta: Meta{Count: len(items), TweetRatio: s.tweetRatio}}
	for _, it := range items {
		if it.Type == TypeTweet {
			res.Meta.TweetCount++
		} else {
			res.Meta.ArticleCount++
		}
	}
	metrics.RecordFeed("server", time.Since(start), res.Meta.TweetCount, res.Meta.ArticleCount)
	logger.Log.Debug("Composed feed",
		logger.WithUsername(username),
		zap.String("category", category),
		zap.Int("tweets", res.Meta.TweetCount),
		zap.Int("articles", res.Meta.ArticleCount),
	)
	return res, nil
}

// Compose fetches articles and tweets for category concurrently and mixes them.
func (s *Service) Compose(ctx context.Context, category string) ([]Item, error) {
	g, gctx := errgroup.WithContext(ctx)

	var articles []models.Article
	var tweets []models.Tweet
	g.Go(func() error {
		var err error
		articles, err = s.content.Articles(gctx, category, ArticleLimit)
		if err != nil {
			return fmt.Errorf("fetch articles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tweets, err = s.content.Tweets(gctx, category, TweetLimit)
		if err != nil {
			return fmt.Errorf("fetch tweets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Compose(tweets, articles, s.tweetRatio), nil
}
