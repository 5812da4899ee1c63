package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/metrics"
	"github.com/chronically/chronically/internal/models"
	"github.com/chronically/chronically/internal/repository"
	"github.com/chronically/chronically/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// For You scoring weights.
const (
	ScoreFollowedShare = 150
	ScorePreference    = 50
	ScoreRegion        = 75
	PopularityWeight   = 3

	// ForYouCandidateLimit is how many of the newest tweets are scored.
	ForYouCandidateLimit = 1000
	// categoriesScored caps how many of a tweet's categories count towards
	// the user's category interactions.
	categoriesScored = 5

	categoryWindow   = 30 * 24 * time.Hour
	popularityWindow = 7 * 24 * time.Hour
)

// Chronological item type filters.
const (
	ItemTypeAll     = "all"
	ItemTypeArticle = TypeArticle
	ItemTypeTweet   = models.SourceTweet
	ItemTypeBluesky = models.SourceBluesky
)

// Scored is a For You entry. It serializes like Item plus a "score" key.
type Scored struct {
	Item
	Score int
}

func (s Scored) MarshalJSON() ([]byte, error) {
	body, err := s.Item.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return append([]byte(fmt.Sprintf(`{"score":%d,`, s.Score)), body[1:]...), nil
}

func (s *Scored) UnmarshalJSON(data []byte) error {
	if err := s.Item.UnmarshalJSON(data); err != nil {
		return err
	}
	var head struct {
		Score int `json:"score"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	s.Score = head.Score
	return nil
}

// Query filters the chronological feed. Categories match by substring, any
// of them suffices. An empty ItemType means ItemTypeAll.
type Query struct {
	Categories []string
	Region     string
	ItemType   string
}

// ValidItemType reports whether t is a known chronological filter.
func ValidItemType(t string) bool {
	switch t {
	case "", ItemTypeAll, ItemTypeArticle, ItemTypeTweet, ItemTypeBluesky:
		return true
	}
	return false
}

// ForYou ranks the newest tweets for username and returns one page of them,
// highest score first and newest first among equal scores.
//
// A tweet scores ScoreFollowedShare when someone username follows shared
// it, ScorePreference when one of its categories is a preference, the
// number of username's interactions in the last 30 days with tweets of each
// of its categories, PopularityWeight per interaction anyone had with it in
// the last 7 days, and ScoreRegion when it comes from username's region.
func (s *Service) ForYou(ctx context.Context, username string, limit, offset int) ([]Scored, error) {
	start := time.Now()
	ctx, span := telemetry.TraceFeed(ctx, username, "for_you")
	defer span.End()

	now := s.now().UTC()
	region := s.userRegion(ctx, username)

	var (
		candidates []models.Tweet
		shared     map[string]bool
		prefs      map[string]bool
		categories map[string]int
		popularity map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.content.RecentTweets(gctx, repository.ContentFilter{}, ForYouCandidateLimit)
		if err != nil {
			return fmt.Errorf("fetch tweets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		shared, err = s.followedShares(gctx, username)
		return err
	})
	g.Go(func() error {
		list, err := s.activity.Preferences(gctx, username)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		prefs = make(map[string]bool, len(list))
		for _, p := range list {
			prefs[strings.ToLower(strings.TrimSpace(p))] = true
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.categoryInteractions(gctx, username, now.Add(-categoryWindow))
		return err
	})
	g.Go(func() error {
		counts, err := s.activity.InteractionCounts(gctx, now.Add(-popularityWindow))
		if err != nil {
			return fmt.Errorf("count interactions: %w", err)
		}
		popularity = make(map[string]int64, len(counts))
		for _, c := range counts {
			popularity[itemKey(c.ItemType, c.ItemID)] = c.Count
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, err
	}

	ranked := make([]Scored, len(candidates))
	for i := range candidates {
		t := &candidates[i]
		score := 0
		if shared[t.TweetLink] {
			score += ScoreFollowedShare
		}
		cats := distinctLower(t.CategoryList())
		for _, c := range cats {
			if prefs[c] {
				score += ScorePreference
				break
			}
		}
		for _, c := range cats {
			score += categories[c]
		}
		score += int(popularity[itemKey(sourceOf(t), t.TweetLink)]) * PopularityWeight
		if region != "" && strings.EqualFold(t.Region, region) {
			score += ScoreRegion
		}
		ranked[i] = Scored{Item: Item{Type: TypeTweet, Tweet: t}, Score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		return ranked[a].Time().After(ranked[b].Time())
	})

	page := window(ranked, limit, offset)
	metrics.RecordFeed("for_you", time.Since(start), len(page), 0)
	logger.Log.Debug("Ranked for you feed",
		logger.WithUsername(username),
		zap.String("region", region),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(page)),
	)
	return page, nil
}

// Chronological returns one page of tweets, Bluesky posts and articles
// matching q, newest first. An unknown ItemType matches nothing.
func (s *Service) Chronological(ctx context.Context, q Query, limit, offset int) ([]Item, error) {
	start := time.Now()
	ctx, span := telemetry.TraceFeed(ctx, "", strings.Join(q.Categories, ","))
	defer span.End()

	if q.ItemType == "" {
		q.ItemType = ItemTypeAll
	}
	if !ValidItemType(q.ItemType) || limit <= 0 || offset < 0 {
		return []Item{}, nil
	}

	filter := repository.ContentFilter{Categories: q.Categories, Region: q.Region}
	wantTweets := q.ItemType != ItemTypeArticle
	wantArticles := q.ItemType == ItemTypeAll || q.ItemType == ItemTypeArticle
	switch q.ItemType {
	case ItemTypeAll:
		filter.Sources = []string{models.SourceTweet, models.SourceBluesky}
	case ItemTypeTweet, ItemTypeBluesky:
		filter.Sources = []string{q.ItemType}
	}
	// Every row of the page is among the newest offset+limit of each kind.
	need := offset + limit

	var tweets []models.Tweet
	var articles []models.Article
	g, gctx := errgroup.WithContext(ctx)
	if wantTweets {
		g.Go(func() error {
			var err error
			tweets, err = s.content.RecentTweets(gctx, filter, need)
			if err != nil {
				return fmt.Errorf("fetch tweets: %w", err)
			}
			return nil
		})
	}
	if wantArticles {
		g.Go(func() error {
			var err error
			articles, err = s.content.RecentArticles(gctx, filter, need)
			if err != nil {
				return fmt.Errorf("fetch articles: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, err
	}

	merged := make([]Item, 0, len(tweets)+len(articles))
	for i := range tweets {
		merged = append(merged, Item{Type: TypeTweet, Tweet: &tweets[i]})
	}
	for i := range articles {
		merged = append(merged, Item{Type: TypeArticle, Article: &articles[i]})
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Time().After(merged[b].Time())
	})

	page := window(merged, limit, offset)
	var nTweets int
	for _, it := range page {
		if it.Type == TypeTweet {
			nTweets++
		}
	}
	metrics.RecordFeed("chronological", time.Since(start), nTweets, len(page)-nTweets)
	return page, nil
}

func (s *Service) userRegion(ctx context.Context, username string) string {
	if s.users == nil {
		return ""
	}
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		logger.WarnWithFields("Ranking without region", err, logger.WithUsername(username))
		return ""
	}
	return strings.TrimSpace(user.Region)
}

// followedShares is the set of tweet links shared by anyone username follows.
func (s *Service) followedShares(ctx context.Context, username string) (map[string]bool, error) {
	out := map[string]bool{}
	if s.graph == nil {
		return out, nil
	}
	followed, err := s.graph.Following(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}
	if len(followed) == 0 {
		return out, nil
	}
	shares, err := s.activity.Shares(ctx, followed, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load shares: %w", err)
	}
	for _, sh := range shares {
		if sh.ContentType == repository.TypeTweet {
			out[sh.ContentID] = true
		}
	}
	return out, nil
}

// categoryInteractions counts username's interactions since since per
// lower-cased category of the tweets they touched.
func (s *Service) categoryInteractions(ctx context.Context, username string, since time.Time) (map[string]int, error) {
	list, err := s.activity.UserInteractions(ctx, username, since)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	var links []string
	for _, in := range list {
		if in.ItemType != TypeArticle {
			links = append(links, in.ItemID)
		}
	}
	out := map[string]int{}
	if len(links) == 0 {
		return out, nil
	}
	tweets, err := s.content.TweetsByLinks(ctx, links)
	if err != nil {
		return nil, fmt.Errorf("load interacted tweets: %w", err)
	}
	for _, in := range list {
		t, ok := tweets[in.ItemID]
		if !ok || sourceOf(&t) != in.ItemType {
			continue
		}
		cats := t.CategoryList()
		if len(cats) > categoriesScored {
			cats = cats[:categoriesScored]
		}
		for _, c := range distinctLower(cats) {
			out[c]++
		}
	}
	return out, nil
}

func sourceOf(t *models.Tweet) string {
	if t.SourceName == "" {
		return models.SourceTweet
	}
	return t.SourceName
}

func itemKey(itemType, itemID string) string {
	return itemType + "\x00" + itemID
}

func distinctLower(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, c := range in {
		c = strings.ToLower(c)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 || offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := len(items)
	if limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
