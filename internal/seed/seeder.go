// Package seed fills a database with fake accounts, news and social activity
// for development.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/chronically/chronically/internal/auth"
	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Categories are the preference choices offered by the apps.
var Categories = []string{
	"BREAKING NEWS", "POLITICS", "Top",
	"HEALTH", "Environment", "Food",
	"Football", "Formula1", "SPORTS",
	"Technology", "Gaming",
	"Business", "Travel", "Education", "Lifestyle", "World",
	"Entertainment", "Science", "CRIME",
}

const batchSize = 200

// Stats counts what one run created.
type Stats struct {
	Users       int
	Preferences int
	Articles    int
	Tweets      int
	Follows     int
	Shares      int
	Comments    int
}

// Seeder handles database seeding operations
type Seeder struct {
	db   *gorm.DB
	rand *rand.Rand
	now  time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now().UTC(),
	}
}

// SeedDev creates userCount users with preferences, follows, shares and
// comments over userCount*5 articles and userCount*10 tweets.
func (s *Seeder) SeedDev(ctx context.Context, userCount int) (*Stats, error) {
	if userCount <= 0 {
		return nil, fmt.Errorf("user count must be positive, got %d", userCount)
	}
	stats := &Stats{}
	db := s.db.WithContext(ctx)

	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(db, userCount)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	stats.Users = len(users)

	logger.Log.Info("Creating articles...")
	articles, err := s.seedArticles(db, userCount*5)
	if err != nil {
		return nil, fmt.Errorf("failed to seed articles: %w", err)
	}
	stats.Articles = len(articles)

	logger.Log.Info("Creating tweets...")
	tweets, err := s.seedTweets(db, userCount*10)
	if err != nil {
		return nil, fmt.Errorf("failed to seed tweets: %w", err)
	}
	stats.Tweets = len(tweets)

	logger.Log.Info("Creating preferences...")
	if stats.Preferences, err = s.seedPreferences(db, users); err != nil {
		return nil, fmt.Errorf("failed to seed preferences: %w", err)
	}

	logger.Log.Info("Creating follows...")
	if stats.Follows, err = s.seedFollows(db, users); err != nil {
		return nil, fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Creating shares...")
	if stats.Shares, err = s.seedShares(db, users, articles, tweets); err != nil {
		return nil, fmt.Errorf("failed to seed shares: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if stats.Comments, err = s.seedComments(db, users, articles, tweets, userCount*4); err != nil {
		return nil, fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", stats.Users),
		zap.Int("articles", stats.Articles),
		zap.Int("tweets", stats.Tweets),
		zap.Int("follows", stats.Follows),
		zap.Int("shares", stats.Shares),
		zap.Int("comments", stats.Comments),
	)
	return stats, nil
}

// Clean deletes every row the seeder can create, children first.
func (s *Seeder) Clean(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	tables := []interface{}{
		&models.TweetComment{}, &models.ArticleComment{},
		&models.SharedTweet{}, &models.SharedArticle{},
		&models.SavedTweet{}, &models.SavedArticle{},
		&models.FollowRequest{}, &models.Follow{},
		&models.Preference{}, &models.Tweet{}, &models.Article{}, &models.User{},
	}
	for _, m := range tables {
		if err := db.Delete(m).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", m, err)
		}
	}
	return nil
}

// seedUsers creates users whose Auth0 subject is "seed|<username>", so
// check-login works with that value as auth_token.
func (s *Seeder) seedUsers(db *gorm.DB, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	taken := make(map[string]bool, count)
	for len(users) < count {
		username := sanitize(gofakeit.Username())
		if len(username) < 3 || taken[username] {
			continue
		}
		taken[username] = true
		users = append(users, models.User{
			Username:       username,
			Email:          fmt.Sprintf("%s@example.com", username),
			AuthToken:      auth.HashSubject("seed|" + username),
			FullName:       gofakeit.Name(),
			ProfilePicture: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			Bio:            gofakeit.HipsterSentence(),
			CreatedAt:      gofakeit.DateRange(s.now.AddDate(0, -6, 0), s.now),
		})
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&users, batchSize).Error
	return users, err
}

func (s *Seeder) seedArticles(db *gorm.DB, count int) ([]models.Article, error) {
	articles := make([]models.Article, 0, count)
	clusters := count/4 + 1
	for i := 0; i < count; i++ {
		cluster := int64(-1)
		if s.rand.Float32() < 0.6 {
			cluster = int64(s.rand.Intn(clusters) + 1)
		}
		headline := gofakeit.HipsterSentence()
		articles = append(articles, models.Article{
			Link:             "https://news.example.com/" + gofakeit.UUID(),
			Headline:         headline,
			Category:         s.category(),
			ShortDescription: gofakeit.HipsterSentence(),
			Authors:          gofakeit.Name(),
			Date:             gofakeit.DateRange(s.now.AddDate(0, 0, -14), s.now),
			ClusterID:        cluster,
		})
	}
	err := db.CreateInBatches(&articles, batchSize).Error
	return articles, err
}

func (s *Seeder) seedTweets(db *gorm.DB, count int) ([]models.Tweet, error) {
	tweets := make([]models.Tweet, 0, count)
	for i := 0; i < count; i++ {
		author := sanitize(gofakeit.Username())
		cats := []string{s.category()}
		if s.rand.Float32() < 0.3 {
			cats = append(cats, s.category())
		}
		tw := models.Tweet{
			TweetLink:  fmt.Sprintf("https://x.com/%s/status/%d", author, s.rand.Int63()),
			Username:   author,
			Tweet:      gofakeit.HipsterSentence(),
			CreatedAt:  gofakeit.DateRange(s.now.AddDate(0, 0, -3), s.now),
			Retweets:   s.rand.Intn(500),
			Favorites:  s.rand.Intn(5000),
			Categories: strings.Join(cats, ","),
		}
		if s.rand.Float32() < 0.2 {
			tw.MediaURL = "https://pbs.example.com/media/" + gofakeit.UUID() + ".jpg"
		}
		if s.rand.Float32() < 0.5 {
			tw.Explanation = gofakeit.HipsterSentence()
		}
		tweets = append(tweets, tw)
	}
	err := db.CreateInBatches(&tweets, batchSize).Error
	return tweets, err
}

func (s *Seeder) seedPreferences(db *gorm.DB, users []models.User) (int, error) {
	var prefs []models.Preference
	for _, u := range users {
		picked := make(map[string]bool)
		n := s.rand.Intn(3) + 1
		for len(picked) < n {
			picked[s.category()] = true
		}
		// Map order is random; CreatedAt keeps the first preference stable.
		at := u.CreatedAt
		for cat := range picked {
			at = at.Add(time.Second)
			prefs = append(prefs, models.Preference{Username: u.Username, Preference: cat, CreatedAt: at})
		}
	}
	return len(prefs), db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&prefs, batchSize).Error
}

func (s *Seeder) seedFollows(db *gorm.DB, users []models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	seen := make(map[[2]string]bool)
	var follows []models.Follow
	for _, u := range users {
		n := s.rand.Intn(min(10, len(users)-1)) + 1
		for i := 0; i < n; i++ {
			other := users[s.rand.Intn(len(users))]
			key := [2]string{u.Username, other.Username}
			if other.Username == u.Username || seen[key] {
				continue
			}
			seen[key] = true
			follows = append(follows, models.Follow{FollowerUsername: u.Username, FollowedUsername: other.Username})
		}
	}
	return len(follows), db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&follows, batchSize).Error
}

func (s *Seeder) seedShares(db *gorm.DB, users []models.User, articles []models.Article, tweets []models.Tweet) (int, error) {
	if len(articles) == 0 || len(tweets) == 0 {
		return 0, nil
	}
	articleShares := make(map[[2]string]models.SharedArticle)
	tweetShares := make(map[[2]string]models.SharedTweet)
	for _, u := range users {
		for i := s.rand.Intn(4); i > 0; i-- {
			a := articles[s.rand.Intn(len(articles))]
			at := gofakeit.DateRange(a.Date, s.now)
			articleShares[[2]string{u.Username, fmt.Sprint(a.ID)}] = models.SharedArticle{Username: u.Username, ArticleID: a.ID, SharedAt: at}
		}
		for i := s.rand.Intn(4); i > 0; i-- {
			t := tweets[s.rand.Intn(len(tweets))]
			at := gofakeit.DateRange(t.CreatedAt, s.now)
			tweetShares[[2]string{u.Username, t.TweetLink}] = models.SharedTweet{Username: u.Username, TweetLink: t.TweetLink, SharedAt: at}
		}
	}

	as := make([]models.SharedArticle, 0, len(articleShares))
	for _, v := range articleShares {
		as = append(as, v)
	}
	ts := make([]models.SharedTweet, 0, len(tweetShares))
	for _, v := range tweetShares {
		ts = append(ts, v)
	}
	if len(as) > 0 {
		if err := db.CreateInBatches(&as, batchSize).Error; err != nil {
			return 0, err
		}
	}
	if len(ts) > 0 {
		if err := db.CreateInBatches(&ts, batchSize).Error; err != nil {
			return 0, err
		}
	}
	return len(as) + len(ts), nil
}

// seedComments writes top-level comments, then replies to some of them.
func (s *Seeder) seedComments(db *gorm.DB, users []models.User, articles []models.Article, tweets []models.Tweet, count int) (int, error) {
	if len(users) == 0 || len(articles) == 0 || len(tweets) == 0 {
		return 0, nil
	}
	created := 0
	for i := 0; i < count; i++ {
		u := users[s.rand.Intn(len(users))]
		if s.rand.Float32() < 0.5 {
			a := articles[s.rand.Intn(len(articles))]
			c := models.ArticleComment{ArticleID: a.ID, Username: u.Username, Content: gofakeit.HipsterSentence()}
			if err := db.Create(&c).Error; err != nil {
				return created, err
			}
			created++
			if s.rand.Float32() < 0.3 {
				replier := users[s.rand.Intn(len(users))]
				reply := models.ArticleComment{ArticleID: a.ID, Username: replier.Username, Content: gofakeit.HipsterSentence(), ParentCommentID: &c.CommentID}
				if err := db.Create(&reply).Error; err != nil {
					return created, err
				}
				created++
			}
			continue
		}
		t := tweets[s.rand.Intn(len(tweets))]
		c := models.TweetComment{TweetLink: t.TweetLink, Username: u.Username, Content: gofakeit.HipsterSentence()}
		if err := db.Create(&c).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Seeder) category() string {
	return Categories[s.rand.Intn(len(Categories))]
}

// sanitize keeps the characters usernames allow.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || r == '-' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 30 {
		out = out[:30]
	}
	return out
}
