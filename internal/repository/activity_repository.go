package repository

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/chronically/chronically/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPreferenceExists = errors.New("preference already exists for this username")
	ErrAlreadySaved     = errors.New("already saved")
	ErrNotSaved         = errors.New("not saved")
	ErrAlreadyShared    = errors.New("already shared")
	ErrParentMismatch   = errors.New("parent comment belongs to different content")
	ErrInvalidPage      = errors.New("invalid page window")
)

// SavedRef is one row of a user's saved list.
type SavedRef struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	SavedTime time.Time `json:"saved_time"`
}

// SharedRef is one share by a user.
type SharedRef struct {
	Username    string    `json:"username"`
	ContentID   string    `json:"content_id"`
	ContentType string    `json:"content_type"`
	SharedAt    time.Time `json:"shared_at"`
}

// ActivityRepository stores what users do with content: preferences,
// saves, shares and comments.
type ActivityRepository interface {
	AddPreference(ctx context.Context, username, preference string) error
	// Preferences returns categories in the order they were added.
	Preferences(ctx context.Context, username string) ([]string, error)
	DeletePreferences(ctx context.Context, username string) (int64, error)

	SaveArticle(ctx context.Context, username string, articleID int64) error
	SaveTweet(ctx context.Context, username, link string) error
	UnsaveArticle(ctx context.Context, username string, articleID int64) error
	UnsaveTweet(ctx context.Context, username, link string) error
	Saved(ctx context.Context, username string) ([]SavedRef, error)
	IsTweetSaved(ctx context.Context, username, link string) (bool, error)

	ShareArticle(ctx context.Context, username string, articleID int64) error
	ShareTweet(ctx context.Context, username, link string) error
	// Shares lists shares by any of usernames, newest first. limit 0 means
	// every share; a negative or overflowing window is ErrInvalidPage.
	Shares(ctx context.Context, usernames []string, limit, offset int) ([]SharedRef, error)
	CountShares(ctx context.Context, usernames []string) (int64, error)

	AddArticleComment(ctx context.Context, c *models.ArticleComment) error
	AddTweetComment(ctx context.Context, c *models.TweetComment) error
	ArticleComments(ctx context.Context, articleID int64) ([]models.ArticleComment, error)
	TweetComments(ctx context.Context, link string) ([]models.TweetComment, error)

	TrackInteraction(ctx context.Context, in *models.UserInteraction) error
	// UserInteractions lists username's interactions at or after since.
	UserInteractions(ctx context.Context, username string, since time.Time) ([]models.UserInteraction, error)
	// InteractionCounts counts every user's interactions per item at or
	// after since.
	InteractionCounts(ctx context.Context, since time.Time) ([]InteractionCount, error)
}

// InteractionCount is the number of interactions with one item.
type InteractionCount struct {
	ItemType string `gorm:"column:item_type" json:"item_type"`
	ItemID   string `gorm:"column:item_id" json:"item_id"`
	Count    int64  `gorm:"column:interaction_count" json:"count"`
}

type activityRepository struct {
	db      *gorm.DB
	content ContentRepository
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db, content: NewContentRepository(db)}
}

func (r *activityRepository) AddPreference(ctx context.Context, username, preference string) error {
	err := r.db.WithContext(ctx).Create(&models.Preference{Username: username, Preference: preference}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrPreferenceExists
	}
	return err
}

func (r *activityRepository) Preferences(ctx context.Context, username string) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).Model(&models.Preference{}).
		Where("username = ?", username).
		Order("created_at ASC").
		Pluck("preference", &out).Error
	return out, err
}

func (r *activityRepository) DeletePreferences(ctx context.Context, username string) (int64, error) {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&models.Preference{})
	return res.RowsAffected, res.Error
}

func (r *activityRepository) SaveArticle(ctx context.Context, username string, articleID int64) error {
	if _, err := r.content.ArticleByID(ctx, articleID); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(&models.SavedArticle{Username: username, ArticleID: articleID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadySaved
	}
	return err
}

func (r *activityRepository) SaveTweet(ctx context.Context, username, link string) error {
	if _, err := r.content.TweetByLink(ctx, link); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(&models.SavedTweet{Username: username, TweetLink: link}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadySaved
	}
	return err
}

func deleted(res *gorm.DB, none error) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return none
	}
	return nil
}

func (r *activityRepository) UnsaveArticle(ctx context.Context, username string, articleID int64) error {
	return deleted(r.db.WithContext(ctx).
		Where("username = ? AND article_id = ?", username, articleID).
		Delete(&models.SavedArticle{}), ErrNotSaved)
}

func (r *activityRepository) UnsaveTweet(ctx context.Context, username, link string) error {
	return deleted(r.db.WithContext(ctx).
		Where("username = ? AND tweet_link = ?", username, link).
		Delete(&models.SavedTweet{}), ErrNotSaved)
}

func (r *activityRepository) Saved(ctx context.Context, username string) ([]SavedRef, error) {
	var articles []models.SavedArticle
	if err := r.db.WithContext(ctx).Where("username = ?", username).Find(&articles).Error; err != nil {
		return nil, err
	}
	var tweets []models.SavedTweet
	if err := r.db.WithContext(ctx).Where("username = ?", username).Find(&tweets).Error; err != nil {
		return nil, err
	}
	out := make([]SavedRef, 0, len(articles)+len(tweets))
	for _, a := range articles {
		out = append(out, SavedRef{Type: TypeArticle, ID: strconv.FormatInt(a.ArticleID, 10), SavedTime: a.SavedTime})
	}
	for _, t := range tweets {
		out = append(out, SavedRef{Type: TypeTweet, ID: t.TweetLink, SavedTime: t.SavedTime})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SavedTime.After(out[j].SavedTime) })
	return out, nil
}

func (r *activityRepository) ShareArticle(ctx context.Context, username string, articleID int64) error {
	if _, err := r.content.ArticleByID(ctx, articleID); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(&models.SharedArticle{Username: username, ArticleID: articleID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyShared
	}
	return err
}

func (r *activityRepository) ShareTweet(ctx context.Context, username, link string) error {
	if _, err := r.content.TweetByLink(ctx, link); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(&models.SharedTweet{Username: username, TweetLink: link}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyShared
	}
	return err
}

// Shares merges both share tables. Each table is read up to offset+limit
// rows so the merged page is exact.
func (r *activityRepository) Shares(ctx context.Context, usernames []string, limit, offset int) ([]SharedRef, error) {
	if offset < 0 || limit < 0 || (limit > 0 && offset > math.MaxInt-limit) {
		return nil, ErrInvalidPage
	}
	if len(usernames) == 0 {
		return []SharedRef{}, nil
	}
	window := offset + limit

	var articles []models.SharedArticle
	q := r.db.WithContext(ctx).Where("username IN ?", usernames).Order("shared_at DESC")
	if limit > 0 {
		q = q.Limit(window)
	}
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	var tweets []models.SharedTweet
	q = r.db.WithContext(ctx).Where("username IN ?", usernames).Order("shared_at DESC")
	if limit > 0 {
		q = q.Limit(window)
	}
	if err := q.Find(&tweets).Error; err != nil {
		return nil, err
	}

	out := make([]SharedRef, 0, len(articles)+len(tweets))
	for _, a := range articles {
		out = append(out, SharedRef{Username: a.Username, ContentID: strconv.FormatInt(a.ArticleID, 10), ContentType: TypeArticle, SharedAt: a.SharedAt})
	}
	for _, t := range tweets {
		out = append(out, SharedRef{Username: t.Username, ContentID: t.TweetLink, ContentType: TypeTweet, SharedAt: t.SharedAt})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SharedAt.After(out[j].SharedAt) })

	if limit <= 0 {
		return out, nil
	}
	if offset >= len(out) {
		return []SharedRef{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *activityRepository) CountShares(ctx context.Context, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	var a, t int64
	if err := r.db.WithContext(ctx).Model(&models.SharedArticle{}).Where("username IN ?", usernames).Count(&a).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.SharedTweet{}).Where("username IN ?", usernames).Count(&t).Error; err != nil {
		return 0, err
	}
	return a + t, nil
}

func (r *activityRepository) AddArticleComment(ctx context.Context, c *models.ArticleComment) error {
	if _, err := r.content.ArticleByID(ctx, c.ArticleID); err != nil {
		return err
	}
	if c.ParentCommentID != nil {
		var parent models.ArticleComment
		err := r.db.WithContext(ctx).Where("comment_id = ?", *c.ParentCommentID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.ArticleID != c.ArticleID) {
			return ErrParentMismatch
		}
		if err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *activityRepository) AddTweetComment(ctx context.Context, c *models.TweetComment) error {
	if _, err := r.content.TweetByLink(ctx, c.TweetLink); err != nil {
		return err
	}
	if c.ParentCommentID != nil {
		var parent models.TweetComment
		err := r.db.WithContext(ctx).Where("comment_id = ?", *c.ParentCommentID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.TweetLink != c.TweetLink) {
			return ErrParentMismatch
		}
		if err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *activityRepository) ArticleComments(ctx context.Context, articleID int64) ([]models.ArticleComment, error) {
	var out []models.ArticleComment
	err := r.db.WithContext(ctx).Where("article_id = ?", articleID).
		Order("created_at ASC").Order("comment_id ASC").Find(&out).Error
	return out, err
}

func (r *activityRepository) TweetComments(ctx context.Context, link string) ([]models.TweetComment, error) {
	var out []models.TweetComment
	err := r.db.WithContext(ctx).Where("tweet_link = ?", link).
		Order("created_at ASC").Order("comment_id ASC").Find(&out).Error
	return out, err
}

func (r *activityRepository) IsTweetSaved(ctx context.Context, username, link string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SavedTweet{}).
		Where("username = ? AND tweet_link = ?", username, link).
		Count(&n).Error
	return n > 0, err
}

func (r *activityRepository) TrackInteraction(ctx context.Context, in *models.UserInteraction) error {
	return r.db.WithContext(ctx).Create(in).Error
}

func (r *activityRepository) UserInteractions(ctx context.Context, username string, since time.Time) ([]models.UserInteraction, error) {
	var out []models.UserInteraction
	err := r.db.WithContext(ctx).
		Where("username = ? AND interaction_timestamp >= ?", username, since).
		Order("interaction_id ASC").
		Find(&out).Error
	return out, err
}

func (r *activityRepository) InteractionCounts(ctx context.Context, since time.Time) ([]InteractionCount, error) {
	var out []InteractionCount
	err := r.db.WithContext(ctx).Model(&models.UserInteraction{}).
		Select("item_type, item_id, COUNT(*) AS interaction_count").
		Where("interaction_timestamp >= ?", since).
		Group("item_type, item_id").
		Scan(&out).Error
	return out, err
}
