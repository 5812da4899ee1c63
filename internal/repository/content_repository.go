package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/chronically/chronically/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrTweetNotFound   = errors.New("tweet not found")
)

// Content reference types used in mixed article/tweet listings.
const (
	TypeArticle = "article"
	TypeTweet   = "tweet"
)

// ContentRef points at an article (ID is its numeric id) or a tweet (ID is
// its link) with the timestamp the listing is ordered by.
type ContentRef struct {
	Type string    `json:"type"`
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
}

// ContentFilter narrows a chronological listing. Categories match when any
// of them appears in the content's categories. Sources applies to tweets
// only; empty means every source.
type ContentFilter struct {
	Categories []string
	Region     string
	Sources    []string
}

// ContentRepository reads articles and tweets.
type ContentRepository interface {
	// Articles returns articles whose category contains category, newest
	// first. An empty category matches everything; limit <= 0 means no limit.
	Articles(ctx context.Context, category string, limit int) ([]models.Article, error)
	Tweets(ctx context.Context, category string, limit int) ([]models.Tweet, error)
	ArticleByID(ctx context.Context, id int64) (*models.Article, error)
	TweetByLink(ctx context.Context, link string) (*models.Tweet, error)
	ArticlesByIDs(ctx context.Context, ids []int64) (map[int64]models.Article, error)
	TweetsByLinks(ctx context.Context, links []string) (map[string]models.Tweet, error)
	// Related returns other articles in the same cluster. Unclustered
	// articles have no related articles.
	Related(ctx context.Context, id int64, limit int) ([]models.Article, error)
	// Trending returns tweets from the day before the newest tweet's date
	// onward, most favorited first. A non-empty region keeps only tweets
	// from that region.
	Trending(ctx context.Context, region string, limit int) ([]models.Tweet, error)
	// RecentTweets and RecentArticles list content matching f, newest first.
	RecentTweets(ctx context.Context, f ContentFilter, limit int) ([]models.Tweet, error)
	RecentArticles(ctx context.Context, f ContentFilter, limit int) ([]models.Article, error)
	// SetTweetExplanation and SetArticleExplanation store a generated
	// explanation.
	SetTweetExplanation(ctx context.Context, link, explanation string) error
	SetArticleExplanation(ctx context.Context, id int64, explanation string) error
	// Search matches article headlines and tweet text, newest first.
	Search(ctx context.Context, query string, limit int) ([]ContentRef, error)
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Articles(ctx context.Context, category string, limit int) ([]models.Article, error) {
	var out []models.Article
	q := r.db.WithContext(ctx).Order(orderDesc("date")).Order(orderDesc("id"))
	if category != "" {
		q = q.Where("? LIKE ?", column("category"), "%"+category+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *contentRepository) Tweets(ctx context.Context, category string, limit int) ([]models.Tweet, error) {
	var out []models.Tweet
	q := r.db.WithContext(ctx).Order(orderDesc("Created_At"))
	if category != "" {
		q = q.Where("? LIKE ?", column("categories"), "%"+category+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *contentRepository) ArticleByID(ctx context.Context, id int64) (*models.Article, error) {
	var a models.Article
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	return &a, err
}

func (r *contentRepository) TweetByLink(ctx context.Context, link string) (*models.Tweet, error) {
	var t models.Tweet
	err := r.db.WithContext(ctx).Where("? = ?", column("Tweet_Link"), link).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTweetNotFound
	}
	return &t, err
}

func (r *contentRepository) ArticlesByIDs(ctx context.Context, ids []int64) (map[int64]models.Article, error) {
	out := make(map[int64]models.Article, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Article
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.ID] = a
	}
	return out, nil
}

func (r *contentRepository) TweetsByLinks(ctx context.Context, links []string) (map[string]models.Tweet, error) {
	out := make(map[string]models.Tweet, len(links))
	if len(links) == 0 {
		return out, nil
	}
	var rows []models.Tweet
	if err := r.db.WithContext(ctx).Where("? IN ?", column("Tweet_Link"), links).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, t := range rows {
		out[t.TweetLink] = t
	}
	return out, nil
}

func (r *contentRepository) Related(ctx context.Context, id int64, limit int) ([]models.Article, error) {
	a, err := r.ArticleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Unclustered() {
		return []models.Article{}, nil
	}
	var out []models.Article
	err = r.db.WithContext(ctx).
		Where("? = ? AND ? <> ?", column("clusterID"), a.ClusterID, column("id"), id).
		Order(orderDesc("date")).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *contentRepository) Trending(ctx context.Context, region string, limit int) ([]models.Tweet, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		if region != "" {
			q = q.Where("? = ?", column("Region"), region)
		}
		return q
	}

	var newest models.Tweet
	err := scope(r.db.WithContext(ctx)).Order(orderDesc("Created_At")).First(&newest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.Tweet{}, nil
	}
	if err != nil {
		return nil, err
	}
	d := newest.CreatedAt.UTC()
	since := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	var out []models.Tweet
	err = scope(r.db.WithContext(ctx)).
		Where("? >= ?", column("Created_At"), since).
		Order(orderDesc("Favorites")).
		Order(orderDesc("Created_At")).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *contentRepository) Search(ctx context.Context, query string, limit int) ([]ContentRef, error) {
	pattern := "%" + query + "%"
	var articles []models.Article
	if err := r.db.WithContext(ctx).Select("id", "date").
		Where("? LIKE ?", column("headline"), pattern).
		Order(orderDesc("date")).Limit(limit).
		Find(&articles).Error; err != nil {
		return nil, err
	}
	var tweets []models.Tweet
	if err := r.db.WithContext(ctx).Select("Tweet_Link", "Created_At").
		Where("? LIKE ?", column("Tweet"), pattern).
		Order(orderDesc("Created_At")).Limit(limit).
		Find(&tweets).Error; err != nil {
		return nil, err
	}

	refs := make([]ContentRef, 0, len(articles)+len(tweets))
	for _, a := range articles {
		refs = append(refs, ContentRef{Type: TypeArticle, ID: strconv.FormatInt(a.ID, 10), Time: a.Date})
	}
	for _, t := range tweets {
		refs = append(refs, ContentRef{Type: TypeTweet, ID: t.TweetLink, Time: t.CreatedAt})
	}
	SortRefsNewestFirst(refs)
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (r *contentRepository) RecentTweets(ctx context.Context, f ContentFilter, limit int) ([]models.Tweet, error) {
	q := r.db.WithContext(ctx).Order(orderDesc("Created_At"))
	if len(f.Categories) > 0 {
		q = q.Where(r.anyLike("categories", f.Categories))
	}
	if f.Region != "" {
		q = q.Where("? = ?", column("Region"), f.Region)
	}
	if len(f.Sources) > 0 {
		q = q.Where("? IN ?", column("sourcename"), f.Sources)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Tweet
	err := q.Find(&out).Error
	return out, err
}

func (r *contentRepository) RecentArticles(ctx context.Context, f ContentFilter, limit int) ([]models.Article, error) {
	q := r.db.WithContext(ctx).Order(orderDesc("date")).Order(orderDesc("id"))
	if len(f.Categories) > 0 {
		q = q.Where(r.anyLike("category", f.Categories))
	}
	if f.Region != "" {
		q = q.Where("? = ?", column("Region"), f.Region)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Article
	err := q.Find(&out).Error
	return out, err
}

// anyLike groups "name LIKE %v%" conditions with OR.
func (r *contentRepository) anyLike(name string, values []string) *gorm.DB {
	cond := r.db.Session(&gorm.Session{NewDB: true})
	for i, v := range values {
		if i == 0 {
			cond = cond.Where("? LIKE ?", column(name), "%"+v+"%")
		} else {
			cond = cond.Or("? LIKE ?", column(name), "%"+v+"%")
		}
	}
	return cond
}

func (r *contentRepository) SetTweetExplanation(ctx context.Context, link, explanation string) error {
	res := r.db.WithContext(ctx).Model(&models.Tweet{}).
		Where("? = ?", column("Tweet_Link"), link).
		Update("Explanation", explanation)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTweetNotFound
	}
	return nil
}

func (r *contentRepository) SetArticleExplanation(ctx context.Context, id int64, explanation string) error {
	res := r.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		Update("Explanation", explanation)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// SortRefsNewestFirst orders refs by time descending, keeping input order
// for equal times.
func SortRefsNewestFirst(refs []ContentRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Time.After(refs[j].Time)
	})
}

// column and orderDesc quote identifiers so the mixed-case column names of
// the Tweets and Articles tables survive on case-folding databases.
func column(name string) clause.Column {
	return clause.Column{Name: name}
}

func orderDesc(name string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: name}, Desc: true}
}
