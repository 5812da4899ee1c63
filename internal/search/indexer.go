package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/models"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reindexBatchSize = 500

// ReindexStats summarizes one bulk run.
type ReindexStats struct {
	Articles int
	Tweets   int
	Failed   uint64
}

// Reindex bulk-indexes every article and tweet in db.
func (c *Client) Reindex(ctx context.Context, db *gorm.DB) (ReindexStats, error) {
	return c.reindexSince(ctx, db, 0, time.Time{})
}

// reindexSince indexes articles with id above afterArticleID and tweets
// created after afterTweet.
func (c *Client) reindexSince(ctx context.Context, db *gorm.DB, afterArticleID int64, afterTweet time.Time) (ReindexStats, error) {
	var stats ReindexStats

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        c.es,
		NumWorkers:    2,
		FlushBytes:    5 << 20,
		FlushInterval: 5 * time.Second,
		OnError: func(_ context.Context, err error) {
			logger.Log.Warn("Bulk indexer error", zap.Error(err))
		},
	})
	if err != nil {
		return stats, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	add := func(index, id string, doc ContentDoc) error {
		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		return bi.Add(ctx, esutil.BulkIndexerItem{
			Index:      index,
			Action:     "index",
			DocumentID: id,
			Body:       bytes.NewReader(body),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				fields := []zap.Field{zap.String("index", item.Index), zap.String("id", item.DocumentID)}
				if err != nil {
					fields = append(fields, zap.Error(err))
				} else {
					fields = append(fields, zap.String("reason", res.Error.Reason))
				}
				logger.Log.Warn("Failed to index document", fields...)
			},
		})
	}

	var articles []models.Article
	err = db.WithContext(ctx).
		Where("id > ?", afterArticleID).
		FindInBatches(&articles, reindexBatchSize, func(tx *gorm.DB, _ int) error {
			for _, a := range articles {
				doc := ArticleToDoc(a)
				if err := add(IndexArticles, doc.ID, doc); err != nil {
					return err
				}
				stats.Articles++
			}
			return nil
		}).Error
	if err != nil {
		bi.Close(ctx)
		return stats, fmt.Errorf("failed to index articles: %w", err)
	}

	var tweets []models.Tweet
	q := db.WithContext(ctx)
	if !afterTweet.IsZero() {
		q = q.Where("? > ?", clause.Column{Name: "Created_At"}, afterTweet)
	}
	err = q.FindInBatches(&tweets, reindexBatchSize, func(tx *gorm.DB, _ int) error {
		for _, t := range tweets {
			if err := add(IndexTweets, tweetDocumentID(t.TweetLink), TweetToDoc(t)); err != nil {
				return err
			}
			stats.Tweets++
		}
		return nil
	}).Error
	if err != nil {
		bi.Close(ctx)
		return stats, fmt.Errorf("failed to index tweets: %w", err)
	}

	if err := bi.Close(ctx); err != nil {
		return stats, fmt.Errorf("failed to flush bulk indexer: %w", err)
	}
	stats.Failed = bi.Stats().NumFailed
	return stats, nil
}

// Syncer periodically indexes articles and tweets added since its last run.
// The first run indexes everything.
type Syncer struct {
	client   *Client
	db       *gorm.DB
	interval time.Duration

	lastArticleID int64
	lastTweet     time.Time

	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

func NewSyncer(client *Client, db *gorm.DB, interval time.Duration) *Syncer {
	return &Syncer{
		client:   client,
		db:       db,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sync loop. Calling it twice is a no-op.
func (s *Syncer) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	logger.Log.Info("Starting search index sync", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.loop()
}

// Stop waits for an in-flight sync to finish.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	logger.Log.Info("Search index sync stopped")
}

func (s *Syncer) loop() {
	defer s.wg.Done()

	s.sync()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sync()
		}
	}
}

func (s *Syncer) sync() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()

	// Watermarks are read before indexing so rows inserted mid-run are
	// picked up next time.
	var maxArticleID int64
	if err := s.db.WithContext(ctx).Model(&models.Article{}).
		Select("COALESCE(MAX(id), 0)").Scan(&maxArticleID).Error; err != nil {
		logger.WarnWithFields("Failed to read article watermark", err)
		return
	}
	var newest models.Tweet
	tweetMark := s.lastTweet
	if err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "Created_At"}, Desc: true}).
		Limit(1).Find(&newest).Error; err != nil {
		logger.WarnWithFields("Failed to read tweet watermark", err)
		return
	}
	if !newest.CreatedAt.IsZero() {
		tweetMark = newest.CreatedAt
	}

	stats, err := s.client.reindexSince(ctx, s.db, s.lastArticleID, s.lastTweet)
	if err != nil {
		logger.WarnWithFields("Search index sync failed", err)
		return
	}
	s.lastArticleID = maxArticleID
	s.lastTweet = tweetMark

	logger.Log.Info("Search index sync completed",
		zap.Int("articles", stats.Articles),
		zap.Int("tweets", stats.Tweets),
		zap.Uint64("failed", stats.Failed),
		zap.Duration("duration", time.Since(start)),
	)
}
