package search

import (
	"context"
	"time"

	"github.com/chronically/chronically/internal/logger"
	"github.com/chronically/chronically/internal/metrics"
	"github.com/chronically/chronically/internal/repository"
	"go.uber.org/zap"
)

// DefaultLimit caps search_content results.
const DefaultLimit = 50

// Backend is a full-text index able to answer content searches.
type Backend interface {
	SearchContent(ctx context.Context, query string, limit int) ([]repository.ContentRef, error)
}

// Service answers content searches from the index when one is configured
// and from SQL LIKE matching otherwise, or when the index fails.
type Service struct {
	backend Backend
	content repository.ContentRepository
}

// NewService builds a search service. backend may be nil.
func NewService(content repository.ContentRepository, backend Backend) *Service {
	return &Service{backend: backend, content: content}
}

// Search returns at most limit refs (DefaultLimit when limit <= 0), newest first.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]repository.ContentRef, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if s.backend != nil {
		start := time.Now()
		refs, err := s.backend.SearchContent(ctx, query, limit)
		metrics.RecordSearch("elasticsearch", time.Since(start), err)
		if err == nil {
			return truncate(refs, limit), nil
		}
		logger.Log.Warn("Index search failed, falling back to SQL",
			zap.String("query", query),
			zap.Error(err),
		)
	}

	start := time.Now()
	refs, err := s.content.Search(ctx, query, limit)
	metrics.RecordSearch("sql", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return truncate(refs, limit), nil
}

func truncate(refs []repository.ContentRef, limit int) []repository.ContentRef {
	if refs == nil {
		return []repository.ContentRef{}
	}
	if len(refs) > limit {
		return refs[:limit]
	}
	return refs
}
