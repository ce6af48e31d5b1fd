package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

// MeiliCandidateSource lấy working set cho fuzzy matcher từ Meilisearch.
// Typo tolerance của Meilisearch thu hẹp tập ứng viên trước khi chấm điểm lại.
type MeiliCandidateSource[T any] struct {
	client *ClientWrapper
	index  string
	logger *zap.Logger
}

// NewMeiliCandidateSource tạo mới candidate source trên một index
func NewMeiliCandidateSource[T any](client *ClientWrapper, index string, logger *zap.Logger) *MeiliCandidateSource[T] {
	return &MeiliCandidateSource[T]{client: client, index: index, logger: logger}
}

// NewLocationCandidates candidate source cho index locations
func NewLocationCandidates(client *ClientWrapper, logger *zap.Logger) *MeiliCandidateSource[models.LocationRecord] {
	return NewMeiliCandidateSource[models.LocationRecord](client, IndexLocations, logger)
}

// NewCollegeCandidates candidate source cho index colleges
func NewCollegeCandidates(client *ClientWrapper, logger *zap.Logger) *MeiliCandidateSource[models.EntityRecord] {
	return NewMeiliCandidateSource[models.EntityRecord](client, IndexColleges, logger)
}

// Candidates trả về tối đa limit bản ghi liên quan tới query
func (s *MeiliCandidateSource[T]) Candidates(ctx context.Context, query string, limit int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.client.SearchIndex(s.index, query, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("lỗi search index %s: %w", s.index, err)
	}
	out, err := decodeHits[T](resp)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Meilisearch candidates",
		zap.String("index", s.index),
		zap.String("query", query),
		zap.Int("hits", len(out)))
	return out, nil
}
