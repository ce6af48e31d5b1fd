package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/matcher"
	"github.com/locality-resolver/internal/store"
	"github.com/locality-resolver/internal/timebox"
)

// CollegeService nhánh tìm theo tên trên thực thể college
type CollegeService struct {
	colleges store.EntityStore
	cache    IResultCache
	names    *NameResolver[models.EntityRecord]
	opts     ResolverOptions
	logger   *zap.Logger
}

// NewCollegeService tạo mới CollegeService
func NewCollegeService(
	colleges store.EntityStore,
	cache IResultCache,
	candidates CandidateSource[models.EntityRecord],
	opts ResolverOptions,
	logger *zap.Logger,
) *CollegeService {
	var names store.NameStore[models.EntityRecord]
	if colleges != nil {
		names = colleges
	}
	return &CollegeService{
		colleges: colleges,
		cache:    cache,
		names: NewNameResolver(models.ScopeCollege, names, candidates, cache, opts,
			entityValue,
			func(v models.CacheValue) (models.EntityRecord, bool) {
				if v.Entity == nil {
					return models.EntityRecord{}, false
				}
				return *v.Entity, true
			},
			logger),
		opts:   opts,
		logger: logger,
	}
}

// SearchByName tìm college theo tên
func (cs *CollegeService) SearchByName(ctx context.Context, name string) (models.Resolution[models.EntityRecord], error) {
	return cs.names.Search(ctx, name)
}

// ExplainFuzzy danh sách ứng viên fuzzy đã chấm điểm
func (cs *CollegeService) ExplainFuzzy(ctx context.Context, query string) ([]matcher.Scored[models.EntityRecord], error) {
	return cs.names.Explain(ctx, query)
}

// List danh sách college, cache 1 giờ
func (cs *CollegeService) List(ctx context.Context, limit int) ([]models.EntityRecord, error) {
	if limit <= 0 || limit > cs.opts.BulkLimit {
		limit = cs.opts.BulkLimit
	}
	key := models.CacheKey(models.NamespaceBulk, models.ScopeCollege, fmt.Sprintf("limit=%d", limit))

	if entry, found, err := cs.cache.Get(ctx, key); err == nil && found {
		return entry.Value.Entities, nil
	}
	if cs.colleges == nil {
		return nil, storeUnavailable(store.ErrUnavailable)
	}

	rows, err := timebox.Do(ctx, cs.opts.Policy, func(ctx context.Context) ([]models.EntityRecord, error) {
		return cs.colleges.List(ctx, limit)
	})
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if rows == nil {
		rows = []models.EntityRecord{}
	}

	if err := cs.cache.Set(ctx, key, models.CacheValue{Entities: rows}, cs.opts.BulkTTL); err != nil {
		cs.logger.Warn("Lỗi ghi cache", zap.String("key", key), zap.Error(err))
	}
	return rows, nil
}
