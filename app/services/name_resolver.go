package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/matcher"
	"github.com/locality-resolver/internal/normalizer"
	"github.com/locality-resolver/internal/store"
	"github.com/locality-resolver/internal/timebox"
)

// NameResolver nhánh tìm theo tên dùng chung cho địa điểm và college:
// cache (exact rồi norm) -> exact cascade -> fuzzy -> ghi cache
type NameResolver[T matcher.Named] struct {
	scope      string
	names      store.NameStore[T]
	exact      *matcher.Exact[T]
	fuzzy      *matcher.Fuzzy[T]
	candidates CandidateSource[T]
	cache      IResultCache
	opts       ResolverOptions
	wrap       func(T, models.MatchStrategy) models.CacheValue
	unwrap     func(models.CacheValue) (T, bool)
	logger     *zap.Logger
}

// NewNameResolver tạo mới NameResolver. names nil nghĩa là store chưa cấu hình,
// mọi truy vấn không trúng cache sẽ trả BackingStoreUnavailable.
func NewNameResolver[T matcher.Named](
	scope string,
	names store.NameStore[T],
	candidates CandidateSource[T],
	cache IResultCache,
	opts ResolverOptions,
	wrap func(T, models.MatchStrategy) models.CacheValue,
	unwrap func(models.CacheValue) (T, bool),
	logger *zap.Logger,
) *NameResolver[T] {
	r := &NameResolver[T]{
		scope:      scope,
		names:      names,
		fuzzy:      matcher.NewFuzzy[T](opts.Scoring),
		candidates: candidates,
		cache:      cache,
		opts:       opts,
		wrap:       wrap,
		unwrap:     unwrap,
		logger:     logger,
	}
	if names != nil {
		r.exact = matcher.NewExact[T](timeboxedNames[T]{inner: names, policy: opts.Policy})
		if r.candidates == nil {
			r.candidates = storeCandidates[T]{names: names}
		}
	}
	return r
}

// Search chạy nhánh tìm theo tên
func (r *NameResolver[T]) Search(ctx context.Context, query string) (models.Resolution[T], error) {
	var zero models.Resolution[T]

	trimmed := normalizer.Trim(query)
	norm := normalizer.Normalize(query)
	if trimmed == "" || norm == "" {
		return zero, invalidInput("query must not be empty")
	}
	exactKey := models.CacheKey(models.NamespaceExact, r.scope, trimmed)
	normKey := models.CacheKey(models.NamespaceNorm, r.scope, norm)

	for _, key := range []string{exactKey, normKey} {
		if res, ok := r.fromCache(ctx, key); ok {
			return res, nil
		}
	}

	if r.names == nil {
		return zero, storeUnavailable(store.ErrUnavailable)
	}

	rec, step, err := r.exact.Match(ctx, trimmed)
	switch {
	case err == nil:
		r.logger.Debug("Exact match",
			zap.String("scope", r.scope),
			zap.String("query", trimmed),
			zap.String("step", string(step)),
			zap.String("name", rec.DisplayName()))
		value := r.wrap(rec, models.StrategyExact)
		r.remember(ctx, exactKey, value)
		r.remember(ctx, normKey, value)
		return models.Resolution[T]{Record: rec, Strategy: models.StrategyExact}, nil
	case errors.Is(err, matcher.ErrNoExactMatch):
	default:
		return zero, classifyStoreErr(err)
	}

	workingSet, err := r.workingSet(ctx, norm)
	if err != nil {
		return zero, err
	}
	best, err := r.fuzzy.Match(trimmed, workingSet)
	if errors.Is(err, matcher.ErrNoFuzzyMatch) {
		return zero, notFound("no %s matches %q", r.scope, trimmed)
	}
	if err != nil {
		return zero, unexpected(err)
	}

	r.logger.Info("Fuzzy match",
		zap.String("scope", r.scope),
		zap.String("query", trimmed),
		zap.String("name", best.Record.DisplayName()),
		zap.Float64("score", best.Score),
		zap.Int("working_set", len(workingSet)))
	r.remember(ctx, normKey, r.wrap(best.Record, models.StrategyFuzzy))
	return models.Resolution[T]{Record: best.Record, Strategy: models.StrategyFuzzy}, nil
}

// Explain trả về danh sách ứng viên đã chấm điểm, không đọc hay ghi cache
func (r *NameResolver[T]) Explain(ctx context.Context, query string) ([]matcher.Scored[T], error) {
	norm := normalizer.Normalize(query)
	if norm == "" {
		return nil, invalidInput("query must not be empty")
	}
	if r.names == nil {
		return nil, storeUnavailable(store.ErrUnavailable)
	}
	workingSet, err := r.workingSet(ctx, norm)
	if err != nil {
		return nil, err
	}
	return r.fuzzy.Rank(query, workingSet), nil
}

// Scoring bộ hằng số fuzzy đang dùng
func (r *NameResolver[T]) Scoring() matcher.Scoring {
	return r.fuzzy.Scoring()
}

func (r *NameResolver[T]) workingSet(ctx context.Context, norm string) ([]T, error) {
	out, err := timebox.Do(ctx, r.opts.Policy, func(ctx context.Context) ([]T, error) {
		return r.candidates.Candidates(ctx, norm, r.opts.WorkingSetLimit)
	})
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return out, nil
}

func (r *NameResolver[T]) fromCache(ctx context.Context, key string) (models.Resolution[T], bool) {
	entry, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Lỗi đọc cache, bỏ qua", zap.String("key", key), zap.Error(err))
		return models.Resolution[T]{}, false
	}
	if !found {
		return models.Resolution[T]{}, false
	}
	rec, ok := r.unwrap(entry.Value)
	if !ok {
		return models.Resolution[T]{}, false
	}
	return models.Resolution[T]{Record: rec, Strategy: entry.Value.Strategy, CacheHit: true}, true
}

func (r *NameResolver[T]) remember(ctx context.Context, key string, value models.CacheValue) {
	if err := r.cache.Set(ctx, key, value, r.opts.LookupTTL); err != nil {
		r.logger.Warn("Lỗi ghi cache", zap.String("key", key), zap.Error(err))
	}
}
