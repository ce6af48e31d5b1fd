package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/matcher"
	"github.com/locality-resolver/internal/store"
	"github.com/locality-resolver/internal/timebox"
)

// ResolverOptions tham số chung của coordinator
type ResolverOptions struct {
	Policy          timebox.Policy
	LookupTTL       time.Duration
	BulkTTL         time.Duration
	WorkingSetLimit int
	BulkLimit       int
	Scoring         matcher.Scoring
}

// DefaultResolverOptions giá trị mặc định: 12s/15s, TTL 5 phút và 1 giờ
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		Policy:          timebox.DefaultPolicy(),
		LookupTTL:       5 * time.Minute,
		BulkTTL:         time.Hour,
		WorkingSetLimit: 5000,
		BulkLimit:       500,
		Scoring:         matcher.DefaultScoring(),
	}
}

// timeboxedNames bọc các truy vấn theo tên của store bằng timebox.Do
type timeboxedNames[T matcher.Named] struct {
	inner  store.NameStore[T]
	policy timebox.Policy
}

func (t timeboxedNames[T]) FindNameEqual(ctx context.Context, name string) ([]T, error) {
	return timebox.Do(ctx, t.policy, func(ctx context.Context) ([]T, error) {
		return t.inner.FindNameEqual(ctx, name)
	})
}

func (t timeboxedNames[T]) FindNameContains(ctx context.Context, fragment string) ([]T, error) {
	return timebox.Do(ctx, t.policy, func(ctx context.Context) ([]T, error) {
		return t.inner.FindNameContains(ctx, fragment)
	})
}

func (t timeboxedNames[T]) FindNameAnyToken(ctx context.Context, tokens []string) ([]T, error) {
	return timebox.Do(ctx, t.policy, func(ctx context.Context) ([]T, error) {
		return t.inner.FindNameAnyToken(ctx, tokens)
	})
}

// classifyStoreErr chuyển lỗi store/timebox sang ResolveError
func classifyStoreErr(err error) error {
	var re *ResolveError
	switch {
	case errors.As(err, &re):
		return err
	case errors.Is(err, timebox.ErrTimeout):
		return timedOut(err)
	case errors.Is(err, store.ErrUnavailable):
		return storeUnavailable(err)
	default:
		return unexpected(err)
	}
}

// CandidateSource cung cấp working set cho fuzzy matcher
type CandidateSource[T any] interface {
	Candidates(ctx context.Context, query string, limit int) ([]T, error)
}

// storeCandidates working set là limit bản ghi đầu tiên của store
type storeCandidates[T any] struct {
	names store.NameStore[T]
}

func (s storeCandidates[T]) Candidates(ctx context.Context, _ string, limit int) ([]T, error) {
	return s.names.List(ctx, limit)
}

// fallbackCandidates thử nguồn chính (Meilisearch), lỗi hoặc rỗng thì về store
type fallbackCandidates[T any] struct {
	primary  CandidateSource[T]
	fallback CandidateSource[T]
	logger   *zap.Logger
}

// WithFallback ghép nguồn chính với store
func WithFallback[T any](primary CandidateSource[T], names store.NameStore[T], logger *zap.Logger) CandidateSource[T] {
	return fallbackCandidates[T]{primary: primary, fallback: storeCandidates[T]{names: names}, logger: logger}
}

func (f fallbackCandidates[T]) Candidates(ctx context.Context, query string, limit int) ([]T, error) {
	out, err := f.primary.Candidates(ctx, query, limit)
	if err == nil && len(out) > 0 {
		return out, nil
	}
	if err != nil {
		f.logger.Warn("Candidate source lỗi, dùng store", zap.Error(err))
	}
	return f.fallback.Candidates(ctx, query, limit)
}

func locationValue(r models.LocationRecord, strategy models.MatchStrategy) models.CacheValue {
	return models.CacheValue{Location: &r, Strategy: strategy}
}

func entityValue(r models.EntityRecord, strategy models.MatchStrategy) models.CacheValue {
	return models.CacheValue{Entity: &r, Strategy: strategy}
}
