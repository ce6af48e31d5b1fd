package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/external"
	"github.com/locality-resolver/internal/matcher"
	"github.com/locality-resolver/internal/normalizer"
	"github.com/locality-resolver/internal/provider"
	"github.com/locality-resolver/internal/search"
	"github.com/locality-resolver/internal/store"
	"github.com/locality-resolver/internal/timebox"
)

// AdminService service quản lý admin functions
type AdminService struct {
	st        store.Store
	locations *LocationService
	colleges  *CollegeService
	chain     *provider.Chain
	cache     IResultCache
	indexer   *search.Indexer
	policy    timebox.Policy
	started   time.Time
	logger    *zap.Logger
}

// SystemStats thống kê hệ thống
type SystemStats struct {
	Uptime      string                 `json:"uptime"`
	Store       StoreStats             `json:"store"`
	Cache       *CacheStats            `json:"cache"`
	Providers   []string               `json:"providers"`
	Search      bool                   `json:"search_enabled"`
	MemoryUsage map[string]interface{} `json:"memory_usage"`
}

// StoreStats trạng thái store
type StoreStats struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// InvalidateOptions tùy chọn invalidate cache
type InvalidateOptions struct {
	All   bool     // xóa toàn bộ
	Keys  []string // xóa các key cụ thể
	Scope string   // location | pincode | college
	Query string   // xóa cả khóa exact và norm của truy vấn này
}

// InvalidateResult kết quả invalidate
type InvalidateResult struct {
	Cleared bool     `json:"cleared"`
	Deleted []string `json:"deleted"`
}

// BackfillOptions tùy chọn backfill toạ độ hàng loạt
type BackfillOptions struct {
	Limit       int
	Concurrency int
	Interval    time.Duration // khoảng cách tối thiểu giữa hai lần hỏi provider
	OnStart     func(total int)
	OnProgress  func()
}

// BackfillResult kết quả backfill
type BackfillResult struct {
	Scanned          int   `json:"scanned"`
	Updated          int64 `json:"updated"`
	Missed           int64 `json:"missed"`
	Failed           int64 `json:"failed"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// SeedResult kết quả seed
type SeedResult struct {
	LocationsInserted int   `json:"locations_inserted"`
	LocationsSkipped  int   `json:"locations_skipped"`
	CollegesInserted  int   `json:"colleges_inserted"`
	CollegesSkipped   int   `json:"colleges_skipped"`
	Invalid           int   `json:"invalid"`
	ProcessingTimeMs  int64 `json:"processing_time_ms"`
}

// ReindexResult kết quả reindex Meilisearch
type ReindexResult struct {
	Locations        int   `json:"locations"`
	Colleges         int   `json:"colleges"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// ScoredCandidate một dòng trong fuzzy explain
type ScoredCandidate struct {
	Name     string  `json:"name"`
	Code     string  `json:"code,omitempty"`
	Base     float64 `json:"base"`
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
	Accepted bool    `json:"accepted"`
}

// FuzzyExplanation kết quả fuzzy explain
type FuzzyExplanation struct {
	Query      string            `json:"query"`
	Normalized string            `json:"normalized"`
	Scope      string            `json:"scope"`
	Scoring    matcher.Scoring   `json:"scoring"`
	Candidates []ScoredCandidate `json:"candidates"`
}

// NewAdminService tạo mới AdminService. indexer nil khi Meilisearch tắt.
func NewAdminService(
	st store.Store,
	locations *LocationService,
	colleges *CollegeService,
	chain *provider.Chain,
	cache IResultCache,
	indexer *search.Indexer,
	policy timebox.Policy,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		st:        st,
		locations: locations,
		colleges:  colleges,
		chain:     chain,
		cache:     cache,
		indexer:   indexer,
		policy:    policy,
		started:   time.Now(),
		logger:    logger,
	}
}

// GetSystemStats lấy thống kê hệ thống
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	cacheStats, err := as.cache.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi lấy cache stats: %w", err)
	}

	storeStats := as.StoreHealth(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var providers []string
	if as.chain != nil {
		providers = as.chain.Names()
	}

	return &SystemStats{
		Uptime:    time.Since(as.started).Round(time.Second).String(),
		Store:     storeStats,
		Cache:     cacheStats,
		Providers: providers,
		Search:    as.indexer != nil,
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
			"goroutines":     runtime.NumGoroutine(),
		},
	}, nil
}

// StoreHealth ping store trong giới hạn thời gian
func (as *AdminService) StoreHealth(ctx context.Context) StoreStats {
	if as.st == nil {
		return StoreStats{Error: store.ErrUnavailable.Error()}
	}
	_, err := timebox.Do(ctx, as.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, as.st.Ping(ctx)
	})
	if err != nil {
		return StoreStats{Error: err.Error()}
	}
	return StoreStats{Available: true}
}

// InvalidateCache xóa cache theo key, theo truy vấn hoặc toàn bộ
func (as *AdminService) InvalidateCache(ctx context.Context, opts InvalidateOptions) (*InvalidateResult, error) {
	if opts.All {
		if err := as.cache.Clear(ctx); err != nil {
			return nil, fmt.Errorf("lỗi clear cache: %w", err)
		}
		as.logger.Info("Đã xóa toàn bộ cache")
		return &InvalidateResult{Cleared: true, Deleted: []string{}}, nil
	}

	keys := append([]string(nil), opts.Keys...)
	if opts.Query != "" {
		switch opts.Scope {
		case models.ScopeLocation, models.ScopePincode, models.ScopeCollege:
		default:
			return nil, invalidInput("scope must be one of location, pincode, college")
		}
		keys = append(keys,
			models.CacheKey(models.NamespaceExact, opts.Scope, normalizer.Trim(opts.Query)),
			models.CacheKey(models.NamespaceNorm, opts.Scope, normalizer.Normalize(opts.Query)))
	}
	if len(keys) == 0 {
		return nil, invalidInput("nothing to invalidate: set all, keys or scope+query")
	}

	var errs []error
	for _, key := range keys {
		if err := as.cache.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("lỗi xóa cache: %w", err)
	}
	as.logger.Info("Đã invalidate cache", zap.Strings("keys", keys))
	return &InvalidateResult{Deleted: keys}, nil
}

// BackfillMissing bổ sung toạ độ cho các địa điểm đã lưu nhưng chưa có toạ độ.
// Chạy song song có giới hạn, mọi lần gọi provider đi qua cùng một rate limiter.
func (as *AdminService) BackfillMissing(ctx context.Context, opts BackfillOptions) (*BackfillResult, error) {
	if as.st == nil {
		return nil, storeUnavailable(store.ErrUnavailable)
	}
	if as.chain == nil {
		return nil, invalidInput("no providers configured")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	startTime := time.Now()
	locations := as.st.Locations()
	rows, err := timebox.Do(ctx, as.policy, func(ctx context.Context) ([]models.LocationRecord, error) {
		return locations.ListMissingCoordinates(ctx, opts.Limit)
	})
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if opts.OnStart != nil {
		opts.OnStart(len(rows))
	}

	limiter := rate.NewLimiter(rate.Every(opts.Interval), 1)
	var updated, missed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, rec := range rows {
		rec := rec
		g.Go(func() error {
			if opts.OnProgress != nil {
				defer opts.OnProgress()
			}
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			coords, ok := as.chain.Backfill(gctx, rec.Code, "")
			if !ok {
				missed.Add(1)
				return nil
			}
			rec.SetCoordinates(coords.Latitude, coords.Longitude)
			if err := locations.UpdateCoordinates(gctx, rec.Code, coords.Latitude, coords.Longitude, rec.Geohash); err != nil {
				as.logger.Warn("Lỗi lưu toạ độ backfill", zap.String("code", rec.Code), zap.Error(err))
				failed.Add(1)
				return nil
			}
			updated.Add(1)
			as.forgetCode(gctx, rec.Code)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backfill bị dừng: %w", err)
	}

	result := &BackfillResult{
		Scanned:          len(rows),
		Updated:          updated.Load(),
		Missed:           missed.Load(),
		Failed:           failed.Load(),
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	}
	as.logger.Info("Backfill completed",
		zap.Int("scanned", result.Scanned),
		zap.Int64("updated", result.Updated),
		zap.Int64("missed", result.Missed),
		zap.Int64("failed", result.Failed))
	return result, nil
}

// forgetCode xóa kết quả nhánh mã cũ (chưa có toạ độ) khỏi cache
func (as *AdminService) forgetCode(ctx context.Context, code string) {
	for _, ns := range []models.Namespace{models.NamespaceExact, models.NamespaceNorm} {
		if err := as.cache.Delete(ctx, models.CacheKey(ns, models.ScopePincode, code)); err != nil {
			as.logger.Debug("Lỗi xóa cache", zap.String("code", code), zap.Error(err))
		}
	}
}

// Seed nạp dữ liệu vào store. Mã đã tồn tại được bỏ qua nên chạy lại nhiều lần an toàn.
func (as *AdminService) Seed(ctx context.Context, data models.SeedFile) (*SeedResult, error) {
	if as.st == nil {
		return nil, storeUnavailable(store.ErrUnavailable)
	}
	startTime := time.Now()
	result := &SeedResult{}

	for _, sl := range data.Locations {
		rec, ok := locationFromSeed(sl)
		if !ok {
			result.Invalid++
			as.logger.Warn("Bỏ qua dòng seed không hợp lệ", zap.String("code", sl.Code), zap.String("name", sl.Name))
			continue
		}
		err := as.st.Locations().Insert(ctx, &rec)
		switch {
		case err == nil:
			result.LocationsInserted++
		case errors.Is(err, store.ErrDuplicateKey):
			result.LocationsSkipped++
		default:
			return result, fmt.Errorf("lỗi seed địa điểm %s: %w", rec.Code, err)
		}
	}

	for _, sc := range data.Colleges {
		rec, ok := collegeFromSeed(sc)
		if !ok {
			result.Invalid++
			continue
		}
		exists, err := as.collegeExists(ctx, rec)
		if err != nil {
			return result, fmt.Errorf("lỗi kiểm tra college %q: %w", rec.Name, err)
		}
		if exists {
			result.CollegesSkipped++
			continue
		}
		if err := as.st.Colleges().Insert(ctx, &rec); err != nil {
			return result, fmt.Errorf("lỗi seed college %q: %w", rec.Name, err)
		}
		result.CollegesInserted++
	}

	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	as.logger.Info("Seed completed",
		zap.Int("locations_inserted", result.LocationsInserted),
		zap.Int("locations_skipped", result.LocationsSkipped),
		zap.Int("colleges_inserted", result.CollegesInserted),
		zap.Int("colleges_skipped", result.CollegesSkipped),
		zap.Int("invalid", result.Invalid))
	return result, nil
}

// collegeExists college không có khóa duy nhất, coi (tên, mã) là trùng
func (as *AdminService) collegeExists(ctx context.Context, rec models.EntityRecord) (bool, error) {
	rows, err := as.st.Colleges().FindNameEqual(ctx, rec.Name)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if r.Code == rec.Code {
			return true, nil
		}
	}
	return false, nil
}

func locationFromSeed(sl models.SeedLocation) (models.LocationRecord, bool) {
	if sl.Address != "" {
		loc := external.ParseLocality(sl.Address)
		sl.Code = firstSet(sl.Code, loc.Postcode)
		sl.Name = firstSet(sl.Name, loc.Name)
		sl.District = firstSet(sl.District, loc.District)
		sl.State = firstSet(sl.State, loc.State)
	}
	sl.Code = strings.TrimSpace(sl.Code)
	if !matcher.IsPostalCode(sl.Code) || normalizer.Trim(sl.Name) == "" {
		return models.LocationRecord{}, false
	}
	now := time.Now()
	rec := models.LocationRecord{
		Code:      sl.Code,
		Name:      normalizer.Trim(sl.Name),
		District:  normalizer.Trim(sl.District),
		State:     normalizer.Trim(sl.State),
		Source:    "seed",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sl.Latitude != nil && sl.Longitude != nil {
		rec.SetCoordinates(*sl.Latitude, *sl.Longitude)
	}
	return rec, true
}

func collegeFromSeed(sc models.SeedCollege) (models.EntityRecord, bool) {
	if sc.Address != "" {
		loc := external.ParseLocality(sc.Address)
		sc.Code = firstSet(sc.Code, loc.Postcode)
		sc.Locality = firstSet(sc.Locality, loc.Name)
		sc.District = firstSet(sc.District, loc.District)
		sc.State = firstSet(sc.State, loc.State)
	}
	if normalizer.Trim(sc.Name) == "" {
		return models.EntityRecord{}, false
	}
	category := sc.Category
	if category == "" {
		category = "college"
	}
	return models.EntityRecord{
		Name:      normalizer.Trim(sc.Name),
		Category:  category,
		Code:      strings.TrimSpace(sc.Code),
		Locality:  sc.Locality,
		District:  sc.District,
		State:     sc.State,
		Latitude:  sc.Latitude,
		Longitude: sc.Longitude,
		Source:    "seed",
		CreatedAt: time.Now(),
	}, true
}

func firstSet(current, fallback string) string {
	if strings.TrimSpace(current) != "" {
		return current
	}
	return fallback
}

// Reindex đẩy toàn bộ bản ghi trong store sang Meilisearch
func (as *AdminService) Reindex(ctx context.Context) (*ReindexResult, error) {
	if as.indexer == nil {
		return nil, &ResolveError{Kind: KindBackingStoreUnavailable, Message: "search index disabled", Details: "set meilisearch.enabled=true"}
	}
	if as.st == nil {
		return nil, storeUnavailable(store.ErrUnavailable)
	}
	startTime := time.Now()

	if err := as.indexer.EnsureSettings(ctx); err != nil {
		return nil, err
	}
	locs, err := as.st.Locations().List(ctx, 0)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	cols, err := as.st.Colleges().List(ctx, 0)
	if err != nil {
		return nil, classifyStoreErr(err)
	}

	result := &ReindexResult{}
	if result.Locations, err = as.indexer.IndexLocations(ctx, locs); err != nil {
		return nil, err
	}
	if result.Colleges, err = as.indexer.IndexColleges(ctx, cols); err != nil {
		return nil, err
	}
	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	as.logger.Info("Reindex completed",
		zap.Int("locations", result.Locations),
		zap.Int("colleges", result.Colleges))
	return result, nil
}

// ExplainFuzzy xếp hạng ứng viên fuzzy cho một truy vấn, dùng để tinh chỉnh ngưỡng
func (as *AdminService) ExplainFuzzy(ctx context.Context, scope, query string) (*FuzzyExplanation, error) {
	out := &FuzzyExplanation{
		Query:      query,
		Normalized: normalizer.Normalize(query),
		Scope:      scope,
		Scoring:    as.locations.Scoring(),
		Candidates: []ScoredCandidate{},
	}
	cutoff := out.Scoring.RejectCutoff

	switch scope {
	case models.ScopeLocation, "":
		out.Scope = models.ScopeLocation
		ranked, err := as.locations.ExplainFuzzy(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, s := range ranked {
			out.Candidates = append(out.Candidates, ScoredCandidate{
				Name: s.Record.Name, Code: s.Record.Code,
				Base: s.Base, Score: s.Score, Distance: s.Distance,
				Accepted: s.Score < cutoff,
			})
		}
	case models.ScopeCollege:
		ranked, err := as.colleges.ExplainFuzzy(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, s := range ranked {
			out.Candidates = append(out.Candidates, ScoredCandidate{
				Name: s.Record.Name, Code: s.Record.Code,
				Base: s.Base, Score: s.Score, Distance: s.Distance,
				Accepted: s.Score < cutoff,
			})
		}
	default:
		return nil, invalidInput("scope must be location or college")
	}
	return out, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
