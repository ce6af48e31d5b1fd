package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/matcher"
	"github.com/locality-resolver/internal/provider"
	"github.com/locality-resolver/internal/store"
	"github.com/locality-resolver/internal/timebox"
)

// LocationService coordinator cho địa điểm: phân loại truy vấn rồi chạy
// nhánh mã bưu chính hoặc nhánh tìm theo tên
type LocationService struct {
	locations store.LocationStore
	chain     *provider.Chain
	cache     IResultCache
	names     *NameResolver[models.LocationRecord]
	opts      ResolverOptions
	logger    *zap.Logger
}

// NewLocationService tạo mới LocationService. candidates nil thì working set lấy từ store.
func NewLocationService(
	locations store.LocationStore,
	chain *provider.Chain,
	cache IResultCache,
	candidates CandidateSource[models.LocationRecord],
	opts ResolverOptions,
	logger *zap.Logger,
) *LocationService {
	var names store.NameStore[models.LocationRecord]
	if locations != nil {
		names = locations
	}
	return &LocationService{
		locations: locations,
		chain:     chain,
		cache:     cache,
		names: NewNameResolver(models.ScopeLocation, names, candidates, cache, opts,
			locationValue,
			func(v models.CacheValue) (models.LocationRecord, bool) {
				if v.Location == nil {
					return models.LocationRecord{}, false
				}
				return *v.Location, true
			},
			logger),
		opts:   opts,
		logger: logger,
	}
}

// Resolve phân loại truy vấn: 6 chữ số đi nhánh mã, còn lại tìm theo tên
func (ls *LocationService) Resolve(ctx context.Context, query string) (models.Resolution[models.LocationRecord], error) {
	path, err := matcher.Classify(query)
	if err != nil {
		return models.Resolution[models.LocationRecord]{}, invalidInput("query must not be empty")
	}
	if path == models.PostalCodePath {
		return ls.ResolveByCode(ctx, strings.TrimSpace(query))
	}
	return ls.SearchByName(ctx, query)
}

// SearchByName nhánh tìm theo tên địa điểm
func (ls *LocationService) SearchByName(ctx context.Context, name string) (models.Resolution[models.LocationRecord], error) {
	return ls.names.Search(ctx, name)
}

// ExplainFuzzy danh sách ứng viên fuzzy đã chấm điểm
func (ls *LocationService) ExplainFuzzy(ctx context.Context, query string) ([]matcher.Scored[models.LocationRecord], error) {
	return ls.names.Explain(ctx, query)
}

// Scoring bộ hằng số fuzzy đang dùng
func (ls *LocationService) Scoring() matcher.Scoring {
	return ls.names.Scoring()
}

// ResolveByCode nhánh mã bưu chính:
// cache -> store -> (backfill toạ độ) -> provider chain -> ghi store -> cache
func (ls *LocationService) ResolveByCode(ctx context.Context, code string) (models.Resolution[models.LocationRecord], error) {
	var zero models.Resolution[models.LocationRecord]

	code = strings.TrimSpace(code)
	if !matcher.IsPostalCode(code) {
		return zero, invalidInput("postal code must be exactly 6 digits")
	}

	key := models.CacheKey(models.NamespaceExact, models.ScopePincode, code)
	if res, ok := ls.fromCache(ctx, key); ok {
		return res, nil
	}

	if ls.locations == nil {
		return zero, storeUnavailable(store.ErrUnavailable)
	}

	rec, err := ls.findByCode(ctx, code)
	switch {
	case err == nil:
		if !rec.HasCoordinates() {
			ls.backfillStored(ctx, rec)
		}
		ls.rememberCode(ctx, code, *rec, models.StrategyStore)
		return models.Resolution[models.LocationRecord]{Record: *rec, Strategy: models.StrategyStore}, nil
	case errors.Is(err, store.ErrNotFound):
	default:
		return zero, classifyStoreErr(err)
	}

	resolved, err := ls.resolveExternal(ctx, code)
	if err != nil {
		return zero, err
	}
	ls.rememberCode(ctx, code, resolved, models.StrategyProvider)
	return models.Resolution[models.LocationRecord]{Record: resolved, Strategy: models.StrategyProvider}, nil
}

// resolveExternal hỏi provider chain và ghi kết quả vào store
func (ls *LocationService) resolveExternal(ctx context.Context, code string) (models.LocationRecord, error) {
	if ls.chain == nil {
		return models.LocationRecord{}, notFound("no location found for postal code %s", code)
	}
	cand, winner := ls.chain.Resolve(ctx, code)
	if cand == nil {
		return models.LocationRecord{}, notFound("no location found for postal code %s", code)
	}

	rec := cand.ToLocation()
	if !rec.HasCoordinates() {
		if coords, ok := ls.chain.Backfill(ctx, code, winner); ok {
			rec.SetCoordinates(coords.Latitude, coords.Longitude)
			ls.logger.Info("Đã backfill toạ độ cho bản ghi mới",
				zap.String("code", code),
				zap.String("provider", coords.Source))
		}
	}

	err := ls.locations.Insert(ctx, &rec)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicateKey):
		// request khác đã ghi cùng mã, đọc lại bản ghi đã lưu
		stored, rerr := ls.findByCode(ctx, code)
		if rerr != nil {
			ls.logger.Warn("Đọc lại sau duplicate key thất bại", zap.String("code", code), zap.Error(rerr))
			break
		}
		rec = *stored
	default:
		ls.logger.Warn("Lỗi ghi bản ghi vào store, vẫn trả kết quả",
			zap.String("code", code),
			zap.Error(err))
	}
	return rec, nil
}

// backfillStored bổ sung toạ độ cho bản ghi đã có trong store. Lỗi không làm hỏng request.
func (ls *LocationService) backfillStored(ctx context.Context, rec *models.LocationRecord) {
	if ls.chain == nil {
		return
	}
	coords, ok := ls.chain.Backfill(ctx, rec.Code, "")
	if !ok {
		return
	}
	rec.SetCoordinates(coords.Latitude, coords.Longitude)
	if err := ls.locations.UpdateCoordinates(ctx, rec.Code, coords.Latitude, coords.Longitude, rec.Geohash); err != nil {
		ls.logger.Warn("Lỗi lưu toạ độ backfill", zap.String("code", rec.Code), zap.Error(err))
		return
	}
	ls.logger.Info("Đã backfill toạ độ",
		zap.String("code", rec.Code),
		zap.String("provider", coords.Source))
}

func (ls *LocationService) findByCode(ctx context.Context, code string) (*models.LocationRecord, error) {
	return timebox.Do(ctx, ls.opts.Policy, func(ctx context.Context) (*models.LocationRecord, error) {
		return ls.locations.FindByCode(ctx, code)
	})
}

func (ls *LocationService) fromCache(ctx context.Context, key string) (models.Resolution[models.LocationRecord], bool) {
	entry, found, err := ls.cache.Get(ctx, key)
	if err != nil {
		ls.logger.Warn("Lỗi đọc cache, bỏ qua", zap.String("key", key), zap.Error(err))
		return models.Resolution[models.LocationRecord]{}, false
	}
	if !found || entry.Value.Location == nil {
		return models.Resolution[models.LocationRecord]{}, false
	}
	return models.Resolution[models.LocationRecord]{
		Record:   *entry.Value.Location,
		Strategy: entry.Value.Strategy,
		CacheHit: true,
	}, true
}

// rememberCode ghi kết quả nhánh mã vào cả hai namespace
func (ls *LocationService) rememberCode(ctx context.Context, code string, rec models.LocationRecord, strategy models.MatchStrategy) {
	value := locationValue(rec, strategy)
	for _, ns := range []models.Namespace{models.NamespaceExact, models.NamespaceNorm} {
		key := models.CacheKey(ns, models.ScopePincode, code)
		if err := ls.cache.Set(ctx, key, value, ls.opts.LookupTTL); err != nil {
			ls.logger.Warn("Lỗi ghi cache", zap.String("key", key), zap.Error(err))
		}
	}
}

// List danh sách địa điểm, lọc theo bang nếu có. Cache 1 giờ.
func (ls *LocationService) List(ctx context.Context, state string, limit int) ([]models.LocationRecord, error) {
	state = strings.TrimSpace(state)
	if limit <= 0 || limit > ls.opts.BulkLimit {
		limit = ls.opts.BulkLimit
	}
	key := models.CacheKey(models.NamespaceBulk, models.ScopeLocation,
		fmt.Sprintf("state=%s&limit=%d", strings.ToLower(state), limit))

	if entry, found, err := ls.cache.Get(ctx, key); err == nil && found {
		return entry.Value.Locations, nil
	}
	if ls.locations == nil {
		return nil, storeUnavailable(store.ErrUnavailable)
	}

	rows, err := timebox.Do(ctx, ls.opts.Policy, func(ctx context.Context) ([]models.LocationRecord, error) {
		if state == "" {
			return ls.locations.List(ctx, limit)
		}
		return ls.locations.ListByState(ctx, state, limit)
	})
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	if rows == nil {
		rows = []models.LocationRecord{}
	}

	if err := ls.cache.Set(ctx, key, models.CacheValue{Locations: rows}, ls.opts.BulkTTL); err != nil {
		ls.logger.Warn("Lỗi ghi cache", zap.String("key", key), zap.Error(err))
	}
	return rows, nil
}
