package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/config"
	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/matcher"
	"github.com/locality-resolver/internal/provider"
	"github.com/locality-resolver/internal/search"
	"github.com/locality-resolver/internal/store"
	"github.com/locality-resolver/internal/timebox"
)

// Container các service đã được nối dây, dùng chung cho API, worker và MCP
type Container struct {
	Store     store.Store // nil nếu không kết nối được
	Cache     IResultCache
	Chain     *provider.Chain
	Search    *search.ClientWrapper // nil nếu Meilisearch tắt
	Locations *LocationService
	Colleges  *CollegeService
	Admin     *AdminService
	logger    *zap.Logger
}

// ResolverOptionsFromConfig chuyển config sang ResolverOptions
func ResolverOptionsFromConfig(cfg *config.Config) ResolverOptions {
	opts := DefaultResolverOptions()
	opts.Policy = timebox.Policy{First: cfg.Resolver.ReadTimeout, Retry: cfg.Resolver.RetryTimeout}
	opts.LookupTTL = cfg.Cache.LookupTTL
	opts.BulkTTL = cfg.Cache.BulkTTL
	if cfg.Resolver.WorkingSetLimit > 0 {
		opts.WorkingSetLimit = cfg.Resolver.WorkingSetLimit
	}
	if cfg.Resolver.BulkLimit > 0 {
		opts.BulkLimit = cfg.Resolver.BulkLimit
	}
	opts.Scoring = scoringFromConfig(cfg.Fuzzy)
	return opts
}

func scoringFromConfig(f config.FuzzyCfg) matcher.Scoring {
	s := matcher.DefaultScoring()
	if f.AcceptThreshold > 0 {
		s.AcceptThreshold = f.AcceptThreshold
	}
	if f.RejectCutoff > 0 {
		s.RejectCutoff = f.RejectCutoff
	}
	if f.PrefixBonus != 0 {
		s.PrefixBonus = f.PrefixBonus
	}
	if f.WordPrefixBonus != 0 {
		s.WordPrefixBonus = f.WordPrefixBonus
	}
	if f.ContainsBonus != 0 {
		s.ContainsBonus = f.ContainsBonus
	}
	if f.PositionPenalty != 0 {
		s.PositionPenalty = f.PositionPenalty
	}
	if f.JaroBoostThreshold > 0 {
		s.JaroBoostThreshold = f.JaroBoostThreshold
	}
	return s
}

// NewCache tạo cache theo cache.driver
func NewCache(cfg *config.Config, logger *zap.Logger) (IResultCache, error) {
	memory, err := NewCacheService(cfg.Cache.Capacity, cfg.Cache.SweepWatermark, nil, logger)
	if err != nil {
		return nil, err
	}
	switch cfg.Cache.Driver {
	case "redis", "hybrid":
		redisCache, err := NewRedisCacheService(cfg.Redis.URL, cfg.Redis.Prefix, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Cache.Driver == "redis" {
			return redisCache, nil
		}
		return NewHybridCacheService(memory, redisCache, logger), nil
	default:
		return memory, nil
	}
}

// Bootstrap nối dây toàn bộ service từ config. Store không kết nối được
// không làm hỏng khởi động: các request cần store sẽ trả 503.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{logger: logger}

	st, err := store.Open(ctx, store.Options{
		Driver:        cfg.Store.Driver,
		MongoURL:      cfg.Mongo.URL,
		MongoDatabase: cfg.Mongo.Database,
		PostgresDSN:   cfg.Postgres.DSN,
		SQLitePath:    cfg.SQLite.Path,
	}, logger)
	if err != nil {
		logger.Error("Không thể mở store, chạy ở chế độ không có store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	} else {
		c.Store = st
	}

	c.Cache, err = NewCache(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("lỗi khởi tạo cache: %w", err)
	}

	c.Chain = provider.Build(provider.Options{
		UserAgent:            cfg.Providers.UserAgent,
		HTTPTimeout:          cfg.Providers.HTTPTimeout,
		PostalIndexURL:       cfg.Providers.PostalIndexURL,
		ZippopotamURL:        cfg.Providers.ZippopotamURL,
		NominatimURL:         cfg.Providers.Nominatim.URL,
		NominatimMinInterval: cfg.Providers.Nominatim.MinInterval,
		NominatimStrict:      cfg.Providers.Nominatim.Strict,
		GoogleURL:            cfg.Providers.Google.URL,
		GoogleAPIKey:         cfg.Providers.Google.APIKey,
	}, logger)

	var (
		locationStore  store.LocationStore
		collegeStore   store.EntityStore
		locCandidates  CandidateSource[models.LocationRecord]
		collCandidates CandidateSource[models.EntityRecord]
		indexer        *search.Indexer
	)
	if c.Store != nil {
		locationStore = c.Store.Locations()
		collegeStore = c.Store.Colleges()
	}

	if cfg.Meilisearch.Enabled {
		c.Search = search.NewClientWrapper(search.Config{Host: cfg.Meilisearch.URL, APIKey: cfg.Meilisearch.MasterKey})
		if !c.Search.Healthy() {
			logger.Warn("Meilisearch không phản hồi, working set sẽ lấy từ store", zap.String("url", cfg.Meilisearch.URL))
		}
		indexer = search.NewIndexer(c.Search, logger)
		if locationStore != nil {
			locCandidates = WithFallback[models.LocationRecord](search.NewLocationCandidates(c.Search, logger), locationStore, logger)
		}
		if collegeStore != nil {
			collCandidates = WithFallback[models.EntityRecord](search.NewCollegeCandidates(c.Search, logger), collegeStore, logger)
		}
	}

	opts := ResolverOptionsFromConfig(cfg)
	c.Locations = NewLocationService(locationStore, c.Chain, c.Cache, locCandidates, opts, logger)
	c.Colleges = NewCollegeService(collegeStore, c.Cache, collCandidates, opts, logger)
	c.Admin = NewAdminService(c.Store, c.Locations, c.Colleges, c.Chain, c.Cache, indexer, opts.Policy, logger)

	logger.Info("Services ready",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("store_available", c.Store != nil),
		zap.String("cache", cfg.Cache.Driver),
		zap.Bool("meilisearch", c.Search != nil))
	return c, nil
}

// Close đóng store và cache
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close(ctx))
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	return errors.Join(errs...)
}
