package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/locality-resolver/app/models"
)

// PostgresStore backend Postgres qua gorm
type PostgresStore struct {
	db        *gorm.DB
	locations *gormLocations
	colleges  *gormColleges
}

// NewPostgresStore mở kết nối và AutoMigrate schema
func NewPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("lỗi kết nối Postgres: %w", err)
	}
	return newGormStore(db, logger)
}

func newGormStore(db *gorm.DB, logger *zap.Logger) (*PostgresStore, error) {
	if err := db.AutoMigrate(&models.LocationRecord{}, &models.EntityRecord{}); err != nil {
		return nil, fmt.Errorf("lỗi migrate schema: %w", err)
	}
	logger.Info("Connected to Postgres, schema migrated")

	return &PostgresStore{
		db:        db,
		locations: &gormLocations{gormNames[models.LocationRecord]{db: db}},
		colleges:  &gormColleges{gormNames[models.EntityRecord]{db: db}},
	}, nil
}

func (s *PostgresStore) Locations() LocationStore { return s.locations }
func (s *PostgresStore) Colleges() EntityStore    { return s.colleges }

// Ping kiểm tra kết nối
func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close đóng pool kết nối
func (s *PostgresStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormNames[T any] struct {
	db *gorm.DB
}

func (g gormNames[T]) find(ctx context.Context, limit int, query interface{}, args ...interface{}) ([]T, error) {
	tx := g.db.WithContext(ctx).Order("name ASC")
	if query != nil {
		tx = tx.Where(query, args...)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []T
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lỗi query Postgres: %w", err)
	}
	return rows, nil
}

func (g gormNames[T]) FindNameEqual(ctx context.Context, name string) ([]T, error) {
	return g.find(ctx, 0, "LOWER(name) = ?", strings.ToLower(name))
}

func (g gormNames[T]) FindNameContains(ctx context.Context, fragment string) ([]T, error) {
	return g.find(ctx, 0, "name ILIKE ?", containsPattern(fragment))
}

func (g gormNames[T]) FindNameAnyToken(ctx context.Context, tokens []string) ([]T, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	clauses := make([]string, len(tokens))
	args := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		clauses[i] = "name ILIKE ?"
		args[i] = containsPattern(tok)
	}
	return g.find(ctx, 0, strings.Join(clauses, " OR "), args...)
}

func (g gormNames[T]) List(ctx context.Context, limit int) ([]T, error) {
	return g.find(ctx, limit, nil)
}

type gormLocations struct {
	gormNames[models.LocationRecord]
}

func (g *gormLocations) FindByCode(ctx context.Context, code string) (*models.LocationRecord, error) {
	var rec models.LocationRecord
	err := g.db.WithContext(ctx).Where("code = ?", code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lỗi query Postgres: %w", err)
	}
	return &rec, nil
}

func (g *gormLocations) Insert(ctx context.Context, rec *models.LocationRecord) error {
	err := g.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("lỗi insert Postgres: %w", err)
	}
	return nil
}

func (g *gormLocations) UpdateCoordinates(ctx context.Context, code string, lat, lon float64, geohash string) error {
	res := g.db.WithContext(ctx).Model(&models.LocationRecord{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"latitude":   lat,
			"longitude":  lon,
			"geohash":    geohash,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("lỗi cập nhật toạ độ: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *gormLocations) ListMissingCoordinates(ctx context.Context, limit int) ([]models.LocationRecord, error) {
	return g.find(ctx, limit, "latitude IS NULL OR longitude IS NULL")
}

func (g *gormLocations) ListByState(ctx context.Context, state string, limit int) ([]models.LocationRecord, error) {
	return g.find(ctx, limit, "LOWER(state) = ?", strings.ToLower(state))
}

type gormColleges struct {
	gormNames[models.EntityRecord]
}

func (g *gormColleges) Insert(ctx context.Context, rec *models.EntityRecord) error {
	err := g.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("lỗi insert Postgres: %w", err)
	}
	return nil
}
