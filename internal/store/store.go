// Package store là tầng lưu trữ bền vững (PersistedStore) cho địa điểm và
// thực thể. Có ba backend: MongoDB, Postgres (gorm) và SQLite nhúng.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

var (
	// ErrNotFound không có bản ghi với khóa đã cho
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicateKey vi phạm ràng buộc duy nhất khi insert
	ErrDuplicateKey = errors.New("store: duplicate key")
	// ErrUnavailable store chưa khởi tạo hoặc mất kết nối
	ErrUnavailable = errors.New("store: backing store unavailable")
)

// Drivers được hỗ trợ
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NameStore các truy vấn theo tên dùng chung cho mọi loại bản ghi.
// Kết quả được sắp xếp theo tên tăng dần.
type NameStore[T any] interface {
	FindNameEqual(ctx context.Context, name string) ([]T, error)
	FindNameContains(ctx context.Context, fragment string) ([]T, error)
	FindNameAnyToken(ctx context.Context, tokens []string) ([]T, error)
	List(ctx context.Context, limit int) ([]T, error)
}

// LocationStore store địa điểm theo mã bưu chính
type LocationStore interface {
	NameStore[models.LocationRecord]
	FindByCode(ctx context.Context, code string) (*models.LocationRecord, error)
	Insert(ctx context.Context, rec *models.LocationRecord) error
	UpdateCoordinates(ctx context.Context, code string, lat, lon float64, geohash string) error
	ListMissingCoordinates(ctx context.Context, limit int) ([]models.LocationRecord, error)
	ListByState(ctx context.Context, state string, limit int) ([]models.LocationRecord, error)
}

// EntityStore store thực thể (college)
type EntityStore interface {
	NameStore[models.EntityRecord]
	Insert(ctx context.Context, rec *models.EntityRecord) error
}

// Store một backend hoàn chỉnh
type Store interface {
	Locations() LocationStore
	Colleges() EntityStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options cấu hình kết nối backend
type Options struct {
	Driver        string
	MongoURL      string
	MongoDatabase string
	PostgresDSN   string
	SQLitePath    string
}

// Open mở backend theo driver
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverMongo:
		return NewMongoStore(ctx, opts.MongoURL, opts.MongoDatabase, logger)
	case DriverPostgres:
		return NewPostgresStore(opts.PostgresDSN, logger)
	case DriverSQLite, "":
		return NewSQLiteStore(opts.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("driver store không hỗ trợ: %q", opts.Driver)
	}
}

// unavailable bọc lỗi kết nối để coordinator trả 503
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// likeEscaper escape ký tự đặc biệt của LIKE/ILIKE với "\" làm escape char
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
