package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/locality-resolver/app/models"
)

// sqliteDriverName tên driver database/sql do modernc đăng ký
const sqliteDriverName = "sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS locations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	code       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	district   TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	latitude   REAL,
	longitude  REAL,
	geohash    TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_locations_name ON locations(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_locations_state ON locations(state COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS colleges (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	code       TEXT NOT NULL DEFAULT '',
	locality   TEXT NOT NULL DEFAULT '',
	district   TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	latitude   REAL,
	longitude  REAL,
	source     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_colleges_name ON colleges(name COLLATE NOCASE);
`

// SQLiteStore backend SQLite nhúng, dùng cho dev và test
type SQLiteStore struct {
	db        *sql.DB
	locations *sqliteLocations
	colleges  *sqliteColleges
}

// NewSQLiteStore mở file SQLite (hoặc ":memory:") và tạo schema
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("lỗi tạo thư mục SQLite: %w", err)
		}
	}
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("lỗi mở SQLite: %w", err)
	}
	// Mỗi kết nối ":memory:" là một database riêng
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("lỗi cấu hình SQLite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("lỗi tạo schema SQLite: %w", err)
	}
	logger.Info("Opened SQLite store", zap.String("path", path))

	return &SQLiteStore{
		db: db,
		locations: &sqliteLocations{sqliteNames[models.LocationRecord]{
			db:      db,
			table:   "locations",
			columns: "code, name, district, state, latitude, longitude, geohash, source, created_at, updated_at",
			scan:    scanLocation,
		}},
		colleges: &sqliteColleges{sqliteNames[models.EntityRecord]{
			db:      db,
			table:   "colleges",
			columns: "name, category, code, locality, district, state, latitude, longitude, source, created_at",
			scan:    scanEntity,
		}},
	}, nil
}

func (s *SQLiteStore) Locations() LocationStore { return s.locations }
func (s *SQLiteStore) Colleges() EntityStore    { return s.colleges }

// Ping kiểm tra kết nối
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close đóng database
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

type sqliteNames[T any] struct {
	db      *sql.DB
	table   string
	columns string
	scan    func(rowScanner) (T, error)
}

func (s sqliteNames[T]) query(ctx context.Context, where string, limit int, args ...any) ([]T, error) {
	q := "SELECT " + s.columns + " FROM " + s.table
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY name COLLATE NOCASE ASC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, sqliteErr(err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("lỗi scan %s: %w", s.table, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s sqliteNames[T]) FindNameEqual(ctx context.Context, name string) ([]T, error) {
	return s.query(ctx, "LOWER(name) = ?", 0, strings.ToLower(name))
}

func (s sqliteNames[T]) FindNameContains(ctx context.Context, fragment string) ([]T, error) {
	return s.query(ctx, `LOWER(name) LIKE ? ESCAPE '\'`, 0, containsPattern(fragment))
}

func (s sqliteNames[T]) FindNameAnyToken(ctx context.Context, tokens []string) ([]T, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	clauses := make([]string, len(tokens))
	args := make([]any, len(tokens))
	for i, tok := range tokens {
		clauses[i] = `LOWER(name) LIKE ? ESCAPE '\'`
		args[i] = containsPattern(tok)
	}
	return s.query(ctx, strings.Join(clauses, " OR "), 0, args...)
}

func (s sqliteNames[T]) List(ctx context.Context, limit int) ([]T, error) {
	return s.query(ctx, "", limit)
}

type sqliteLocations struct {
	sqliteNames[models.LocationRecord]
}

func (s *sqliteLocations) FindByCode(ctx context.Context, code string) (*models.LocationRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+s.columns+" FROM locations WHERE code = ?", code)
	rec, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, sqliteErr(err)
	}
	return &rec, nil
}

func (s *sqliteLocations) Insert(ctx context.Context, rec *models.LocationRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO locations (code, name, district, state, latitude, longitude, geohash, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Code, rec.Name, rec.District, rec.State, rec.Latitude, rec.Longitude,
		rec.Geohash, rec.Source, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return sqliteErr(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = uint(id)
	}
	return nil
}

func (s *sqliteLocations) UpdateCoordinates(ctx context.Context, code string, lat, lon float64, geohash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE locations SET latitude = ?, longitude = ?, geohash = ?, updated_at = ? WHERE code = ?`,
		lat, lon, geohash, time.Now().UTC(), code)
	if err != nil {
		return sqliteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteLocations) ListMissingCoordinates(ctx context.Context, limit int) ([]models.LocationRecord, error) {
	return s.query(ctx, "latitude IS NULL OR longitude IS NULL", limit)
}

func (s *sqliteLocations) ListByState(ctx context.Context, state string, limit int) ([]models.LocationRecord, error) {
	return s.query(ctx, "LOWER(state) = ?", limit, strings.ToLower(state))
}

type sqliteColleges struct {
	sqliteNames[models.EntityRecord]
}

func (s *sqliteColleges) Insert(ctx context.Context, rec *models.EntityRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO colleges (name, category, code, locality, district, state, latitude, longitude, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Category, rec.Code, rec.Locality, rec.District, rec.State,
		rec.Latitude, rec.Longitude, rec.Source, rec.CreatedAt)
	if err != nil {
		return sqliteErr(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = uint(id)
	}
	return nil
}

func scanLocation(row rowScanner) (models.LocationRecord, error) {
	var (
		rec      models.LocationRecord
		lat, lon sql.NullFloat64
	)
	err := row.Scan(&rec.Code, &rec.Name, &rec.District, &rec.State, &lat, &lon,
		&rec.Geohash, &rec.Source, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return rec, err
	}
	rec.Latitude = nullableFloat(lat)
	rec.Longitude = nullableFloat(lon)
	return rec, nil
}

func scanEntity(row rowScanner) (models.EntityRecord, error) {
	var (
		rec      models.EntityRecord
		lat, lon sql.NullFloat64
	)
	err := row.Scan(&rec.Name, &rec.Category, &rec.Code, &rec.Locality, &rec.District, &rec.State,
		&lat, &lon, &rec.Source, &rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	rec.Latitude = nullableFloat(lat)
	rec.Longitude = nullableFloat(lon)
	return rec, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func sqliteErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicateKey
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return unavailable(err)
	}
	return fmt.Errorf("lỗi query SQLite: %w", err)
}
