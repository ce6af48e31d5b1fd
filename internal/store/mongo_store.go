package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
)

// MongoStore backend MongoDB
type MongoStore struct {
	client    *mongo.Client
	db        *mongo.Database
	locations *mongoLocations
	colleges  *mongoColleges
	logger    *zap.Logger
}

// NewMongoStore kết nối MongoDB và tạo indexes
func NewMongoStore(ctx context.Context, url, database string, logger *zap.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("lỗi kết nối MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("không thể ping MongoDB: %w", err)
	}

	if database == "" {
		database = "locality_resolver"
	}
	db := client.Database(database)
	s := &MongoStore{
		client:    client,
		db:        db,
		locations: &mongoLocations{mongoNames[models.LocationRecord]{coll: db.Collection("locations")}},
		colleges:  &mongoColleges{mongoNames[models.EntityRecord]{coll: db.Collection("colleges")}},
		logger:    logger,
	}
	s.ensureIndexes(ctx)

	logger.Info("Connected to MongoDB", zap.String("database", database))
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	locationIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}}},
	}
	if _, err := s.locations.coll.Indexes().CreateMany(ctx, locationIdx); err != nil {
		s.logger.Warn("Không thể tạo indexes cho locations", zap.Error(err))
	}

	collegeIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "code", Value: 1}}},
	}
	if _, err := s.colleges.coll.Indexes().CreateMany(ctx, collegeIdx); err != nil {
		s.logger.Warn("Không thể tạo indexes cho colleges", zap.Error(err))
	}
}

func (s *MongoStore) Locations() LocationStore { return s.locations }
func (s *MongoStore) Colleges() EntityStore    { return s.colleges }

// Ping kiểm tra kết nối
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return unavailable(err)
	}
	return nil
}

// Close ngắt kết nối
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongoNames truy vấn theo tên dùng chung, so khớp bằng regex không phân biệt hoa thường
type mongoNames[T any] struct {
	coll *mongo.Collection
}

func (m mongoNames[T]) find(ctx context.Context, filter interface{}, limit int64) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cur.Close(ctx)

	var rows []T
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("lỗi decode kết quả MongoDB: %w", err)
	}
	return rows, nil
}

func (m mongoNames[T]) FindNameEqual(ctx context.Context, name string) ([]T, error) {
	return m.find(ctx, bson.M{"name": ciRegex("^" + regexp.QuoteMeta(name) + "$")}, 0)
}

func (m mongoNames[T]) FindNameContains(ctx context.Context, fragment string) ([]T, error) {
	return m.find(ctx, bson.M{"name": ciRegex(regexp.QuoteMeta(fragment))}, 0)
}

func (m mongoNames[T]) FindNameAnyToken(ctx context.Context, tokens []string) ([]T, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	or := make(bson.A, 0, len(tokens))
	for _, tok := range tokens {
		or = append(or, bson.M{"name": ciRegex(regexp.QuoteMeta(tok))})
	}
	return m.find(ctx, bson.M{"$or": or}, 0)
}

func (m mongoNames[T]) List(ctx context.Context, limit int) ([]T, error) {
	return m.find(ctx, bson.M{}, int64(limit))
}

type mongoLocations struct {
	mongoNames[models.LocationRecord]
}

func (m *mongoLocations) FindByCode(ctx context.Context, code string) (*models.LocationRecord, error) {
	var rec models.LocationRecord
	err := m.coll.FindOne(ctx, bson.M{"code": code}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mongoErr(err)
	}
	return &rec, nil
}

func (m *mongoLocations) Insert(ctx context.Context, rec *models.LocationRecord) error {
	res, err := m.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return mongoErr(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.MongoID = id
	}
	return nil
}

func (m *mongoLocations) UpdateCoordinates(ctx context.Context, code string, lat, lon float64, geohash string) error {
	update := bson.M{"$set": bson.M{
		"latitude":   lat,
		"longitude":  lon,
		"geohash":    geohash,
		"updated_at": time.Now(),
	}}
	res, err := m.coll.UpdateOne(ctx, bson.M{"code": code}, update)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoLocations) ListMissingCoordinates(ctx context.Context, limit int) ([]models.LocationRecord, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"latitude": bson.M{"$exists": false}},
		bson.M{"longitude": bson.M{"$exists": false}},
		bson.M{"latitude": nil},
		bson.M{"longitude": nil},
	}}
	return m.find(ctx, filter, int64(limit))
}

func (m *mongoLocations) ListByState(ctx context.Context, state string, limit int) ([]models.LocationRecord, error) {
	return m.find(ctx, bson.M{"state": ciRegex("^" + regexp.QuoteMeta(state) + "$")}, int64(limit))
}

type mongoColleges struct {
	mongoNames[models.EntityRecord]
}

func (m *mongoColleges) Insert(ctx context.Context, rec *models.EntityRecord) error {
	res, err := m.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return mongoErr(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.MongoID = id
	}
	return nil
}

func ciRegex(pattern string) primitive.Regex {
	return primitive.Regex{Pattern: pattern, Options: "i"}
}

func mongoErr(err error) error {
	if mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return unavailable(err)
	}
	return fmt.Errorf("lỗi query MongoDB: %w", err)
}
