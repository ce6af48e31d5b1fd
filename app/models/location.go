package models

import (
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeohashPrecision độ chính xác geohash lưu cùng bản ghi (~150m)
const GeohashPrecision = 7

// LocationRecord bản ghi địa điểm theo mã bưu chính (pincode)
type LocationRecord struct {
	ID        uint               `bson:"-" json:"-" gorm:"primaryKey"`
	MongoID   primitive.ObjectID `bson:"_id,omitempty" json:"-" gorm:"-"`
	Code      string             `bson:"code" json:"code" gorm:"uniqueIndex;size:16;not null"` // Mã bưu chính, khóa duy nhất
	Name      string             `bson:"name" json:"name" gorm:"index;not null"`               // Tên khu vực
	District  string             `bson:"district" json:"district"`                             // Quận/huyện
	State     string             `bson:"state" json:"state" gorm:"index"`                      // Bang
	Latitude  *float64           `bson:"latitude,omitempty" json:"latitude"`                   // Vĩ độ, có thể rỗng chờ backfill
	Longitude *float64           `bson:"longitude,omitempty" json:"longitude"`                 // Kinh độ
	Geohash   string             `bson:"geohash,omitempty" json:"geohash,omitempty"`           // Geohash tính từ toạ độ
	Source    string             `bson:"source" json:"source"`                                 // Nguồn dữ liệu (seed hoặc provider)
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// TableName tên bảng cho gorm
func (LocationRecord) TableName() string { return "locations" }

// DisplayName tên dùng cho matching
func (r LocationRecord) DisplayName() string { return r.Name }

// HasCoordinates kiểm tra bản ghi đã có đủ toạ độ chưa
func (r LocationRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// SetCoordinates gán toạ độ và cập nhật geohash
func (r *LocationRecord) SetCoordinates(lat, lon float64) {
	r.Latitude = &lat
	r.Longitude = &lon
	r.Geohash = geohash.EncodeWithPrecision(lat, lon, GeohashPrecision)
	r.UpdatedAt = time.Now()
}
