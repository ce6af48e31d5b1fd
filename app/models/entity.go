package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntityRecord thực thể có tên (trường đại học, cao đẳng...).
// Tên chỉ là khóa "gợi ý": có thể trùng, exact match trả về bản ghi đầu tiên.
type EntityRecord struct {
	ID        uint               `bson:"-" json:"-" gorm:"primaryKey"`
	MongoID   primitive.ObjectID `bson:"_id,omitempty" json:"-" gorm:"-"`
	Name      string             `bson:"name" json:"name" gorm:"index;not null"` // Tên thực thể
	Category  string             `bson:"category" json:"category"`               // Loại (college, university...)
	Code      string             `bson:"code" json:"code" gorm:"index"`          // Mã bưu chính nơi đặt
	Locality  string             `bson:"locality,omitempty" json:"locality,omitempty"`
	District  string             `bson:"district,omitempty" json:"district,omitempty"`
	State     string             `bson:"state,omitempty" json:"state,omitempty"`
	Latitude  *float64           `bson:"latitude,omitempty" json:"latitude"`
	Longitude *float64           `bson:"longitude,omitempty" json:"longitude"`
	Source    string             `bson:"source" json:"source"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// TableName tên bảng cho gorm
func (EntityRecord) TableName() string { return "colleges" }

// DisplayName tên dùng cho matching
func (e EntityRecord) DisplayName() string { return e.Name }
