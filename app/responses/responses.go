package responses

import "github.com/locality-resolver/app/models"

// Record bản ghi chuẩn hóa trả về client.
// latitude và longitude luôn có mặt, có thể là null.
type Record struct {
	Name      string   `json:"name"`
	Category  string   `json:"category,omitempty"`
	Code      string   `json:"code"`
	Locality  string   `json:"locality,omitempty"`
	District  string   `json:"district,omitempty"`
	State     string   `json:"state,omitempty"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// FromLocation chuyển LocationRecord sang Record
func FromLocation(r models.LocationRecord) Record {
	return Record{
		Name:      r.Name,
		Code:      r.Code,
		District:  r.District,
		State:     r.State,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// FromEntity chuyển EntityRecord sang Record
func FromEntity(e models.EntityRecord) Record {
	return Record{
		Name:      e.Name,
		Category:  e.Category,
		Code:      e.Code,
		Locality:  e.Locality,
		District:  e.District,
		State:     e.State,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
	}
}

// ListResponse response danh sách bản ghi
type ListResponse struct {
	Items []Record `json:"items"`
	Count int      `json:"count"`
}

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string `json:"error"`                // Thông điệp lỗi
	Code      string `json:"code"`                 // Mã lỗi (invalid_input, not_found...)
	Details   string `json:"details,omitempty"`    // Gợi ý khắc phục
	RequestID string `json:"request_id,omitempty"` // ID request để tra log
}

// HealthResponse response health check
type HealthResponse struct {
	Status    string `json:"status"`
	Store     bool   `json:"store"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
