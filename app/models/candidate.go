package models

import "time"

// NormalizedCandidate kết quả chuẩn hóa từ một provider bên ngoài.
// Không bao giờ được lưu trực tiếp, luôn đi qua placeholder guard trước.
type NormalizedCandidate struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	District  string   `json:"district,omitempty"`
	State     string   `json:"state,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Source    string   `json:"source"`
}

// HasCoordinates kiểm tra candidate có toạ độ hay không
func (c NormalizedCandidate) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// ToLocation chuyển candidate thành LocationRecord để ghi vào store
func (c NormalizedCandidate) ToLocation() LocationRecord {
	now := time.Now()
	rec := LocationRecord{
		Code:      c.Code,
		Name:      c.Name,
		District:  c.District,
		State:     c.State,
		Source:    c.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.HasCoordinates() {
		rec.SetCoordinates(*c.Latitude, *c.Longitude)
	}
	return rec
}
