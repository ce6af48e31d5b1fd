package requests

// SearchQuery query string cho các endpoint tìm kiếm
type SearchQuery struct {
	Q string `form:"q" binding:"required"` // Chuỗi tìm kiếm hoặc mã bưu chính
}

// ListLocationsQuery query string cho danh sách địa điểm
type ListLocationsQuery struct {
	State string `form:"state"`                                 // Lọc theo bang (không phân biệt hoa thường)
	Limit int    `form:"limit" binding:"omitempty,min=1,max=5000"` // Số bản ghi tối đa
}

// ListCollegesQuery query string cho danh sách college
type ListCollegesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=5000"`
}

// ExplainQuery query string cho fuzzy explain
type ExplainQuery struct {
	Q     string `form:"q" binding:"required"`
	Scope string `form:"scope" binding:"omitempty,oneof=location college"`
}

// InvalidateCacheRequest request invalidate cache
type InvalidateCacheRequest struct {
	All   bool     `json:"all,omitempty"`   // Xóa toàn bộ cache
	Keys  []string `json:"keys,omitempty"`  // Xóa các key cụ thể
	Scope string   `json:"scope,omitempty"` // location | pincode | college
	Query string   `json:"query,omitempty"` // Truy vấn cần xóa (cả khóa exact và norm)
}

// BackfillRequest request backfill toạ độ
type BackfillRequest struct {
	Limit       int `json:"limit,omitempty" binding:"omitempty,min=1"`
	Concurrency int `json:"concurrency,omitempty" binding:"omitempty,min=1,max=16"`
}
