package models

import (
	"strings"
	"time"
)

// Namespace không gian khóa cache
type Namespace string

const (
	NamespaceExact Namespace = "exact" // Khóa theo chuỗi truy vấn nguyên văn (đã trim)
	NamespaceNorm  Namespace = "norm"  // Khóa theo chuỗi đã chuẩn hóa
	NamespaceBulk  Namespace = "bulk"  // Danh sách (TTL dài hơn)
)

// Scope phạm vi dữ liệu của khóa cache
const (
	ScopeLocation = "location"
	ScopePincode  = "pincode"
	ScopeCollege  = "college"
)

// CacheKey tạo khóa cache có namespace
func CacheKey(ns Namespace, scope, text string) string {
	var b strings.Builder
	b.Grow(len(ns) + len(scope) + len(text) + 2)
	b.WriteString(string(ns))
	b.WriteByte(':')
	b.WriteString(scope)
	b.WriteByte(':')
	b.WriteString(text)
	return b.String()
}

// CacheValue giá trị lưu trong cache, chỉ một trường được gán
type CacheValue struct {
	Location  *LocationRecord  `json:"location,omitempty"`
	Entity    *EntityRecord    `json:"entity,omitempty"`
	Locations []LocationRecord `json:"locations,omitempty"`
	Entities  []EntityRecord   `json:"entities,omitempty"`
	Strategy  MatchStrategy    `json:"strategy,omitempty"`
}

// CacheEntry một mục trong cache tạm
type CacheEntry struct {
	Key       string     `json:"key"`
	Value     CacheValue `json:"value"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// IsExpired kiểm tra entry đã hết hạn tại thời điểm now chưa
func (e CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
