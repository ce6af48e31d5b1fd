// Package matcher chứa bộ phân loại truy vấn và hai tầng matching
// (exact cascade và fuzzy re-scoring) dùng chung cho locality và college.
package matcher

import (
	"errors"
	"regexp"
	"strings"

	"github.com/locality-resolver/app/models"
)

var (
	// ErrEmptyQuery truy vấn rỗng sau khi trim
	ErrEmptyQuery = errors.New("matcher: empty query")
	// ErrNoExactMatch exact cascade không tìm thấy bản ghi nào
	ErrNoExactMatch = errors.New("matcher: no exact match")
	// ErrNoFuzzyMatch không có ứng viên nào đạt ngưỡng
	ErrNoFuzzyMatch = errors.New("matcher: no fuzzy match")
)

var rePostalCode = regexp.MustCompile(`^[0-9]{6}$`)

// Named bản ghi có tên để matching
type Named interface {
	DisplayName() string
}

// Classify chọn nhánh xử lý: đúng 6 chữ số là mã bưu chính, còn lại là tìm theo tên
func Classify(query string) (models.QueryPath, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return models.NameSearchPath, ErrEmptyQuery
	}
	if IsPostalCode(q) {
		return models.PostalCodePath, nil
	}
	return models.NameSearchPath, nil
}

// IsPostalCode kiểm tra chuỗi có đúng 6 chữ số ASCII không
func IsPostalCode(s string) bool {
	return rePostalCode.MatchString(s)
}
