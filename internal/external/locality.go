// Package external bọc các thư viện bên ngoài dùng khi nạp dữ liệu.
// Với cgo, địa chỉ thô được tách bằng libpostal; không có cgo thì dùng regex.
package external

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/locality-resolver/internal/normalizer"
)

// Locality các thành phần hành chính tách được từ địa chỉ thô
type Locality struct {
	Name     string  // Khu vực (suburb) hoặc thành phố
	City     string
	District string
	State    string
	Postcode string  // 6 chữ số
	Coverage float64 // tỉ lệ token được gán nhãn
}

var rePincode = regexp.MustCompile(`\b([1-9][0-9]{2})\s?([0-9]{3})\b`)

// finish điền các trường còn thiếu từ chuỗi gốc
func (l Locality) finish(raw string) Locality {
	if l.Postcode == "" {
		l.Postcode = FindPincode(raw)
	}
	if l.Name == "" {
		l.Name = l.City
	}
	if l.District == "" {
		l.District = l.City
	}
	l.Name = titleCase(l.Name)
	l.City = titleCase(l.City)
	l.District = titleCase(l.District)
	l.State = titleCase(l.State)
	return l
}

// FindPincode trả về mã bưu chính 6 chữ số đầu tiên trong chuỗi
func FindPincode(raw string) string {
	m := rePincode.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

// titleCase libpostal trả về chữ thường
func titleCase(s string) string {
	words := normalizer.Words(normalizer.Trim(s))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
