// Package normalizer chuẩn hóa chuỗi truy vấn trước khi tra cache và matching.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// Trim bỏ khoảng trắng đầu/cuối và gộp khoảng trắng liên tiếp.
// Dùng cho khóa cache "exact".
func Trim(s string) string {
	return reWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Normalize trim, lowercase, bỏ dấu. Chữ ngoài bảng Latin được
// chuyển tự sang ASCII để khớp với tên đã lưu.
func Normalize(s string) string {
	out := strings.ToLower(fold(Trim(s)))
	if !isASCII(out) {
		out = strings.ToLower(unidecode.Unidecode(out))
		out = Trim(out)
	}
	return out
}

// Tokens tách chuỗi đã chuẩn hóa thành các từ có độ dài > minLen
func Tokens(s string, minLen int) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= minLen {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Words tách tên thành các từ theo khoảng trắng hoặc dấu "/"
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// fold tách ký tự tổ hợp (NFD), bỏ combining marks rồi ghép lại
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
