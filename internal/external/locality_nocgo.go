//go:build !cgo

package external

import (
	"strings"
)

// ParseLocality tách địa chỉ theo dấu phẩy khi không có libpostal:
// "<khu vực>, <huyện>, <bang> <pincode>"
func ParseLocality(raw string) Locality {
	code := FindPincode(raw)
	cleaned := raw
	if code != "" {
		cleaned = rePincode.ReplaceAllString(raw, "")
	}

	var parts []string
	for _, p := range strings.Split(cleaned, ",") {
		p = strings.Trim(strings.TrimSpace(p), "-")
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	loc := Locality{Postcode: code}
	switch n := len(parts); {
	case n >= 3:
		loc.Name, loc.District, loc.State = parts[0], parts[n-2], parts[n-1]
	case n == 2:
		loc.Name, loc.State = parts[0], parts[1]
	case n == 1:
		loc.Name = parts[0]
	}
	if len(strings.Fields(cleaned)) > 0 {
		loc.Coverage = 1
	}
	return loc.finish(raw)
}
