//go:build cgo

package external

import (
	"strings"

	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"
)

// ParseLocality tách địa chỉ thô bằng libpostal
func ParseLocality(raw string) Locality {
	opts := expand.DefaultOptions()
	opts.Languages = []string{"en"}
	exps := expand.ExpandAddress(raw, opts)
	best := raw
	if len(exps) > 0 {
		best = exps[0]
	}

	comps := parser.ParseAddress(best)
	covered, total := 0, len(strings.Fields(best))
	loc := Locality{}
	for _, c := range comps {
		switch c.Label {
		case "suburb", "city_district":
			if loc.Name == "" {
				loc.Name = c.Value
			}
		case "city":
			loc.City = c.Value
		case "state_district":
			loc.District = c.Value
		case "state":
			loc.State = c.Value
		case "postcode":
			loc.Postcode = strings.ReplaceAll(c.Value, " ", "")
		}
		covered += len(strings.Fields(c.Value))
	}
	if total > 0 {
		loc.Coverage = float64(covered) / float64(total)
	}
	return loc.finish(raw)
}
