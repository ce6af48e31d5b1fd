package matcher

import (
	"math"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/locality-resolver/internal/normalizer"
)

// Scoring các hằng số chấm điểm fuzzy. Điểm càng thấp càng tốt.
// Giá trị mặc định được tinh chỉnh theo kinh nghiệm, có thể ghi đè qua config.
type Scoring struct {
	AcceptThreshold float64 // ngưỡng nhận ứng viên theo khoảng cách
	RejectCutoff    float64 // loại ứng viên có điểm >= giá trị này

	PrefixBonus        float64 // tên bắt đầu bằng truy vấn
	WordPrefixBonus    float64 // một từ trong tên bắt đầu bằng truy vấn
	ContainsBonus      float64 // tên chứa truy vấn, truy vấn dài >= nửa tên
	ContainsBonusShort float64 // tên chứa truy vấn, truy vấn ngắn

	LongLengthDiff      int
	LongLengthPenalty   float64
	MediumLengthDiff    int
	MediumLengthPenalty float64
	CloseLengthDiff     int
	CloseLengthBonus    float64

	PositionPenalty float64 // tối đa, tỉ lệ với vị trí xuất hiện

	JaroBoostThreshold float64
	JaroPrefixSize     int
}

// DefaultScoring bộ hằng số mặc định
func DefaultScoring() Scoring {
	return Scoring{
		AcceptThreshold:     0.3,
		RejectCutoff:        0.5,
		PrefixBonus:         -0.5,
		WordPrefixBonus:     -0.3,
		ContainsBonus:       -0.1,
		ContainsBonusShort:  -0.05,
		LongLengthDiff:      10,
		LongLengthPenalty:   0.2,
		MediumLengthDiff:    5,
		MediumLengthPenalty: 0.1,
		CloseLengthDiff:     2,
		CloseLengthBonus:    -0.05,
		PositionPenalty:     0.15,
		JaroBoostThreshold:  0.7,
		JaroPrefixSize:      4,
	}
}

// Scored ứng viên kèm điểm
type Scored[T Named] struct {
	Record   T       `json:"record"`
	Base     float64 `json:"base"`
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
}

// Fuzzy matcher xấp xỉ trên working set giới hạn
type Fuzzy[T Named] struct {
	scoring Scoring
}

// NewFuzzy tạo mới fuzzy matcher
func NewFuzzy[T Named](scoring Scoring) *Fuzzy[T] {
	return &Fuzzy[T]{scoring: scoring}
}

// Scoring trả về bộ hằng số đang dùng
func (f *Fuzzy[T]) Scoring() Scoring { return f.scoring }

// Match trả về ứng viên tốt nhất có điểm < RejectCutoff
func (f *Fuzzy[T]) Match(query string, candidates []T) (Scored[T], error) {
	ranked := f.Rank(query, candidates)
	if len(ranked) == 0 || ranked[0].Score >= f.scoring.RejectCutoff {
		return Scored[T]{}, ErrNoFuzzyMatch
	}
	return ranked[0], nil
}

// Rank chấm điểm và sắp xếp tăng dần các ứng viên vượt qua ngưỡng
func (f *Fuzzy[T]) Rank(query string, candidates []T) []Scored[T] {
	q := normalizer.Normalize(query)
	if q == "" {
		return nil
	}

	out := make([]Scored[T], 0, 8)
	for _, c := range candidates {
		name := normalizer.Normalize(c.DisplayName())
		if name == "" {
			continue
		}
		window := f.windowDistance(q, name)
		if window > f.scoring.AcceptThreshold {
			continue
		}
		base := (window + f.distance(q, name)) / 2
		if base >= f.scoring.RejectCutoff {
			continue
		}
		out = append(out, Scored[T]{
			Record:   c,
			Base:     base,
			Score:    base + f.adjustment(q, name),
			Distance: window,
		})
	}

	slices.SortStableFunc(out, func(a, b Scored[T]) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return strings.Compare(strings.ToLower(a.Record.DisplayName()), strings.ToLower(b.Record.DisplayName()))
	})
	return out
}

// similarity lấy max của Jaro-Winkler và Levenshtein chuẩn hóa
func (f *Fuzzy[T]) similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	jw := smetrics.JaroWinkler(a, b, f.scoring.JaroBoostThreshold, f.scoring.JaroPrefixSize)

	maxLen := max(len([]rune(a)), len([]rune(b)))
	lev := 0.0
	if maxLen > 0 {
		lev = 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	}
	return math.Max(jw, lev)
}

func (f *Fuzzy[T]) distance(a, b string) float64 {
	return 1 - f.similarity(a, b)
}

// windowDistance khoảng cách nhỏ nhất giữa truy vấn và tên đầy đủ
// hoặc một cửa sổ các từ liên tiếp có cùng số từ với truy vấn
func (f *Fuzzy[T]) windowDistance(q, name string) float64 {
	best := f.distance(q, name)
	qWords := len(strings.Fields(q))
	words := normalizer.Words(name)
	if qWords == 0 || len(words) <= qWords {
		return best
	}
	for i := 0; i+qWords <= len(words); i++ {
		d := f.distance(q, strings.Join(words[i:i+qWords], " "))
		if d < best {
			best = d
		}
	}
	return best
}

// adjustment điểm cộng/trừ theo tiền tố, độ dài và vị trí
func (f *Fuzzy[T]) adjustment(q, name string) float64 {
	s := f.scoring
	adj := 0.0

	switch {
	case strings.HasPrefix(name, q):
		adj += s.PrefixBonus
	case wordHasPrefix(name, q):
		adj += s.WordPrefixBonus
	case strings.Contains(name, q):
		if 2*len([]rune(q)) >= len([]rune(name)) {
			adj += s.ContainsBonus
		} else {
			adj += s.ContainsBonusShort
		}
	}

	nameLen, qLen := len([]rune(name)), len([]rune(q))
	diff := nameLen - qLen
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff > s.LongLengthDiff:
		adj += s.LongLengthPenalty
	case diff > s.MediumLengthDiff:
		adj += s.MediumLengthPenalty
	case diff <= s.CloseLengthDiff:
		adj += s.CloseLengthBonus
	}

	if idx := strings.Index(name, q); idx > 0 && nameLen > 0 {
		pos := len([]rune(name[:idx]))
		adj += s.PositionPenalty * float64(pos) / float64(nameLen)
	}
	return adj
}

func wordHasPrefix(name, q string) bool {
	for _, w := range normalizer.Words(name) {
		if strings.HasPrefix(w, q) {
			return true
		}
	}
	return false
}
