package matcher

import (
	"context"
	"slices"
	"strings"

	"github.com/locality-resolver/internal/normalizer"
)

// minTokenLen token phải dài hơn giá trị này mới được dùng ở bước OR
const minTokenLen = 2

// NameQuerier các truy vấn theo tên mà store phải hỗ trợ.
// Tất cả đều so sánh không phân biệt hoa thường.
type NameQuerier[T Named] interface {
	FindNameEqual(ctx context.Context, name string) ([]T, error)
	FindNameContains(ctx context.Context, fragment string) ([]T, error)
	FindNameAnyToken(ctx context.Context, tokens []string) ([]T, error)
}

// ExactStep bước của cascade đã cho kết quả
type ExactStep string

const (
	StepEqual    ExactStep = "equal"
	StepContains ExactStep = "contains"
	StepTokens   ExactStep = "tokens"
)

// Exact cascade equality -> substring -> token OR trên store
type Exact[T Named] struct {
	querier NameQuerier[T]
}

// NewExact tạo mới exact matcher
func NewExact[T Named](querier NameQuerier[T]) *Exact[T] {
	return &Exact[T]{querier: querier}
}

// Match chạy cascade, dừng ở bước đầu tiên có kết quả.
// Lỗi từ store được trả nguyên để coordinator phân loại.
func (e *Exact[T]) Match(ctx context.Context, name string) (T, ExactStep, error) {
	var zero T
	q := normalizer.Normalize(name)
	if q == "" {
		return zero, "", ErrEmptyQuery
	}

	rows, err := e.querier.FindNameEqual(ctx, q)
	if err != nil {
		return zero, "", err
	}
	if len(rows) > 0 {
		return first(rows), StepEqual, nil
	}

	rows, err = e.querier.FindNameContains(ctx, q)
	if err != nil {
		return zero, "", err
	}
	if len(rows) > 0 {
		return first(rows), StepContains, nil
	}

	tokens := normalizer.Tokens(q, minTokenLen)
	if len(tokens) == 0 {
		return zero, "", ErrNoExactMatch
	}
	rows, err = e.querier.FindNameAnyToken(ctx, tokens)
	if err != nil {
		return zero, "", err
	}
	if len(rows) > 0 {
		return first(rows), StepTokens, nil
	}
	return zero, "", ErrNoExactMatch
}

// first trả về bản ghi đứng đầu theo thứ tự tên tăng dần
func first[T Named](rows []T) T {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return strings.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()))
	})
	return sorted[0]
}
