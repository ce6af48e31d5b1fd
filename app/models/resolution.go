package models

// MatchStrategy chiến lược đã tìm ra kết quả
type MatchStrategy string

const (
	StrategyCache    MatchStrategy = "cache"
	StrategyStore    MatchStrategy = "store"
	StrategyExact    MatchStrategy = "exact"
	StrategyFuzzy    MatchStrategy = "fuzzy"
	StrategyProvider MatchStrategy = "provider"
)

// QueryPath nhánh xử lý do bộ phân loại truy vấn chọn
type QueryPath int

const (
	NameSearchPath QueryPath = iota
	PostalCodePath
)

func (p QueryPath) String() string {
	if p == PostalCodePath {
		return "postal_code"
	}
	return "name_search"
}

// Resolution kết quả cuối cùng của coordinator
type Resolution[T any] struct {
	Record   T             `json:"record"`
	Strategy MatchStrategy `json:"strategy"`
	CacheHit bool          `json:"cache_hit"`
}
