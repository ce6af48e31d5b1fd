// Package search wraps Meilisearch for two jobs: narrowing the fuzzy
// working set to typo-tolerant hits, and pushing stored records into the
// locations and colleges indexes.
package search

import (
	"encoding/json"
	"fmt"
	"time"

	ms "github.com/meilisearch/meilisearch-go"
)

// Index names
const (
	IndexLocations = "locations"
	IndexColleges  = "colleges"
)

// Config kết nối Meilisearch
type Config struct {
	Host    string
	APIKey  string
	Timeout time.Duration
}

// ClientWrapper wraps the Meilisearch client with the calls this service uses
type ClientWrapper struct {
	cli ms.ServiceManager
}

// NewClientWrapper creates new Meilisearch client wrapper
func NewClientWrapper(cfg Config) *ClientWrapper {
	return &ClientWrapper{cli: ms.New(cfg.Host, ms.WithAPIKey(cfg.APIKey))}
}

// Healthy reports whether the server answers the health probe
func (c *ClientWrapper) Healthy() bool {
	return c.cli.IsHealthy()
}

// SearchIndex runs a plain query with a limit
func (c *ClientWrapper) SearchIndex(index, q string, limit int64) (*ms.SearchResponse, error) {
	return c.cli.Index(index).Search(q, &ms.SearchRequest{Limit: limit})
}

// decodeHits chuyển hits (map) về kiểu bản ghi qua JSON
func decodeHits[T any](resp *ms.SearchResponse) ([]T, error) {
	out := make([]T, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		raw, err := json.Marshal(hitMap)
		if err != nil {
			return nil, fmt.Errorf("lỗi encode hit: %w", err)
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("lỗi decode hit: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
