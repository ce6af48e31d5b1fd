package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	ms "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/internal/normalizer"
)

const (
	batchSize        = 1000
	taskPollInterval = 500 * time.Millisecond
)

// locationDoc document trong index locations, id là mã bưu chính
type locationDoc struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	NormalizedName string   `json:"normalized_name"`
	District       string   `json:"district"`
	State          string   `json:"state"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Geohash        string   `json:"geohash,omitempty"`
	Source         string   `json:"source"`
}

// collegeDoc document trong index colleges
type collegeDoc struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	NormalizedName string   `json:"normalized_name"`
	Category       string   `json:"category"`
	Code           string   `json:"code"`
	Locality       string   `json:"locality,omitempty"`
	District       string   `json:"district,omitempty"`
	State          string   `json:"state,omitempty"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Source         string   `json:"source"`
}

// Indexer đẩy bản ghi từ store vào Meilisearch
type Indexer struct {
	client *ClientWrapper
	logger *zap.Logger
}

// NewIndexer tạo mới Indexer
func NewIndexer(client *ClientWrapper, logger *zap.Logger) *Indexer {
	return &Indexer{client: client, logger: logger}
}

// EnsureSettings cấu hình searchable attributes và ranking rules cho cả hai index
func (ix *Indexer) EnsureSettings(ctx context.Context) error {
	settings := map[string]*ms.Settings{
		IndexLocations: {
			SearchableAttributes: []string{"name", "normalized_name", "district", "code"},
			FilterableAttributes: []string{"state", "district", "code"},
			SortableAttributes:   []string{"name"},
			RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		},
		IndexColleges: {
			SearchableAttributes: []string{"name", "normalized_name", "locality", "district"},
			FilterableAttributes: []string{"category", "state", "code"},
			SortableAttributes:   []string{"name"},
			RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		},
	}
	for index, s := range settings {
		task, err := ix.client.cli.Index(index).UpdateSettings(s)
		if err != nil {
			return fmt.Errorf("lỗi cấu hình index %s: %w", index, err)
		}
		if err := ix.waitTask(ctx, task.TaskUID); err != nil {
			return fmt.Errorf("lỗi chờ cấu hình index %s: %w", index, err)
		}
		ix.logger.Info("Đã cấu hình index Meilisearch", zap.String("index", index), zap.Int64("task_uid", task.TaskUID))
	}
	return nil
}

// IndexLocations thêm hoặc cập nhật địa điểm, trả về số document đã đẩy
func (ix *Indexer) IndexLocations(ctx context.Context, records []models.LocationRecord) (int, error) {
	docs := make([]locationDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, locationDoc{
			ID:             r.Code,
			Code:           r.Code,
			Name:           r.Name,
			NormalizedName: normalizer.Normalize(r.Name),
			District:       r.District,
			State:          r.State,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			Geohash:        r.Geohash,
			Source:         r.Source,
		})
	}
	return pushBatches(ctx, ix, IndexLocations, docs)
}

// IndexColleges thêm hoặc cập nhật college. Id sinh ổn định từ tên và mã.
func (ix *Indexer) IndexColleges(ctx context.Context, records []models.EntityRecord) (int, error) {
	docs := make([]collegeDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, collegeDoc{
			ID:             EntityDocID(r),
			Name:           r.Name,
			NormalizedName: normalizer.Normalize(r.Name),
			Category:       r.Category,
			Code:           r.Code,
			Locality:       r.Locality,
			District:       r.District,
			State:          r.State,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			Source:         r.Source,
		})
	}
	return pushBatches(ctx, ix, IndexColleges, docs)
}

// EntityDocID id document ổn định cho một thực thể
func EntityDocID(r models.EntityRecord) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(r.Name+"|"+r.Code)).String()
}

func pushBatches[D any](ctx context.Context, ix *Indexer, index string, docs []D) (int, error) {
	idx := ix.client.cli.Index(index)
	pushed := 0
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		task, err := idx.AddDocuments(docs[i:end], "id")
		if err != nil {
			return pushed, fmt.Errorf("lỗi thêm documents batch %d-%d: %w", i, end, err)
		}
		if err := ix.waitTask(ctx, task.TaskUID); err != nil {
			return pushed, err
		}
		pushed += end - i
		ix.logger.Info("Đã thêm batch documents",
			zap.String("index", index),
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}
	return pushed, nil
}

// waitTask poll trạng thái task cho tới khi xong hoặc ctx hết hạn
func (ix *Indexer) waitTask(ctx context.Context, taskUID int64) error {
	ticker := time.NewTicker(taskPollInterval)
	defer ticker.Stop()
	for {
		task, err := ix.client.cli.GetTask(taskUID)
		if err != nil {
			return fmt.Errorf("lỗi check task %d: %w", taskUID, err)
		}
		switch task.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return fmt.Errorf("task %d thất bại: %v", taskUID, task.Error)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
