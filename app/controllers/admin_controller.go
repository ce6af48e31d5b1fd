package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/requests"
	"github.com/locality-resolver/app/responses"
	"github.com/locality-resolver/app/services"
	"github.com/locality-resolver/helpers/utils"
)

// AdminController controller xử lý các request admin
type AdminController struct {
	adminService *services.AdminService
	version      string
	logger       *zap.Logger
}

// NewAdminController tạo mới AdminController
func NewAdminController(adminService *services.AdminService, version string, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		version:      version,
		logger:       logger,
	}
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		renderError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// InvalidateCache xóa cache theo key, theo truy vấn hoặc toàn bộ
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBindError(c, err)
		return
	}
	result, err := ac.adminService.InvalidateCache(c.Request.Context(), services.InvalidateOptions{
		All:   req.All,
		Keys:  req.Keys,
		Scope: req.Scope,
		Query: req.Query,
	})
	if err != nil {
		renderError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Backfill bổ sung toạ độ cho các địa điểm còn thiếu.
// Mặc định chạy nền và trả 202, ?wait=true thì chờ kết quả.
func (ac *AdminController) Backfill(c *gin.Context) {
	var req requests.BackfillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			renderBindError(c, err)
			return
		}
	}
	opts := services.BackfillOptions{Limit: req.Limit, Concurrency: req.Concurrency}

	if c.Query("wait") == "true" {
		result, err := ac.adminService.BackfillMissing(c.Request.Context(), opts)
		if err != nil {
			renderError(c, ac.logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	jobID := utils.GenerateUUID()
	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if _, err := ac.adminService.BackfillMissing(ctx, opts); err != nil {
			ac.logger.Error("Backfill job thất bại", zap.String("job_id", jobID), zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  jobID,
		"message": "Backfill đã được tạo và đang xử lý",
	})
}

// Reindex đẩy dữ liệu store sang Meilisearch
func (ac *AdminController) Reindex(c *gin.Context) {
	result, err := ac.adminService.Reindex(c.Request.Context())
	if err != nil {
		renderError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExplainFuzzy xếp hạng ứng viên fuzzy kèm điểm
func (ac *AdminController) ExplainFuzzy(c *gin.Context) {
	var q requests.ExplainQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	out, err := ac.adminService.ExplainFuzzy(c.Request.Context(), q.Scope, q.Q)
	if err != nil {
		renderError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// HealthCheck kiểm tra sức khỏe service. Store mất kết nối thì trả 503.
func (ac *AdminController) HealthCheck(c *gin.Context) {
	health := ac.adminService.StoreHealth(c.Request.Context())
	resp := responses.HealthResponse{
		Status:    "healthy",
		Store:     health.Available,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   ac.version,
	}
	if !health.Available {
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
