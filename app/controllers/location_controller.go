package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/app/requests"
	"github.com/locality-resolver/app/responses"
	"github.com/locality-resolver/app/services"
)

// LocationController controller xử lý các request về địa điểm
type LocationController struct {
	locations *services.LocationService
	logger    *zap.Logger
}

// NewLocationController tạo mới LocationController
func NewLocationController(locations *services.LocationService, logger *zap.Logger) *LocationController {
	return &LocationController{locations: locations, logger: logger}
}

// Search tìm địa điểm theo tên
func (lc *LocationController) Search(c *gin.Context) {
	var q requests.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	res, err := lc.locations.SearchByName(c.Request.Context(), q.Q)
	lc.render(c, res, err)
}

// ByPincode tra cứu theo mã bưu chính
func (lc *LocationController) ByPincode(c *gin.Context) {
	res, err := lc.locations.ResolveByCode(c.Request.Context(), c.Param("code"))
	lc.render(c, res, err)
}

// Resolve phân loại truy vấn rồi chạy nhánh tương ứng
func (lc *LocationController) Resolve(c *gin.Context) {
	var q requests.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	res, err := lc.locations.Resolve(c.Request.Context(), q.Q)
	lc.render(c, res, err)
}

// List danh sách địa điểm
func (lc *LocationController) List(c *gin.Context) {
	var q requests.ListLocationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	rows, err := lc.locations.List(c.Request.Context(), q.State, q.Limit)
	if err != nil {
		renderError(c, lc.logger, err)
		return
	}
	items := make([]responses.Record, len(rows))
	for i, r := range rows {
		items[i] = responses.FromLocation(r)
	}
	c.JSON(http.StatusOK, responses.ListResponse{Items: items, Count: len(items)})
}

func (lc *LocationController) render(c *gin.Context, res models.Resolution[models.LocationRecord], err error) {
	if err != nil {
		renderError(c, lc.logger, err)
		return
	}
	resolutionHeaders(c, string(res.Strategy), res.CacheHit)
	c.JSON(http.StatusOK, responses.FromLocation(res.Record))
}
