package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/requests"
	"github.com/locality-resolver/app/responses"
	"github.com/locality-resolver/app/services"
)

// CollegeController controller tìm college
type CollegeController struct {
	colleges *services.CollegeService
	logger   *zap.Logger
}

// NewCollegeController tạo mới CollegeController
func NewCollegeController(colleges *services.CollegeService, logger *zap.Logger) *CollegeController {
	return &CollegeController{colleges: colleges, logger: logger}
}

// Search tìm college theo tên
func (cc *CollegeController) Search(c *gin.Context) {
	var q requests.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	res, err := cc.colleges.SearchByName(c.Request.Context(), q.Q)
	if err != nil {
		renderError(c, cc.logger, err)
		return
	}
	resolutionHeaders(c, string(res.Strategy), res.CacheHit)
	c.JSON(http.StatusOK, responses.FromEntity(res.Record))
}

// List danh sách college
func (cc *CollegeController) List(c *gin.Context) {
	var q requests.ListCollegesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		renderBindError(c, err)
		return
	}
	rows, err := cc.colleges.List(c.Request.Context(), q.Limit)
	if err != nil {
		renderError(c, cc.logger, err)
		return
	}
	items := make([]responses.Record, len(rows))
	for i, r := range rows {
		items[i] = responses.FromEntity(r)
	}
	c.JSON(http.StatusOK, responses.ListResponse{Items: items, Count: len(items)})
}
