package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/responses"
	"github.com/locality-resolver/app/services"
	"github.com/locality-resolver/helpers/utils"
)

// statusFor map ErrorKind sang HTTP status
func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindBackingStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// renderError ghi error body theo kind. Lỗi 500 không lộ chi tiết ra ngoài.
func renderError(c *gin.Context, logger *zap.Logger, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)
	body := responses.ErrorResponse{
		Code:      kind.String(),
		RequestID: utils.GetRequestID(c),
	}

	var re *services.ResolveError
	switch {
	case kind == services.KindTimeout:
		body.Error = services.MsgTimeout
	case kind == services.KindUnexpected:
		body.Error = services.MsgUnexpected
	case errors.As(err, &re):
		body.Error = re.Message
		body.Details = re.Details
	default:
		body.Error = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", body.RequestID),
			zap.Stringer("kind", kind),
			zap.Error(err))
	}
	c.JSON(status, body)
}

// renderBindError lỗi bind query/body
func renderBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, responses.ErrorResponse{
		Error:     "invalid request: " + err.Error(),
		Code:      services.KindInvalidInput.String(),
		RequestID: utils.GetRequestID(c),
	})
}

// resolutionHeaders ghi chiến lược match và trạng thái cache
func resolutionHeaders(c *gin.Context, strategy string, cacheHit bool) {
	c.Header("X-Match-Strategy", strategy)
	if cacheHit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
}
