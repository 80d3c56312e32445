package handler

import (
	"errors"
	"net/http"
	"strconv"

	domainAlert "educafric-tracking/internal/domain/alert"
	domainDevice "educafric-tracking/internal/domain/device"
	domainZone "educafric-tracking/internal/domain/zone"
	"educafric-tracking/internal/logger"
	"educafric-tracking/internal/middleware"
	appErrors "educafric-tracking/pkg/errors"
	"educafric-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError maps service errors onto HTTP statuses. Unknown errors
// become a generic 500; the detail only goes to the log.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, domainDevice.ErrDeviceNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Device not found")
	case errors.Is(err, domainDevice.ErrLocationNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "No location history found")
	case errors.Is(err, domainAlert.ErrAlertNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Alert not found")
	case errors.Is(err, domainZone.ErrZoneNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Safe zone not found")
	case errors.As(err, &maxBytesErr):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			switch appErr.Code {
			case appErrors.CodeNotFound:
				utils.ErrorResponse(c, http.StatusNotFound, appErr.Message)
			default:
				message := appErr.Message
				if details := utils.ValidationDetails(appErr.Err); details != "" {
					message += ": " + details
				}
				utils.ErrorResponse(c, http.StatusBadRequest, message)
			}
			return
		}

		requestID := middleware.GetRequestID(c)
		logger.Error("Internal server error",
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindJSON decodes the body, answering 400 (or 413) itself on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// int64Param parses a numeric path parameter, answering 400 on failure.
func int64Param(c *gin.Context, name, label string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+label)
		return 0, false
	}
	return v, true
}
