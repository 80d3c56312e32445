package handler

import (
	"net/http"
	"strconv"

	"educafric-tracking/internal/logger"
	"educafric-tracking/internal/middleware"
	"educafric-tracking/internal/usecase/alert"
	"educafric-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AlertHandler struct {
	service *alert.Service
}

func NewAlertHandler(service *alert.Service) *AlertHandler {
	return &AlertHandler{service: service}
}

func (h *AlertHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/alerts", h.CreateAlert)
	router.PATCH("/alerts/:alertId/read", h.MarkRead)
	router.GET("/devices/:deviceId/alerts", h.ListAlerts)
	router.POST("/emergency-alert", h.RaiseEmergency)
}

func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req alert.CreateAlertRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.service.CreateAlert(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, a)
}

// ListAlerts reads limit, unread and minSeverity from the query. A
// malformed limit falls back to the default.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	unread, _ := strconv.ParseBool(c.Query("unread"))

	alerts, err := h.service.ListAlerts(c.Request.Context(), c.Param("deviceId"), &alert.ListAlertsRequest{
		Limit:       limit,
		UnreadOnly:  unread,
		MinSeverity: c.Query("minSeverity"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, alerts)
}

func (h *AlertHandler) MarkRead(c *gin.Context) {
	a, err := h.service.MarkRead(c.Request.Context(), c.Param("alertId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, a)
}

func (h *AlertHandler) RaiseEmergency(c *gin.Context) {
	var req alert.EmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An emergency that cannot be decoded must still leave a trace.
		logger.Error("Rejected malformed emergency alert",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.RaiseEmergency(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp)
}
