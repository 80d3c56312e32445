package handler

import (
	"net/http"
	"strconv"

	"educafric-tracking/internal/usecase/zone"
	"educafric-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ZoneHandler struct {
	service *zone.Service
}

func NewZoneHandler(service *zone.Service) *ZoneHandler {
	return &ZoneHandler{service: service}
}

func (h *ZoneHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices/:deviceId")
	{
		devices.POST("/safe-zones", h.CreateZone)
		devices.GET("/zone-status/:zoneId", h.GetStatus)
		devices.POST("/zone-status/:zoneId", h.SetStatus)
		devices.GET("/zone-status/:zoneId/history", h.GetStatusHistory)
	}
}

func (h *ZoneHandler) CreateZone(c *gin.Context) {
	var req zone.CreateZoneRequest
	if !bindJSON(c, &req) {
		return
	}

	z, err := h.service.CreateZone(c.Request.Context(), c.Param("deviceId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, z)
}

func (h *ZoneHandler) GetStatus(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context(), c.Param("deviceId"), c.Param("zoneId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, status)
}

func (h *ZoneHandler) SetStatus(c *gin.Context) {
	var req zone.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.SetStatus(c.Request.Context(), c.Param("deviceId"), c.Param("zoneId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp)
}

func (h *ZoneHandler) GetStatusHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	history, err := h.service.StatusHistory(c.Request.Context(), c.Param("deviceId"), c.Param("zoneId"), limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, history)
}
