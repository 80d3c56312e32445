package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"educafric-tracking/internal/usecase/device"
	"educafric-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	service *device.Service
}

func NewDeviceHandler(service *device.Service) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.POST("", h.Register)
		devices.GET("/:deviceId", h.GetDevice)
		devices.POST("/:deviceId/location", h.UpdateLocation)
		devices.PATCH("/:deviceId/settings", h.UpdateSettings)
		devices.GET("/:deviceId/last-location", h.GetLastLocation)
		devices.GET("/:deviceId/history", h.GetHistory)
	}

	router.GET("/students/:studentId/devices", h.ListByStudent)
	router.GET("/parents/:parentId/devices", h.ListByParent)
}

func (h *DeviceHandler) Register(c *gin.Context) {
	var req device.RegisterDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, d)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	d, err := h.service.GetByID(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, d)
}

func (h *DeviceHandler) ListByStudent(c *gin.Context) {
	studentID, ok := int64Param(c, "studentId", "student ID")
	if !ok {
		return
	}

	devices, err := h.service.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, devices)
}

func (h *DeviceHandler) ListByParent(c *gin.Context) {
	parentID, ok := int64Param(c, "parentId", "parent ID")
	if !ok {
		return
	}

	devices, err := h.service.ListByParent(c.Request.Context(), parentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, devices)
}

func (h *DeviceHandler) UpdateLocation(c *gin.Context) {
	var req device.LocationRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateLocation(c.Request.Context(), c.Param("deviceId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp)
}

// UpdateSettings replaces the settings blob with the raw request body.
func (h *DeviceHandler) UpdateSettings(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdateSettings(c.Request.Context(), c.Param("deviceId"), body); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, nil)
}

func (h *DeviceHandler) GetLastLocation(c *gin.Context) {
	loc, err := h.service.GetLastLocation(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, loc)
}

func (h *DeviceHandler) GetHistory(c *gin.Context) {
	var req device.HistoryRequest

	for _, q := range []struct {
		name string
		dst  *time.Time
	}{{"from", &req.From}, {"to", &req.To}} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+q.name+": expected RFC 3339 time")
			return
		}
		*q.dst = t
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		req.Limit = limit
	}

	history, err := h.service.History(c.Request.Context(), c.Param("deviceId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, history)
}
