package handler

import (
	"net/http"
	"time"

	"educafric-tracking/internal/logger"
	"educafric-tracking/internal/realtime"
	"educafric-tracking/internal/usecase/device"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler pushes live fixes for one device over a websocket.
type StreamHandler struct {
	devices  *device.Service
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewStreamHandler builds the handler. Origin checks are left to the CORS
// layer, so every origin is accepted at upgrade time.
func NewStreamHandler(devices *device.Service, hub *realtime.Hub) *StreamHandler {
	return &StreamHandler{
		devices: devices,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/devices/:deviceId/live", h.Stream)
}

func (h *StreamHandler) Stream(c *gin.Context) {
	deviceID := c.Param("deviceId")

	// Unknown devices get a normal JSON 404 before the upgrade.
	if _, err := h.devices.GetByID(c.Request.Context(), deviceID); err != nil {
		respondWithError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", zap.String("device_id", deviceID), zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(deviceID)
	log := logger.Named("stream").With(zap.String("device_id", deviceID))
	log.Debug("Live subscriber connected")

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, sub, done)

	sub.Close()
	_ = conn.Close()
	log.Debug("Live subscriber disconnected")
}

// readLoop discards client frames and closes done when the peer goes away.
func (h *StreamHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writeLoop(conn *websocket.Conn, sub *realtime.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dropped by the hub for falling behind.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
