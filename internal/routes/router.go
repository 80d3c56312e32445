package routes

import (
	"net/http"

	"educafric-tracking/internal/config"
	"educafric-tracking/internal/delivery/http/handler"
	"educafric-tracking/internal/infrastructure/database/postgres"
	"educafric-tracking/internal/ingestion"
	"educafric-tracking/internal/logger"
	"educafric-tracking/internal/middleware"
	"educafric-tracking/internal/notify"
	"educafric-tracking/internal/realtime"
	"educafric-tracking/internal/usecase/alert"
	"educafric-tracking/internal/usecase/device"
	"educafric-tracking/internal/usecase/zone"

	"github.com/gin-gonic/gin"
)

// BrokerStatus reports whether the MQTT connection is up.
type BrokerStatus interface {
	IsConnected() bool
}

// Services holds the wired use cases shared by HTTP and MQTT ingestion.
type Services struct {
	Devices *device.Service
	Zones   *zone.Service
	Alerts  *alert.Service
	Hub     *realtime.Hub
	Metrics *ingestion.MetricsTracker
	// Broker is nil when MQTT is disabled.
	Broker BrokerStatus
}

// NewServices builds repositories and use cases on top of db. Every committed
// fix is fanned out to the live hub and the alert engine.
func NewServices(cfg *config.Config, db *postgres.DB, notifier notify.Notifier) *Services {
	deviceRepository := postgres.NewDeviceRepository(db)
	locationRepository := postgres.NewLocationRepository(db)
	zoneRepository := postgres.NewZoneRepository(db)
	statusRepository := postgres.NewZoneStatusRepository(db)
	alertRepository := postgres.NewAlertRepository(db)
	guardianRepository := postgres.NewGuardianRepository(db)

	metrics := ingestion.NewMetricsTracker()
	hub := realtime.NewHub(0)

	deviceService := device.NewService(deviceRepository, locationRepository, zoneRepository, guardianRepository)
	deviceService.AddListener(hub)
	deviceService.AddListener(ingestion.NewAlertEngine(alertRepository, ingestion.Thresholds{
		LowBattery:    cfg.Monitor.LowBatteryThreshold,
		SpeedLimitKmh: cfg.Monitor.SpeedLimitKmh,
	}, metrics))

	return &Services{
		Devices: deviceService,
		Zones:   zone.NewService(zoneRepository, statusRepository, deviceRepository, alertRepository),
		Alerts:  alert.NewService(alertRepository, deviceRepository, notifier),
		Hub:     hub,
		Metrics: metrics,
	}
}

func SetupRoutes(cfg *config.Config, db *postgres.DB, svc *Services) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order: recovery, request ID, logging, security headers, CORS, request size limit, rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware("/health"))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestBytes))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		// A lost broker degrades ingestion only; HTTP keeps serving.
		mqtt := "disabled"
		if svc.Broker != nil {
			mqtt = "disconnected"
			if svc.Broker.IsConnected() {
				mqtt = "connected"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
			"mqtt":    mqtt,
		})
	})

	deviceHandler := handler.NewDeviceHandler(svc.Devices)
	zoneHandler := handler.NewZoneHandler(svc.Zones)
	alertHandler := handler.NewAlertHandler(svc.Alerts)
	streamHandler := handler.NewStreamHandler(svc.Devices, svc.Hub)

	tracking := router.Group("/api/v1/tracking")
	{
		deviceHandler.RegisterRoutes(tracking)
		zoneHandler.RegisterRoutes(tracking)
		alertHandler.RegisterRoutes(tracking)
		streamHandler.RegisterRoutes(tracking)

		tracking.GET("/ingestion/metrics", func(c *gin.Context) {
			c.JSON(http.StatusOK, svc.Metrics.Snapshot())
		})
	}

	logger.Info("All routes initialized")
	return router
}
