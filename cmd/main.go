package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"educafric-tracking/internal/config"
	"educafric-tracking/internal/infrastructure/database/postgres"
	"educafric-tracking/internal/ingestion"
	"educafric-tracking/internal/logger"
	"educafric-tracking/internal/notify"
	"educafric-tracking/internal/routes"
	pkgmqtt "educafric-tracking/pkg/mqtt"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	var (
		mqttClient *pkgmqtt.Client
		notifier   notify.Notifier = notify.NewLogNotifier(logger.Named("notify"))
	)
	if cfg.MQTT.Enabled() {
		mqttClient = pkgmqtt.NewClient(&pkgmqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CleanSession:         false,
			KeepAlive:            cfg.MQTT.KeepAlive,
			ConnectTimeout:       cfg.MQTT.ConnectTimeout,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
			Logger:               logger.Named("mqtt"),
		})
		if err := mqttClient.Connect(); err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttClient.Disconnect()

		notifier = notify.NewMQTTNotifier(mqttClient, cfg.MQTT.EmergencyTopic, cfg.MQTT.QoS, logger.Named("notify"))
	} else {
		logger.Warn("MQTT_BROKER not set, device ingestion over MQTT is disabled")
	}

	services := routes.NewServices(cfg, db, notifier)

	if mqttClient != nil {
		services.Broker = mqttClient

		processor := ingestion.NewProcessor(
			services.Devices,
			cfg.Ingestion.Workers,
			cfg.Ingestion.BufferSize,
			cfg.Ingestion.Timeout,
			services.Metrics,
		)
		processor.Start()
		defer processor.Stop()

		ingestClient, err := ingestion.NewMQTTIngestionClient(&ingestion.MQTTIngestionConfig{
			LocationTopic: cfg.MQTT.LocationTopic,
			QoS:           cfg.MQTT.QoS,
		}, mqttClient, processor)
		if err != nil {
			logger.Fatal("Failed to create MQTT ingestion client", zap.Error(err))
		}
		if err := ingestClient.Start(); err != nil {
			logger.Fatal("Failed to start MQTT ingestion", zap.Error(err))
		}
		// Runs before processor.Stop so no message arrives after the queue closes.
		defer ingestClient.Stop()
	}

	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	if cfg.Monitor.HistoryRetention > 0 {
		go services.Devices.StartRetentionJob(jobCtx, cfg.Monitor.HistoryRetention, cfg.Monitor.RetentionInterval)
	}

	router := routes.SetupRoutes(cfg, db, services)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	logger.Info("Server exited properly")
}
