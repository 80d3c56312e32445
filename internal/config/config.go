package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	MQTT      MQTTConfig
	Ingestion IngestionConfig
	Monitor   MonitorConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxRequestBytes int64
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file, used when Driver is sqlite.
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second per client IP, 0 disables limiting
	GeneralBurst int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	LocationTopic  string
	EmergencyTopic string
	QoS            byte
	KeepAlive      int
	ConnectTimeout int
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

type IngestionConfig struct {
	Workers    int
	BufferSize int
	Timeout    time.Duration
}

type MonitorConfig struct {
	LowBatteryThreshold int
	SpeedLimitKmh       float64
	// HistoryRetention is how long location history is kept, 0 keeps it forever.
	HistoryRetention  time.Duration
	RetentionInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("SERVER_MAX_REQUEST_BYTES", 1<<20)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "tracking.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	v.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)

	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PATCH,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Authorization,X-Request-ID")
	v.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID")
	v.SetDefault("CORS_MAX_AGE", 43200)

	v.SetDefault("MQTT_CLIENT_ID", "educafric-tracking")
	v.SetDefault("MQTT_LOCATION_TOPIC", "tracking/+/location")
	v.SetDefault("MQTT_EMERGENCY_TOPIC", "tracking/emergency")
	v.SetDefault("MQTT_QOS", 1)
	v.SetDefault("MQTT_KEEP_ALIVE", 30)
	v.SetDefault("MQTT_CONNECT_TIMEOUT", 10)

	v.SetDefault("INGESTION_WORKERS", 4)
	v.SetDefault("INGESTION_BUFFER_SIZE", 1000)
	v.SetDefault("INGESTION_TIMEOUT", "5s")

	v.SetDefault("LOW_BATTERY_THRESHOLD", 15)
	v.SetDefault("SPEED_LIMIT_KMH", 50)
	v.SetDefault("LOCATION_HISTORY_RETENTION", "2160h")
	v.SetDefault("LOCATION_RETENTION_INTERVAL", "1h")
}

// Load reads .env (when present) and the process environment, environment
// variables taking precedence.
func Load() (*Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	// Checked before narrowing to a byte so 256 cannot wrap to 0.
	qos := v.GetUint("MQTT_QOS")
	if qos > 2 {
		return nil, fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", qos)
	}

	config := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("ENVIRONMENT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			MaxRequestBytes: v.GetInt64("SERVER_MAX_REQUEST_BYTES"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			DBName:       v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			Path:         v.GetString("DB_PATH"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   v.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: v.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			ExposedHeaders:   splitList(v.GetString("CORS_EXPOSED_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
		MQTT: MQTTConfig{
			Broker:         v.GetString("MQTT_BROKER"),
			ClientID:       v.GetString("MQTT_CLIENT_ID"),
			Username:       v.GetString("MQTT_USERNAME"),
			Password:       v.GetString("MQTT_PASSWORD"),
			LocationTopic:  v.GetString("MQTT_LOCATION_TOPIC"),
			EmergencyTopic: v.GetString("MQTT_EMERGENCY_TOPIC"),
			QoS:            byte(qos),
			KeepAlive:      v.GetInt("MQTT_KEEP_ALIVE"),
			ConnectTimeout: v.GetInt("MQTT_CONNECT_TIMEOUT"),
		},
		Ingestion: IngestionConfig{
			Workers:    v.GetInt("INGESTION_WORKERS"),
			BufferSize: v.GetInt("INGESTION_BUFFER_SIZE"),
			Timeout:    v.GetDuration("INGESTION_TIMEOUT"),
		},
		Monitor: MonitorConfig{
			LowBatteryThreshold: v.GetInt("LOW_BATTERY_THRESHOLD"),
			SpeedLimitKmh:       v.GetFloat64("SPEED_LIMIT_KMH"),
			HistoryRetention:    v.GetDuration("LOCATION_HISTORY_RETENTION"),
			RetentionInterval:   v.GetDuration("LOCATION_RETENTION_INTERVAL"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("database configuration is missing: set DB_HOST and DB_NAME")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database configuration is missing: set DB_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Monitor.LowBatteryThreshold < 0 || c.Monitor.LowBatteryThreshold > 100 {
		return fmt.Errorf("LOW_BATTERY_THRESHOLD must be between 0 and 100")
	}
	if c.Monitor.HistoryRetention < 0 {
		return errors.New("LOCATION_HISTORY_RETENTION must not be negative")
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
