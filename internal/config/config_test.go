package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_EnvironmentOnly(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/tracking-test.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.educafric.com, https://admin.educafric.com")
	t.Setenv("LOW_BATTERY_THRESHOLD", "20")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/tracking-test.db", cfg.Database.Path)
	assert.Equal(t, []string{"https://app.educafric.com", "https://admin.educafric.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 20, cfg.Monitor.LowBatteryThreshold)
	assert.Equal(t, 50.0, cfg.Monitor.SpeedLimitKmh)
	assert.Equal(t, 90*24*time.Hour, cfg.Monitor.HistoryRetention)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.MQTT.Enabled())
}

func TestLoadFile_ReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DRIVER=postgres\nDB_HOST=db.internal\nDB_NAME=tracking\nMQTT_BROKER=tcp://broker:1883\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "tracking", cfg.Database.DBName)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "tracking/+/location", cfg.MQTT.LocationTopic)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestLoadFile_RejectsOutOfRangeQoS(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	for _, qos := range []string{"3", "256"} {
		t.Run(qos, func(t *testing.T) {
			t.Setenv("MQTT_QOS", qos)

			_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "MQTT_QOS")
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "postgres without host",
			cfg:     Config{Database: DatabaseConfig{Driver: "postgres", DBName: "tracking"}},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Database: DatabaseConfig{Driver: "mongo"}},
			wantErr: true,
		},
		{
			name:    "bad qos",
			cfg:     Config{Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"}, MQTT: MQTTConfig{QoS: 3}},
			wantErr: true,
		},
		{
			name:    "negative retention",
			cfg:     Config{Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"}, Monitor: MonitorConfig{HistoryRetention: -time.Hour}},
			wantErr: true,
		},
		{
			name: "sqlite ok",
			cfg:  Config{Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
