package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Configuration struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	Signing  SigningConfig  `json:"signing"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
}

type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig configures the Postgres document store. An empty Host
// selects the in-memory store instead.
type DatabaseConfig struct {
	Host            string `json:"host"`
	Port            string `json:"port"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	SSLMode         string `json:"ssl_mode"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	MaxOpenConns    int    `json:"max_open_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime"`
}

type StorageConfig struct {
	BlobDir        string `json:"blob_dir"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

type SigningConfig struct {
	LinkTTL time.Duration `json:"link_ttl"`
}

type SecurityConfig struct {
	// OperatorPasswordHash is a bcrypt hash of the operator password.
	OperatorPasswordHash string        `json:"operator_password_hash"`
	SessionTimeout       time.Duration `json:"session_timeout"`
}

type LoggingConfig struct {
	Level string `json:"level"`
}

var (
	config     *Configuration
	configOnce sync.Once
	configLock sync.RWMutex
)

func LoadConfig(filePath string) (*Configuration, error) {
	var err error

	configOnce.Do(func() {
		var file *os.File
		file, err = os.Open(filePath)
		if err != nil {
			err = fmt.Errorf("failed to open config file: %w", err)
			return
		}
		defer file.Close()

		config = &Configuration{}
		if derr := json.NewDecoder(file).Decode(config); derr != nil {
			err = fmt.Errorf("failed to decode config file: %w", derr)
			return
		}
		applyDefaults(config)
	})

	return config, err
}

func GetConfig() *Configuration {
	configLock.RLock()
	defer configLock.RUnlock()
	return config
}

func InitializeDefaultConfig() *Configuration {
	configLock.Lock()
	defer configLock.Unlock()

	config = &Configuration{}
	applyDefaults(config)
	return config
}

func applyDefaults(c *Configuration) {
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Storage.BlobDir == "" {
		c.Storage.BlobDir = "data/blobs"
	}
	if c.Storage.MaxUploadBytes == 0 {
		c.Storage.MaxUploadBytes = 10 << 20
	}
	if c.Signing.LinkTTL == 0 {
		c.Signing.LinkTTL = 7 * 24 * time.Hour
	}
	if c.Security.SessionTimeout == 0 {
		c.Security.SessionTimeout = 24 * time.Hour
	}
	if c.Security.OperatorPasswordHash == "" {
		// Development fallback; set a real hash in production.
		c.Security.OperatorPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMye1J1zCkXHAqwEVzQxX0eGyUvXtW1rFeW"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "development"
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}
}

func LogConfig(logger *zap.Logger) {
	configLock.RLock()
	defer configLock.RUnlock()

	logger.Info("Application configuration",
		zap.String("port", config.Server.Port),
		zap.Duration("read_timeout", config.Server.ReadTimeout),
		zap.Duration("write_timeout", config.Server.WriteTimeout),
		zap.String("blob_dir", config.Storage.BlobDir),
		zap.Int64("max_upload_bytes", config.Storage.MaxUploadBytes),
		zap.Duration("link_ttl", config.Signing.LinkTTL),
		zap.String("database_host", config.Database.Host),
		zap.String("database_name", config.Database.Name),
	)
}
