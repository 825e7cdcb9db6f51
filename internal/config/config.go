package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Store     Store     `mapstructure:"store"`
	Firestore Firestore `mapstructure:"firestore"`
	Mongo     Mongo     `mapstructure:"mongo"`
	Database  Database  `mapstructure:"database"`
	Remote    Remote    `mapstructure:"remote"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Prefs     Prefs     `mapstructure:"prefs"`
}

// Store selects the trade store backend and its limits.
type Store struct {
	Driver    string `mapstructure:"driver"` // "firestore", "mongo", "sqlite" or "http"
	ListLimit int    `mapstructure:"list_limit"`
	BatchSize int    `mapstructure:"batch_size"`
}

// Firestore holds the configuration for the Firestore backend.
type Firestore struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Mongo holds the configuration for the MongoDB backend.
type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// Database holds the configuration for the SQLite backend.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Remote holds the configuration for the HTTP store client.
type Remote struct {
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File, when set, receives a copy of every log line.
	File string `mapstructure:"file"`
}

// Prefs holds the location of the local preferences file.
type Prefs struct {
	File string `mapstructure:"file"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and the environment still apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.list_limit", 200)
	v.SetDefault("store.batch_size", 500)
	v.SetDefault("database.dsn", "journal.db")
	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.credentials_file", "")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "journal")
	v.SetDefault("remote.base_url", "http://localhost:8080")
	v.SetDefault("remote.timeout_seconds", 10)
	v.SetDefault("remote.rate_limit", 20)      // requests per second
	v.SetDefault("remote.rate_limit_burst", 5) // burst size
	v.SetDefault("server.port", 8080)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.file", "")
	v.SetDefault("prefs.file", "prefs.yml")
}
