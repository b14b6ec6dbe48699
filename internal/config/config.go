package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		PublicBaseURL      string   `mapstructure:"public_base_url"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
		LoginRatePerMinute int      `mapstructure:"login_rate_per_minute"`
	} `mapstructure:"server"`

	Database DatabaseConfig `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Storage struct {
		LocalPath string `mapstructure:"local_path"`
		InMemory  bool   `mapstructure:"in_memory"`
		// Remote failures push the fallback onto the local store for this long
		// before the remote is tried again.
		RemoteCooldown time.Duration `mapstructure:"remote_cooldown"`
	} `mapstructure:"storage"`

	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`

	Activity struct {
		HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
		ActiveWindow      time.Duration `mapstructure:"active_window"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
		SweepInterval     time.Duration `mapstructure:"sweep_interval"`
		RetentionDays     int           `mapstructure:"retention_days"`
	} `mapstructure:"activity"`

	// Printer is the HTTP bridge of the thermal label printer; empty disables printing.
	Printer struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"printer"`

	GeoIP struct {
		Enabled bool          `mapstructure:"enabled"`
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"geoip"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// ObjectStoreConfig describes an S3 compatible bucket (Cloudflare R2 in production)
// holding uploaded photos.
type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// Configured reports whether enough settings are present to talk to the bucket.
func (o ObjectStoreConfig) Configured() bool {
	return o.Endpoint != "" && o.AccessKey != "" && o.SecretKey != "" && o.Bucket != ""
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	v.AutomaticEnv()

	// Defaults let the binary run without a config file
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("server.login_rate_per_minute", 10)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "depo-backend")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "depo_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.addr", "")
	v.SetDefault("storage.local_path", "data/local")
	v.SetDefault("storage.remote_cooldown", 15*time.Second)
	v.SetDefault("object_store.region", "auto")
	v.SetDefault("activity.heartbeat_interval", 30*time.Second)
	v.SetDefault("activity.active_window", 5*time.Minute)
	v.SetDefault("activity.idle_timeout", 10*time.Minute)
	v.SetDefault("activity.sweep_interval", time.Minute)
	v.SetDefault("activity.retention_days", 90)
	v.SetDefault("printer.timeout", 10*time.Second)
	v.SetDefault("geoip.enabled", true)
	v.SetDefault("geoip.url", "https://ipapi.co/%s/json/")
	v.SetDefault("geoip.timeout", 3*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		logrus.WithField("component", "Config").Info("No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logrus.WithField("component", "Config").Fatalf("config unmarshal error: %v", err)
	}

	applyEnvOverrides(&cfg)

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		logrus.WithField("component", "Config").Fatal("JWT_SECRET not found in config or environment")
	}

	return &cfg
}

// applyEnvOverrides maps the flat deployment variables onto the nested config.
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
		cfg.Database.Enabled = true
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if endpoint := os.Getenv("R2_ENDPOINT"); endpoint != "" {
		cfg.ObjectStore.Endpoint = endpoint
	}
	if key := os.Getenv("R2_ACCESS_KEY"); key != "" {
		cfg.ObjectStore.AccessKey = key
	}
	if secret := os.Getenv("R2_SECRET_KEY"); secret != "" {
		cfg.ObjectStore.SecretKey = secret
	}
	if bucket := os.Getenv("R2_BUCKET"); bucket != "" {
		cfg.ObjectStore.Bucket = bucket
	}
	if publicURL := os.Getenv("R2_PUBLIC_URL"); publicURL != "" {
		cfg.ObjectStore.PublicURL = publicURL
	}

	if printer := os.Getenv("PRINTER_URL"); printer != "" {
		cfg.Printer.URL = printer
	}
}
