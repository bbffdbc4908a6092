package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyMB         int
	MaxConcurrent     int
}

type App struct {
	Name      string
	Env       string
	ClientURL string `mapstructure:"clientURL"`
	HTTP      HTTP
}

func (a App) IsProduction() bool { return strings.EqualFold(a.Env, "production") }

type FileRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate FileRotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Redis struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	DashboardTTLSec int    `mapstructure:"dashboardTTLSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type RateLimit struct {
	RPS       float64 `mapstructure:"rps"`
	Burst     int     `mapstructure:"burst"`
	AuthRPS   float64 `mapstructure:"authRps"`
	AuthBurst int     `mapstructure:"authBurst"`
}

type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string `mapstructure:"fromName"`
}

// Media holds the image CDN credentials; an empty CloudName disables uploads.
type Media struct {
	CloudName string `mapstructure:"cloudName"`
	APIKey    string `mapstructure:"apiKey"`
	APISecret string `mapstructure:"apiSecret"`
	Folder    string
	MaxFileMB int `mapstructure:"maxFileMB"`
}

type Outbox struct {
	PollIntervalSec int `mapstructure:"pollIntervalSec"`
	BatchSize       int `mapstructure:"batchSize"`
	MaxAttempts     int `mapstructure:"maxAttempts"`
	LeaseSec        int `mapstructure:"leaseSec"`
}

type Notifications struct {
	TTLDays          int `mapstructure:"ttlDays"`
	SweepIntervalMin int `mapstructure:"sweepIntervalMin"`
}

func (n Notifications) TTL() time.Duration { return time.Duration(n.TTLDays) * 24 * time.Hour }

type Config struct {
	App           App
	Log           Log
	JWT           JWT
	DB            DB
	Redis         Redis     `mapstructure:"redis"`
	CORS          CORS      `mapstructure:"cors"`
	RateLimit     RateLimit `mapstructure:"rateLimit"`
	Mail          Mail
	Media         Media
	Outbox        Outbox
	Notifications Notifications
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lostfound")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.clientURL", "http://localhost:3000")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readTimeoutSec", 15)
	v.SetDefault("app.http.writeTimeoutSec", 60)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 30)
	v.SetDefault("app.http.maxBodyMB", 60)
	v.SetDefault("app.http.maxConcurrent", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxSizeMB", 100)
	v.SetDefault("log.rotate.maxBackups", 7)
	v.SetDefault("log.rotate.maxAgeDays", 30)
	v.SetDefault("log.rotate.compress", true)

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.issuer", "lostfound")
	v.SetDefault("jwt.accessTokenTTLMin", 7*24*60)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "host=localhost user=postgres password=postgres dbname=lostfound port=5432 sslmode=disable")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 50)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dashboardTTLSec", 30)

	v.SetDefault("cors.allowOrigins", []string{"http://localhost:3000"})

	v.SetDefault("rateLimit.rps", 100)
	v.SetDefault("rateLimit.burst", 200)
	v.SetDefault("rateLimit.authRps", 0.2)
	v.SetDefault("rateLimit.authBurst", 10)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@lostfound.local")
	v.SetDefault("mail.fromName", "Lost & Found Pet Network")

	v.SetDefault("media.cloudName", "")
	v.SetDefault("media.apiKey", "")
	v.SetDefault("media.apiSecret", "")
	v.SetDefault("media.folder", "pet-adoption")
	v.SetDefault("media.maxFileMB", 5)

	v.SetDefault("outbox.pollIntervalSec", 5)
	v.SetDefault("outbox.batchSize", 20)
	v.SetDefault("outbox.maxAttempts", 8)
	v.SetDefault("outbox.leaseSec", 60)

	v.SetDefault("notifications.ttlDays", 30)
	v.SetDefault("notifications.sweepIntervalMin", 60)
}

// Load reads the YAML file at path (or $CONFIG_PATH, or the local default),
// then overlays APP_* environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.App.IsProduction() && (c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret) {
		return errors.New("config: jwt.secret must be set in production")
	}
	switch c.DB.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("config: jwt.accessTokenTTLMin must be positive")
	}
	if c.Notifications.TTLDays <= 0 {
		return errors.New("config: notifications.ttlDays must be positive")
	}
	return nil
}
