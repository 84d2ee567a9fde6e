package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PARCELHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PARCELHUB_APP_ENV"
	EnvPort     = "PARCELHUB_APP_PORT"
	EnvRedisURL = "PARCELHUB_REDIS_URL"
	EnvDBDSN    = "PARCELHUB_DB_DSN"
	EnvDBHost   = "PARCELHUB_DB_HOST"
	EnvDBUser   = "PARCELHUB_DB_USER"
	EnvDBName   = "PARCELHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Mail         MailConfig
	Chat         ChatConfig
	QR           QRConfig
	OTP          OTPConfig
	Sweep        SweepConfig
	Archive      ArchiveConfig
	Retention    RetentionConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PARCELHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"PARCELHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PARCELHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARCELHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PARCELHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PARCELHUB_DB_DSN"`
	Driver string `envconfig:"PARCELHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PARCELHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"PARCELHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PARCELHUB_DB_USER"`
	LegacyPassword string `envconfig:"PARCELHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"PARCELHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"PARCELHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARCELHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARCELHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARCELHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARCELHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARCELHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PARCELHUB_REDIS_ADDR"`
	Password     string        `envconfig:"PARCELHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARCELHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARCELHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARCELHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARCELHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARCELHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARCELHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MailConfig configures the transactional mail provider.
type MailConfig struct {
	APIKey      string        `envconfig:"PARCELHUB_MAIL_API_KEY"`
	BaseURL     string        `envconfig:"PARCELHUB_MAIL_BASE_URL"`
	DefaultFrom string        `envconfig:"PARCELHUB_MAIL_FROM_EMAIL"`
	Timeout     time.Duration `envconfig:"PARCELHUB_MAIL_TIMEOUT" default:"10s"`
}

// ChatConfig configures the instant-messaging provider. An empty APIKey is a
// valid state: the dispatcher then falls back to manual deep links.
type ChatConfig struct {
	APIKey      string        `envconfig:"PARCELHUB_CHAT_API_KEY"`
	BaseURL     string        `envconfig:"PARCELHUB_CHAT_BASE_URL"`
	SenderPhone string        `envconfig:"PARCELHUB_CHAT_SENDER_PHONE"`
	Timeout     time.Duration `envconfig:"PARCELHUB_CHAT_TIMEOUT" default:"10s"`
}

// QRConfig configures the QR image rendering provider.
type QRConfig struct {
	BaseURL   string        `envconfig:"PARCELHUB_QR_BASE_URL"`
	ImageSize int           `envconfig:"PARCELHUB_QR_IMAGE_SIZE" default:"300"`
	Timeout   time.Duration `envconfig:"PARCELHUB_QR_TIMEOUT" default:"10s"`
}

type OTPConfig struct {
	Length      int           `envconfig:"PARCELHUB_OTP_LENGTH" default:"6"`
	Validity    time.Duration `envconfig:"PARCELHUB_OTP_VALIDITY" default:"24h"`
	MaxAttempts int           `envconfig:"PARCELHUB_OTP_MAX_ATTEMPTS" default:"5"`

	ArgonMemoryKB    int `envconfig:"PARCELHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PARCELHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PARCELHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PARCELHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PARCELHUB_ARGON_KEY_LEN" default:"32"`
}

type SweepConfig struct {
	GraceDays      int           `envconfig:"PARCELHUB_SWEEP_GRACE_DAYS" default:"15"`
	WarningWindow  time.Duration `envconfig:"PARCELHUB_SWEEP_WARNING_WINDOW" default:"24h"`
	Interval       time.Duration `envconfig:"PARCELHUB_SWEEP_INTERVAL" default:"24h"`
	LockTTLOrphans time.Duration `envconfig:"PARCELHUB_SWEEP_LOCK_TTL" default:"25h"`
}

type ArchiveConfig struct {
	RetentionDays int `envconfig:"PARCELHUB_ARCHIVE_RETENTION_DAYS" default:"30"`
}

type RetentionConfig struct {
	OTPDays          int `envconfig:"PARCELHUB_OTP_RETENTION_DAYS" default:"90"`
	NotificationDays int `envconfig:"PARCELHUB_NOTIFICATION_RETENTION_DAYS" default:"180"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PARCELHUB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
