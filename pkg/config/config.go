package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BOARDGAMES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BOARDGAMES_DB_DSN"
	EnvDBHost = "BOARDGAMES_DB_HOST"
	EnvDBUser = "BOARDGAMES_DB_USER"
	EnvDBName = "BOARDGAMES_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Sharing       SharingConfig
	LinkRateLimit LinkRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"BOARDGAMES_APP_ENV" required:"true"`
	Port         string `envconfig:"BOARDGAMES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOARDGAMES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOARDGAMES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOARDGAMES_DB_DSN"`
	Driver string `envconfig:"BOARDGAMES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOARDGAMES_DB_HOST"`
	LegacyPort     int    `envconfig:"BOARDGAMES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOARDGAMES_DB_USER"`
	LegacyPassword string `envconfig:"BOARDGAMES_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOARDGAMES_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOARDGAMES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOARDGAMES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOARDGAMES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOARDGAMES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOARDGAMES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOARDGAMES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOARDGAMES_REDIS_ADDR"`
	Password     string        `envconfig:"BOARDGAMES_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOARDGAMES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOARDGAMES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOARDGAMES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOARDGAMES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOARDGAMES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOARDGAMES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BOARDGAMES_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BOARDGAMES_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BOARDGAMES_JWT_EXPIRATION_MINUTES" required:"true"`
}

// SharingConfig carries the policy knobs for the share engine.
type SharingConfig struct {
	// DuplicateWindow bounds how far back pending requests count as an
	// active duplicate when a new share is created. The historical default
	// is seven days.
	DuplicateWindow time.Duration `envconfig:"BOARDGAMES_SHARING_DUPLICATE_WINDOW" default:"168h"`
	// DefaultLinkExpiry is applied to public-link shares created without an
	// explicit expiry.
	DefaultLinkExpiry time.Duration `envconfig:"BOARDGAMES_SHARING_DEFAULT_LINK_EXPIRY" default:"720h"`
	// ShareBaseURL prefixes the token when a share URL is returned.
	ShareBaseURL string `envconfig:"BOARDGAMES_SHARING_BASE_URL" default:"https://boardgames.local/share"`
}

type LinkRateLimitConfig struct {
	Window  time.Duration `envconfig:"BOARDGAMES_LINK_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"BOARDGAMES_LINK_RATE_LIMIT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BOARDGAMES_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOARDGAMES_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BOARDGAMES_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOARDGAMES_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"BOARDGAMES_PUBSUB_DOMAIN_TOPIC" default:"bg-share-events"`
	DomainSubscription string `envconfig:"BOARDGAMES_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BOARDGAMES_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BOARDGAMES_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BOARDGAMES_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"BOARDGAMES_CRON_INTERVAL" default:"24h"`
	ShareRetentionDays  int           `envconfig:"BOARDGAMES_CRON_SHARE_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays int           `envconfig:"BOARDGAMES_CRON_OUTBOX_RETENTION_DAYS" default:"14"`
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
