package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Cron         CronConfig
	Ingest       IngestConfig
	Retention    RetentionConfig
	Digest       DigestConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"TOOLSTASH_APP_ENV" required:"true"`
	Port         string `envconfig:"TOOLSTASH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TOOLSTASH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TOOLSTASH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TOOLSTASH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TOOLSTASH_DB_DSN"`
	Driver string `envconfig:"TOOLSTASH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TOOLSTASH_DB_HOST"`
	LegacyPort     int    `envconfig:"TOOLSTASH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TOOLSTASH_DB_USER"`
	LegacyPassword string `envconfig:"TOOLSTASH_DB_PASSWORD"`
	LegacyName     string `envconfig:"TOOLSTASH_DB_NAME"`
	LegacySSLMode  string `envconfig:"TOOLSTASH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TOOLSTASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TOOLSTASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TOOLSTASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TOOLSTASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TOOLSTASH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TOOLSTASH_REDIS_ADDR"`
	Password     string        `envconfig:"TOOLSTASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"TOOLSTASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TOOLSTASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TOOLSTASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TOOLSTASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TOOLSTASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TOOLSTASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CronConfig covers both the interval worker and the HTTP trigger surface.
type CronConfig struct {
	Secret   string        `envconfig:"TOOLSTASH_CRON_SECRET" required:"true"`
	Interval time.Duration `envconfig:"TOOLSTASH_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"TOOLSTASH_CRON_LOCK_TTL" default:"25h"`
}

type IngestConfig struct {
	MaxBatchSize     int           `envconfig:"TOOLSTASH_INGEST_MAX_BATCH_SIZE" default:"20"`
	RateLimitWindow  time.Duration `envconfig:"TOOLSTASH_INGEST_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP   int           `envconfig:"TOOLSTASH_INGEST_RATE_LIMIT_PER_IP" default:"240"`
	MaxDurationSecs  int           `envconfig:"TOOLSTASH_INGEST_MAX_DURATION_SECONDS" default:"1800"`
	RequestTimeoutMS int           `envconfig:"TOOLSTASH_INGEST_REQUEST_TIMEOUT_MS" default:"5000"`
}

type RetentionConfig struct {
	PageViewDays int `envconfig:"TOOLSTASH_RETENTION_PAGEVIEW_DAYS" default:"180"`
	EventDays    int `envconfig:"TOOLSTASH_RETENTION_EVENT_DAYS" default:"90"`
}

type DigestConfig struct {
	WindowDays int `envconfig:"TOOLSTASH_DIGEST_WINDOW_DAYS" default:"7"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TOOLSTASH_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TOOLSTASH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TOOLSTASH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DigestTopic string `envconfig:"TOOLSTASH_PUBSUB_DIGEST_TOPIC" default:"ts-digest-payloads"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TOOLSTASH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TOOLSTASH_AUTO_MIGRATE" default:"false"`
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
