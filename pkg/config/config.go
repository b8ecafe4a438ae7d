package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Environment names recognized by AppConfig.
const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "magazzino"

// Canonical environment variable names referenced in error messages.
const (
	EnvDBDSN  = "MAGAZZINO_DB_DSN"
	EnvDBHost = "MAGAZZINO_DB_HOST"
	EnvDBUser = "MAGAZZINO_DB_USER"
	EnvDBName = "MAGAZZINO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Fulfillment   FulfillmentConfig
	Outbox        OutboxConfig
	PubSub        PubSubConfig
	GCP           GCPConfig
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
	Env          string `envconfig:"MAGAZZINO_APP_ENV" required:"true"`
	Port         string `envconfig:"MAGAZZINO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MAGAZZINO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAGAZZINO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MAGAZZINO_DB_DSN"`
	Driver string `envconfig:"MAGAZZINO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MAGAZZINO_DB_HOST"`
	LegacyPort     int    `envconfig:"MAGAZZINO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MAGAZZINO_DB_USER"`
	LegacyPassword string `envconfig:"MAGAZZINO_DB_PASSWORD"`
	LegacyName     string `envconfig:"MAGAZZINO_DB_NAME"`
	LegacySSLMode  string `envconfig:"MAGAZZINO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MAGAZZINO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAGAZZINO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAGAZZINO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAGAZZINO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MAGAZZINO_REDIS_URL" required:"true"`
	Password     string        `envconfig:"MAGAZZINO_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAGAZZINO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAGAZZINO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAGAZZINO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAGAZZINO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAGAZZINO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAGAZZINO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MAGAZZINO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MAGAZZINO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MAGAZZINO_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"MAGAZZINO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MAGAZZINO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MAGAZZINO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MAGAZZINO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MAGAZZINO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MAGAZZINO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MAGAZZINO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"MAGAZZINO_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MAGAZZINO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MAGAZZINO_AUTO_MIGRATE" default:"false"`
}

type FulfillmentConfig struct {
	// Bounded retries on stock version conflicts before surfacing the failure.
	WriteConflictRetries int `envconfig:"MAGAZZINO_WRITE_CONFLICT_RETRIES" default:"3"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MAGAZZINO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MAGAZZINO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MAGAZZINO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	MovementsTopic string `envconfig:"MAGAZZINO_PUBSUB_MOVEMENTS_TOPIC" default:"magazzino-movement-events"`
	OrdersTopic    string `envconfig:"MAGAZZINO_PUBSUB_ORDERS_TOPIC" default:"magazzino-order-events"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"MAGAZZINO_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"MAGAZZINO_GCP_CREDENTIALS_JSON"`
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
