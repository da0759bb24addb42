package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "clubcore"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Registration  RegistrationConfig
	Cron          CronConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	Stripe        StripeConfig
	SES           SESConfig
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
	Env          string   `envconfig:"CLUBCORE_APP_ENV" required:"true"`
	Port         string   `envconfig:"CLUBCORE_APP_PORT" required:"true"`
	PublicURL    string   `envconfig:"CLUBCORE_APP_PUBLIC_URL" default:"http://localhost:3000"`
	CORSOrigins  []string `envconfig:"CLUBCORE_CORS_ORIGINS" default:"http://localhost:3000"`
	LogLevel     string   `envconfig:"CLUBCORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"CLUBCORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLUBCORE_DB_DSN"`
	Driver string `envconfig:"CLUBCORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLUBCORE_DB_HOST"`
	LegacyPort     int    `envconfig:"CLUBCORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLUBCORE_DB_USER"`
	LegacyPassword string `envconfig:"CLUBCORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLUBCORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLUBCORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLUBCORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLUBCORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLUBCORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLUBCORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.LegacyHost == "" || db.LegacyUser == "" || db.LegacyName == "" {
		return fmt.Errorf("db config requires either CLUBCORE_DB_DSN or host/user/name parts")
	}
	db.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.LegacyUser),
		url.QueryEscape(db.LegacyPassword),
		db.LegacyHost,
		db.LegacyPort,
		db.LegacyName,
		db.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CLUBCORE_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"CLUBCORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLUBCORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLUBCORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLUBCORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLUBCORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CLUBCORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CLUBCORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CLUBCORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CLUBCORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	MinLength        int `envconfig:"CLUBCORE_PASSWORD_MIN_LENGTH" default:"8"`
	ArgonMemoryKB    int `envconfig:"CLUBCORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CLUBCORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CLUBCORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CLUBCORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CLUBCORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CLUBCORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CLUBCORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CLUBCORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CLUBCORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CLUBCORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"5"`
	RegisterIPLimit    int           `envconfig:"CLUBCORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLUBCORE_AUTO_MIGRATE" default:"false"`
}

type RegistrationConfig struct {
	TokenTTL         time.Duration `envconfig:"CLUBCORE_REGISTRATION_TOKEN_TTL" default:"24h"`
	TokenMaxAttempts int           `envconfig:"CLUBCORE_REGISTRATION_TOKEN_MAX_ATTEMPTS" default:"5"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"CLUBCORE_CRON_INTERVAL" default:"24h"`
	LockTTL     time.Duration `envconfig:"CLUBCORE_CRON_LOCK_TTL" default:"25h"`
	ExpiryGrace time.Duration `envconfig:"CLUBCORE_CRON_EXPIRY_GRACE" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CLUBCORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CLUBCORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CLUBCORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"CLUBCORE_GCS_BUCKET_NAME" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"CLUBCORE_MAX_UPLOAD_MB" default:"5"`
}

// MaxUploadBytes converts the configured megabyte cap into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) * 1024 * 1024
}

type StripeConfig struct {
	APIKey string `envconfig:"CLUBCORE_STRIPE_API_KEY"`
	Secret string `envconfig:"CLUBCORE_STRIPE_SECRET"`
	Env    string `envconfig:"CLUBCORE_STRIPE_ENV" default:"test"`
	// Webhook event IDs stay claimed for this long; Stripe retries for up
	// to three days.
	WebhookIdempotencyTTL time.Duration `envconfig:"CLUBCORE_STRIPE_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SESConfig struct {
	Region          string `envconfig:"CLUBCORE_SES_REGION" default:"us-east-1"`
	AccessKeyID     string `envconfig:"CLUBCORE_SES_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"CLUBCORE_SES_SECRET_ACCESS_KEY"`
	FromAddress     string `envconfig:"CLUBCORE_SES_FROM_ADDRESS"`
	FromName        string `envconfig:"CLUBCORE_SES_FROM_NAME" default:"ClubCore"`
	Provider        string `envconfig:"CLUBCORE_EMAIL_PROVIDER" default:"noop"`
}
