package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	AppEnv string `mapstructure:"APP_ENV"`
	Host   string `mapstructure:"HOST"`
	Port   string `mapstructure:"PORT"`

	MongoURI string `mapstructure:"MONGODB_URI"`
	DBName   string `mapstructure:"DB_NAME"`

	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBNameSQL   string `mapstructure:"DB_NAME_SQL"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`

	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	JWTTTL     time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost int           `mapstructure:"BCRYPT_COST"`

	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	ReactionRateLimit  int           `mapstructure:"REACTION_RATE_LIMIT"`
	ReactionRateWindow time.Duration `mapstructure:"REACTION_RATE_WINDOW"`

	AMQPURL string `mapstructure:"AMQP_URL"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioPublicURL string `mapstructure:"MINIO_PUBLIC_URL"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioSecure    bool   `mapstructure:"MINIO_SECURE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `mapstructure:"TWILIO_FROM"`

	RecoveryCodeTTL     time.Duration `mapstructure:"RECOVERY_CODE_TTL"`
	RecoveryMaxAttempts int           `mapstructure:"RECOVERY_MAX_ATTEMPTS"`
	RecoveryRateLimit   int           `mapstructure:"RECOVERY_RATE_LIMIT"`
	RecoveryRateWindow  time.Duration `mapstructure:"RECOVERY_RATE_WINDOW"`
}

var defaults = map[string]any{
	"APP_ENV":              "dev",
	"HOST":                 "0.0.0.0",
	"PORT":                 "8080",
	"MONGODB_URI":          "mongodb://localhost:27017",
	"DB_NAME":              "blog",
	"POSTGRES_DSN":         "",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "postgres",
	"DB_NAME_SQL":          "blog",
	"DB_SSLMODE":           "disable",
	"JWT_SECRET":           "",
	"JWT_TTL":              "24h",
	"BCRYPT_COST":          12,
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"REACTION_RATE_LIMIT":  30,
	"REACTION_RATE_WINDOW": "1m",
	"AMQP_URL":             "",
	"MINIO_ENDPOINT":       "",
	"MINIO_PUBLIC_URL":     "",
	"MINIO_ACCESS_KEY":     "",
	"MINIO_SECRET_KEY":     "",
	"MINIO_BUCKET":         "avatars",
	"MINIO_SECURE":         false,
	"SMTP_HOST":            "",
	"SMTP_PORT":            "587",
	"SMTP_USER":            "",
	"SMTP_PASSWORD":        "",
	"SMTP_FROM":            "",
	"TWILIO_ACCOUNT_SID":   "",
	"TWILIO_AUTH_TOKEN":    "",
	"TWILIO_FROM":          "",
	"RECOVERY_CODE_TTL":    "15m",

	"RECOVERY_MAX_ATTEMPTS": 5,
	"RECOVERY_RATE_LIMIT":   10,
	"RECOVERY_RATE_WINDOW":  "15m",
}

// Load reads defaults, an optional .env file and the process environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot run safely.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.AppEnv != "dev" {
			return errors.New("JWT_SECRET is required outside dev")
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// PostgresConnString returns POSTGRES_DSN, or a DSN assembled from the DB_* keys.
func (c *Config) PostgresConnString() string {
	if c.PostgresDSN != "" {
		return c.PostgresDSN
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBNameSQL, c.DBPort, c.DBSSLMode,
	)
}

func (c *Config) RedisEnabled() bool  { return c.RedisAddr != "" }
func (c *Config) QueueEnabled() bool  { return c.AMQPURL != "" }
func (c *Config) UploadEnabled() bool { return c.MinioEndpoint != "" }
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != "" && c.SMTPFrom != ""
}
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}
