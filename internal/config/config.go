package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-social-auth/internal/pkg/token"
)

// Config holds all runtime configuration loaded from environment variables.
// It is built once at startup and passed by pointer to every component.
type Config struct {
	AppPort     string
	GRPCPort    string
	AppEnv      string
	Domain      string
	LogLevel    string
	HTTPTimeout time.Duration

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTAlgorithm string
	JWTKey       string // HMAC secret, or a PEM private key for asymmetric algorithms
	JWTExpiry    time.Duration

	VerifyCodeAlphabet string
	VerifyCodeLength   int
	VerifyCodeExpiry   time.Duration
	SweepInterval      time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
	TrustProxy     bool     // take the client address from X-Forwarded-For / X-Real-IP
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:     getEnv("APP_PORT", "3000"),
		GRPCPort:    getEnv("GRPC_PORT", "50051"),
		AppEnv:      getEnv("APP_ENV", "development"),
		Domain:      getEnv("DOMAIN", "localhost"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		HTTPTimeout: time.Duration(getEnvInt("SERVER_TIMEOUT_SECS", 10)) * time.Second,

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users: getEnv("DYNAMO_TABLE_USERS", "users"),
		},

		JWTAlgorithm: getEnv("JWT_ALGO", "HS256"),
		JWTKey:       getEnv("JWT_KEY", "a-string-secret-at-least-256-bits-long"),
		JWTExpiry:    time.Duration(getEnvInt("JWT_EXPIRY_SECS", 60*60*24*14)) * time.Second,

		VerifyCodeAlphabet: getEnv("EMAIL_VERIFY_ALPHABET", token.Numeric),
		VerifyCodeLength:   getEnvInt("EMAIL_VERIFY_TOKEN_LEN", 6),
		VerifyCodeExpiry:   time.Duration(getEnvInt("EMAIL_VERIFY_EXPIRY_SECS", 60*5)) * time.Second,
		SweepInterval:      time.Duration(getEnvInt("CLEANUP_PERIOD_MILLIS", 1000)) * time.Millisecond,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxy:     getEnvBool("TRUST_PROXY", false),
	}
}

// Validate reports settings that would leave the auth core unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTKey == "" {
		errs = append(errs, errors.New("JWT_KEY must not be empty"))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY_SECS must be positive"))
	}
	if c.VerifyCodeAlphabet == "" {
		errs = append(errs, errors.New("EMAIL_VERIFY_ALPHABET must not be empty"))
	}
	if c.VerifyCodeLength <= 0 {
		errs = append(errs, errors.New("EMAIL_VERIFY_TOKEN_LEN must be positive"))
	}
	if c.VerifyCodeExpiry <= 0 {
		errs = append(errs, errors.New("EMAIL_VERIFY_EXPIRY_SECS must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("CLEANUP_PERIOD_MILLIS must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
