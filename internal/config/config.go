package config

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every externally supplied knob. Missing crypto material
// is a startup precondition: Load fails hard and the process must not
// come up without it.
type Config struct {
	Profile     string
	HTTPAddr    string
	CORSOrigins []string

	DatabaseDSN string
	RedisAddr   string

	EncryptionKey []byte
	HMACKey       []byte

	JWTIssuer        string
	JWTAudience      string
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	SessionTTL            time.Duration
	ProximityRadiusMeters float64

	APIRateLimitRPM  int
	ScanRateLimitRPM int
	AuthRateLimitRPM int

	SeedAdminEmail    string
	SeedAdminPassword string

	OTELMetricsEnabled        bool
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELEnvironment           string
	OTELMetricsExportInterval time.Duration
}

func Load(ctx context.Context) (*Config, error) {
	cfg, err := load()
	recordConfigValidationEvent(ctx, getEnv("APP_PROFILE", "dev"), outcomeOf(err), classifyConfigLoadError(err))
	return cfg, err
}

func load() (*Config, error) {
	cfg := &Config{
		Profile:           getEnv("APP_PROFILE", "dev"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseDSN:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		JWTIssuer:         getEnv("JWT_ISSUER", "attendance-service"),
		JWTAudience:       getEnv("JWT_AUDIENCE", "attendance-api"),
		JWTAccessSecret:   os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:  os.Getenv("JWT_REFRESH_SECRET"),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@admin.com"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		OTELMetricsEnabled:       getBool("OTEL_METRICS_ENABLED", false),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "attendance-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", "dev"),
	}

	var err error
	if cfg.AccessTokenTTL, err = getDuration("JWT_ACCESS_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDuration("JWT_REFRESH_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTELMetricsExportInterval, err = getDuration("OTEL_METRICS_EXPORT_INTERVAL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProximityRadiusMeters, err = getFloat("PROXIMITY_RADIUS_METERS", 1000); err != nil {
		return nil, err
	}
	if cfg.APIRateLimitRPM, err = getInt("API_RATE_LIMIT_RPM", 300); err != nil {
		return nil, err
	}
	if cfg.ScanRateLimitRPM, err = getInt("SCAN_RATE_LIMIT_RPM", 60); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimitRPM, err = getInt("AUTH_RATE_LIMIT_RPM", 30); err != nil {
		return nil, err
	}

	if raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	rawKey := os.Getenv("ENCRYPTION_KEY")
	if rawKey != "" {
		key, decodeErr := base64.StdEncoding.DecodeString(rawKey)
		if decodeErr != nil {
			return nil, fmt.Errorf("parse ENCRYPTION_KEY: %w", decodeErr)
		}
		cfg.EncryptionKey = key
	}
	cfg.HMACKey = []byte(os.Getenv("HMAC_KEY"))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.EncryptionKey) != 32 {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required and must decode to 32 bytes"))
	}
	if len(c.HMACKey) == 0 {
		errs = append(errs, errors.New("HMAC_KEY is required"))
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET is required (min 32 chars)"))
	}
	if len(c.JWTRefreshSecret) < 32 {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required (min 32 chars)"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.ProximityRadiusMeters <= 0 {
		errs = append(errs, errors.New("PROXIMITY_RADIUS_METERS must be positive"))
	}
	return errors.Join(errs...)
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
