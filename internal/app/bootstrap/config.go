package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string
	DevMode   bool

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	FrontendURL    string
	AllowedOrigins []string

	// TokenLookupKey keys the HMAC fingerprint used to index sessions.
	// It is not a signing key; losing it only invalidates outstanding
	// sessions.
	TokenLookupKey          string
	AllowEphemeralLookupKey bool

	Argon2MemoryKiB   uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	LockoutDuration time.Duration
	FailedThreshold int

	SSOProviderName string

	MaxDBConns int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		DevMode  bool   `yaml:"dev_mode"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Frontend struct {
		BaseURL        string   `yaml:"base_url"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"frontend"`
	SSO struct {
		Provider string `yaml:"provider"`
	} `yaml:"sso"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:               "auth-service",
		DevMode:                 false,
		HTTPPort:                8080,
		GRPCPort:                9090,
		FrontendURL:             "http://localhost:3000",
		AllowedOrigins:          []string{"http://localhost:3000"},
		AllowEphemeralLookupKey: true,
		Argon2MemoryKiB:         64 * 1024,
		Argon2Iterations:        3,
		Argon2Parallelism:       2,
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTL:         7 * 24 * time.Hour,
		LockoutDuration:         30 * time.Minute,
		FailedThreshold:         5,
		SSOProviderName:         "okta",
		MaxDBConns:              20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Service.DevMode {
			cfg.DevMode = true
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Frontend.BaseURL != "" {
			cfg.FrontendURL = f.Frontend.BaseURL
		}
		if len(f.Frontend.AllowedOrigins) > 0 {
			cfg.AllowedOrigins = f.Frontend.AllowedOrigins
		}
		if f.SSO.Provider != "" {
			cfg.SSOProviderName = f.SSO.Provider
		}
	}

	cfg.DevMode = envBool("DEV_MODE", cfg.DevMode)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.FrontendURL = strings.TrimRight(envOrDefault("FRONTEND_URL", cfg.FrontendURL), "/")
	cfg.AllowedOrigins = envCSV("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.TokenLookupKey = envOrDefault("TOKEN_LOOKUP_KEY", cfg.TokenLookupKey)
	cfg.AllowEphemeralLookupKey = envBool("TOKEN_LOOKUP_KEY_ALLOW_EPHEMERAL", cfg.AllowEphemeralLookupKey)
	cfg.SSOProviderName = envOrDefault("SSO_PROVIDER", cfg.SSOProviderName)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.FailedThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedThreshold)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.Argon2MemoryKiB = uint32(envInt("ARGON2_MEMORY_KIB", int(cfg.Argon2MemoryKiB)))
	cfg.Argon2Iterations = uint32(envInt("ARGON2_ITERATIONS", int(cfg.Argon2Iterations)))
	cfg.Argon2Parallelism = uint8(envInt("ARGON2_PARALLELISM", int(cfg.Argon2Parallelism)))

	cfg.AccessTokenTTL = time.Duration(envInt("ACCESS_TOKEN_LIFETIME_MINUTES", int(cfg.AccessTokenTTL.Minutes()))) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(envInt("REFRESH_TOKEN_LIFETIME_DAYS", int(cfg.RefreshTokenTTL.Hours()/24))) * 24 * time.Hour
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_MINUTES", int(cfg.LockoutDuration.Minutes()))) * time.Minute

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.TokenLookupKey == "" && !cfg.AllowEphemeralLookupKey {
		return Config{}, fmt.Errorf("missing TOKEN_LOOKUP_KEY")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
