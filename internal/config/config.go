package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// User is an extra local login, only settable from the config file.
type User struct {
	Username string `yaml:"username"`
	PassHash string `yaml:"pass_hash"` // bcrypt
	Role     string `yaml:"role"`
}

type Config struct {
	Mode      Mode   `yaml:"mode"`
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`
	LogMode   string `yaml:"log_mode"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	BlobBasePath string `yaml:"blob_base_path"`

	// GatewayDriver selects where wizard output goes: "sql" writes to
	// DB_DRIVER/DB_DSN, "http" posts to the learning backend.
	GatewayDriver       string        `yaml:"gateway_driver"`
	BackendURL          string        `yaml:"backend_url"`
	BackendToken        string        `yaml:"backend_token"`
	BackendTokenURL     string        `yaml:"backend_token_url"`
	BackendClientID     string        `yaml:"backend_client_id"`
	BackendClientSecret string        `yaml:"backend_client_secret"`
	BackendTimeout      time.Duration `yaml:"backend_timeout"`

	ExtractorURL string `yaml:"extractor_url"`

	AuthHMACSecret  string `yaml:"auth_hmac_secret"`
	EnableLocalAuth bool   `yaml:"enable_local_auth"`
	AdminUser       string `yaml:"admin_user"`
	AdminPassHash   string `yaml:"admin_pass_hash"` // bcrypt
	Users           []User `yaml:"users"`

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`
}

func defaults() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8080",
		LogMode:            "dev",
		DBDriver:           "sqlite",
		BlobBasePath:       "./data",
		GatewayDriver:      "sql",
		BackendTimeout:     30 * time.Second,
		AuthHMACSecret:     "dev-secret-change-me",
		EnableLocalAuth:    true,
		AdminUser:          "admin",
		AdminPassHash:      "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji",
		CORSOriginsOnline:  []string{"https://lms.mindengage.ai"},
		CORSOriginsOffline: []string{"http://localhost:3000", "http://localhost:3010", "http://localhost:3020"},
	}
}

// FromEnv is the default configuration overridden by environment variables.
func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads the YAML file named by CONFIG_FILE, when set, and then applies
// environment overrides on top of it.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.GatewayDriver {
	case "sql":
	case "http":
		if c.BackendURL == "" {
			return fmt.Errorf("config: BACKEND_URL is required with GATEWAY_DRIVER=http")
		}
	default:
		return fmt.Errorf("config: unknown GATEWAY_DRIVER %q", c.GatewayDriver)
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == defaults().AuthHMACSecret {
		return fmt.Errorf("config: AUTH_HMAC_SECRET must be set in online mode")
	}
	return nil
}

func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func applyEnv(c *Config) {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.PublicURL = envOr("PUBLIC_URL", c.PublicURL)
	c.LogMode = envOr("LOG_MODE", c.LogMode)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.BlobBasePath = envOr("BLOB_BASE_PATH", c.BlobBasePath)
	c.GatewayDriver = envOr("GATEWAY_DRIVER", c.GatewayDriver)
	c.BackendURL = envOr("BACKEND_URL", c.BackendURL)
	c.BackendToken = envOr("BACKEND_TOKEN", c.BackendToken)
	c.BackendTokenURL = envOr("BACKEND_TOKEN_URL", c.BackendTokenURL)
	c.BackendClientID = envOr("BACKEND_CLIENT_ID", c.BackendClientID)
	c.BackendClientSecret = envOr("BACKEND_CLIENT_SECRET", c.BackendClientSecret)
	c.BackendTimeout = envDuration("BACKEND_TIMEOUT", c.BackendTimeout)
	c.ExtractorURL = envOr("EXTRACTOR_URL", c.ExtractorURL)
	if c.ExtractorURL == "" {
		c.ExtractorURL = c.BackendURL
	}
	c.AuthHMACSecret = envOr("AUTH_HMAC_SECRET", c.AuthHMACSecret)
	c.EnableLocalAuth = envBool("ENABLE_LOCAL_AUTH", c.EnableLocalAuth)
	c.AdminUser = envOr("ADMIN_USER", c.AdminUser)
	c.AdminPassHash = envOr("ADMIN_PASS_HASH", c.AdminPassHash)
	c.CORSOriginsOnline = csvOr("CORS_ORIGINS_ONLINE", c.CORSOriginsOnline)
	c.CORSOriginsOffline = csvOr("CORS_ORIGINS_OFFLINE", c.CORSOriginsOffline)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}
func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
