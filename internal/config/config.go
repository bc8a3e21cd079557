package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Storage
	DataDir               string `mapstructure:"DATA_DIR"`
	StorageBackend        string `mapstructure:"STORAGE_BACKEND"`
	StorageDSN            string `mapstructure:"STORAGE_DSN"`
	StorageMissingAsEmpty bool   `mapstructure:"STORAGE_MISSING_AS_EMPTY"`
	AuditDSN              string `mapstructure:"AUDIT_DSN"`

	// Redis
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Discord
	DiscordClientID     string        `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string        `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string        `mapstructure:"DISCORD_REDIRECT_URI"`
	DiscordBotToken     string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordGuildID      string        `mapstructure:"DISCORD_GUILD_ID"`
	StaffRoleIDs        string        `mapstructure:"STAFF_ROLE_IDS"`
	AdminRoleIDs        string        `mapstructure:"ADMIN_ROLE_IDS"`
	PriorityRoleIDs     string        `mapstructure:"PRIORITY_ROLE_IDS"`
	RoleCacheTTL        time.Duration `mapstructure:"ROLE_CACHE_TTL"`

	// Sessions
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	FrontendURL   string        `mapstructure:"FRONTEND_URL"`

	// Email
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	ServerName   string `mapstructure:"SERVER_NAME"`

	// Backups
	S3Endpoint     string        `mapstructure:"S3_ENDPOINT"`
	S3AccessKey    string        `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey    string        `mapstructure:"S3_SECRET_KEY"`
	S3Bucket       string        `mapstructure:"S3_BUCKET"`
	S3Region       string        `mapstructure:"S3_REGION"`
	S3UseSSL       bool          `mapstructure:"S3_USE_SSL"`
	BackupInterval time.Duration `mapstructure:"BACKUP_INTERVAL"`

	// Effects
	EffectMaxAttempts int `mapstructure:"EFFECT_MAX_ATTEMPTS"`
	EffectWorkers     int `mapstructure:"EFFECT_WORKERS"`

	// Rate limiting of the submission endpoint
	SubmitRatePerMinute int `mapstructure:"SUBMIT_RATE_PER_MINUTE"`
	SubmitRateBurst     int `mapstructure:"SUBMIT_RATE_BURST"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
}

var defaults = map[string]any{
	"APP_ENV":                  "development",
	"LOG_LEVEL":                "",
	"PORT":                     "8080",
	"DATA_DIR":                 "./data",
	"STORAGE_BACKEND":          "json",
	"STORAGE_DSN":              "",
	"STORAGE_MISSING_AS_EMPTY": true,
	"AUDIT_DSN":                "",
	"REDIS_HOST":               "",
	"REDIS_PORT":               "6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"DISCORD_CLIENT_ID":        "",
	"DISCORD_CLIENT_SECRET":    "",
	"DISCORD_REDIRECT_URI":     "http://localhost:8080/auth/callback",
	"DISCORD_BOT_TOKEN":        "",
	"DISCORD_GUILD_ID":         "",
	"STAFF_ROLE_IDS":           "",
	"ADMIN_ROLE_IDS":           "",
	"PRIORITY_ROLE_IDS":        "",
	"ROLE_CACHE_TTL":           "5m",
	"SESSION_SECRET":           "",
	"SESSION_TTL":              "168h",
	"FRONTEND_URL":             "http://localhost:3000",
	"SMTP_HOST":                "",
	"SMTP_PORT":                587,
	"SMTP_USER":                "",
	"SMTP_PASSWORD":            "",
	"SMTP_FROM":                "",
	"SERVER_NAME":              "Roleplay Server",
	"S3_ENDPOINT":              "",
	"S3_ACCESS_KEY":            "",
	"S3_SECRET_KEY":            "",
	"S3_BUCKET":                "",
	"S3_REGION":                "",
	"S3_USE_SSL":               true,
	"BACKUP_INTERVAL":          "6h",
	"EFFECT_MAX_ATTEMPTS":      5,
	"EFFECT_WORKERS":           2,
	"SUBMIT_RATE_PER_MINUTE":   6,
	"SUBMIT_RATE_BURST":        3,
	"ALLOWED_ORIGINS":          "http://localhost:3000",
}

// Load reads .env (when present) and the environment into a Config.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "json":
	case "sqlite", "postgres":
		if c.StorageDSN == "" {
			return fmt.Errorf("STORAGE_DSN is required for storage backend %q", c.StorageBackend)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.AppEnv == "production" && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	if c.EffectMaxAttempts < 1 {
		return fmt.Errorf("EFFECT_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) RedisEnabled() bool   { return c.RedisHost != "" }
func (c *Config) DiscordEnabled() bool { return c.DiscordBotToken != "" && c.DiscordGuildID != "" }
func (c *Config) BackupEnabled() bool  { return c.S3Endpoint != "" && c.S3Bucket != "" }
func (c *Config) EmailEnabled() bool   { return c.SMTPHost != "" && c.SMTPFrom != "" }

func (c *Config) RedisAddr() string { return c.RedisHost + ":" + c.RedisPort }

func (c *Config) StaffRoles() []string    { return SplitList(c.StaffRoleIDs) }
func (c *Config) AdminRoles() []string    { return SplitList(c.AdminRoleIDs) }
func (c *Config) PriorityRoles() []string { return SplitList(c.PriorityRoleIDs) }
func (c *Config) Origins() []string       { return SplitList(c.AllowedOrigins) }

// SplitList parses a comma separated env value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
