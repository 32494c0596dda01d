// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"task-points-market/services"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// R2 holds the Cloudflare R2 credentials used for proof uploads.
// Uploads are disabled when AccountID is empty.
type R2 struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

func (r R2) Enabled() bool { return r.AccountID != "" && r.Bucket != "" }

type Config struct {
	Env            string `env:"ENV,default=development"`
	Port           string `env:"PORT,default=5200"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	ServiceToken   string `env:"SERVICE_TOKEN,required"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	LogFormat      string `env:"LOG_FORMAT,default=text"`

	// economy
	CoinRate         int64  `env:"COIN_RATE,default=1"`
	AdminIDs         string `env:"ADMIN_IDS"`
	JoiningBonus     int64  `env:"JOINING_BONUS,default=200"`
	ReferredBonus    int64  `env:"REFERRED_BONUS,default=500"`
	ReferrerBonus    int64  `env:"REFERRER_BONUS,default=200"`
	PayoutPercent    int64  `env:"PAYOUT_PERCENT,default=90"`
	VideoLinkMarkers string `env:"VIDEO_LINK_MARKERS,default=youtu"`

	AuditInterval  time.Duration `env:"AUDIT_INTERVAL,default=10m"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS,default=5"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST,default=10"`

	// Gateway endpoint that relays pending reviews to admins; empty disables it.
	NotifyURL      string        `env:"NOTIFY_URL"`
	NotifyInterval time.Duration `env:"NOTIFY_INTERVAL,default=30s"`

	R2 R2
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv()
}

// FromEnv decodes the process environment without touching .env.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	if c.ServiceToken == "" {
		return errors.New("SERVICE_TOKEN environment variable not set")
	}
	if _, err := c.Admins(); err != nil {
		return err
	}
	if c.AuditInterval <= 0 {
		return fmt.Errorf("AUDIT_INTERVAL must be positive, got %s", c.AuditInterval)
	}
	if c.NotifyURL != "" && c.NotifyInterval <= 0 {
		return fmt.Errorf("NOTIFY_INTERVAL must be positive, got %s", c.NotifyInterval)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return c.Rules().Validate()
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Admins parses ADMIN_IDS, a comma separated list of user ids.
func (c *Config) Admins() ([]int64, error) {
	var ids []int64
	for _, part := range splitList(c.AdminIDs) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS: invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) Origins() string {
	return strings.Join(splitList(c.AllowedOrigins), ",")
}

func (c *Config) Rules() services.Rules {
	return services.Rules{
		CoinRate:         c.CoinRate,
		JoiningBonus:     c.JoiningBonus,
		ReferredBonus:    c.ReferredBonus,
		ReferrerBonus:    c.ReferrerBonus,
		PayoutPercent:    c.PayoutPercent,
		VideoLinkMarkers: splitList(c.VideoLinkMarkers),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
