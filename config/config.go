package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EmailProviderResend   = "resend"
	EmailProviderPostmark = "postmark"
	EmailProviderLog      = "log"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	RedisURL      string `env:"REDIS_URL"`

	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTIssuer    string        `env:"JWT_ISSUER" envDefault:"academy"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieDomain string        `env:"COOKIE_DOMAIN"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`

	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"15m"`
	ResetCodeTTL        time.Duration `env:"RESET_CODE_TTL" envDefault:"15m"`
	ResetRateLimit      int           `env:"RESET_RATE_LIMIT" envDefault:"3"`
	ResetRateWindow     time.Duration `env:"RESET_RATE_WINDOW" envDefault:"5m"`
	MinPasswordLength   int           `env:"MIN_PASSWORD_LENGTH" envDefault:"6"`
	BcryptCost          int           `env:"BCRYPT_COST" envDefault:"12"`

	EmailProvider        string `env:"EMAIL_PROVIDER" envDefault:"log"`
	ResendAPIKey         string `env:"RESEND_API_KEY"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	EmailFrom            string `env:"EMAIL_FROM"`
	EmailReplyTo         string `env:"EMAIL_REPLY_TO"`
	SiteName             string `env:"SITE_NAME" envDefault:"Academy"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	PostLoginRedirect  string `env:"POST_LOGIN_REDIRECT" envDefault:"/"`

	FloodRate  float64 `env:"FLOOD_RATE" envDefault:"10"`
	FloodBurst int     `env:"FLOOD_BURST" envDefault:"20"`
}

// Load reads .env when present and parses the process environment.
func Load() (Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.EmailProvider {
	case EmailProviderResend:
		if strings.TrimSpace(c.ResendAPIKey) == "" || strings.TrimSpace(c.EmailFrom) == "" {
			return fmt.Errorf("%w: resend needs RESEND_API_KEY and EMAIL_FROM", ErrInvalidConfig)
		}
	case EmailProviderPostmark:
		if strings.TrimSpace(c.PostmarkServerToken) == "" || strings.TrimSpace(c.EmailFrom) == "" {
			return fmt.Errorf("%w: postmark needs POSTMARK_SERVER_TOKEN and EMAIL_FROM", ErrInvalidConfig)
		}
	case EmailProviderLog:
	default:
		return fmt.Errorf("%w: unknown EMAIL_PROVIDER %q", ErrInvalidConfig, c.EmailProvider)
	}
	if c.ResetRateLimit <= 0 || c.ResetRateWindow <= 0 {
		return fmt.Errorf("%w: reset rate limit and window must be positive", ErrInvalidConfig)
	}
	return nil
}

// GoogleEnabled reports whether Google sign-in is fully configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}
