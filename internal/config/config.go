package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// All values come from env; a .env file in the working directory is loaded first if present.
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Store     StoreConfig
	Gateways  GatewaysConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	// URL takes precedence over the discrete fields when set (DATABASE_URL).
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// StoreConfig carries storefront-facing settings.
type StoreConfig struct {
	// WhatsAppNumber receives payment confirmations for external orders and top-ups.
	WhatsAppNumber string
	// CheckoutInFlight caps concurrent checkout/top-up requests per user.
	CheckoutInFlight int
	CatalogCacheTTL  time.Duration
}

type GatewaysConfig struct {
	SMMURL  string
	SMMKey  string
	DocsURL string
	DocsKey string
	Timeout time.Duration
}

type KafkaConfig struct {
	// Brokers is empty when event publishing is disabled.
	Brokers []string
	Topic   string
}

type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

// AdminConfig bootstraps the first administrator on startup. Optional.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

const (
	defaultWhatsAppNumber = "+525648804810"
	defaultSMMURL         = "https://smmprodigyx.xyz/api/v2"
	defaultDocsURL        = "https://comidamaster.net/public"
	defaultKafkaTopic     = "storefront.events"
	defaultServiceName    = "storefront-api"
)

func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.URL = normalizeDatabaseURL(strings.TrimSpace(os.Getenv("DATABASE_URL")))
	if c.DB.URL == "" {
		c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
		c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
		c.DB.Password = os.Getenv("DB_PASSWORD")
		c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
		c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate() based on env.
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Store.WhatsAppNumber = getenv("WHATSAPP_NUMBER", defaultWhatsAppNumber)
	c.Store.CatalogCacheTTL = mustDuration("CATALOG_CACHE_TTL")
	if v := strings.TrimSpace(os.Getenv("CHECKOUT_IN_FLIGHT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("CHECKOUT_IN_FLIGHT must be an integer, got %q", v))
		}
		c.Store.CheckoutInFlight = n
	}

	c.Gateways.SMMURL = getenv("SMM_API_URL", defaultSMMURL)
	c.Gateways.SMMKey = os.Getenv("SMM_API_KEY")
	c.Gateways.DocsURL = getenv("DOCS_API_URL", defaultDocsURL)
	c.Gateways.DocsKey = os.Getenv("DOCS_API_KEY")
	c.Gateways.Timeout = mustDuration("GATEWAY_TIMEOUT")

	c.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	c.Kafka.Topic = getenv("KAFKA_TOPIC", defaultKafkaTopic)

	c.Telemetry.ServiceName = getenv("OTEL_SERVICE_NAME", defaultServiceName)
	c.Telemetry.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))

	c.Admin.Username = strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	c.Admin.Email = strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	c.Admin.Password = os.Getenv("ADMIN_PASSWORD")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config and fills env-dependent defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.URL == "" {
		if c.DB.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required (or DATABASE_URL)"))
		}
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
		if strings.TrimSpace(c.DB.SSLMode) == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				// Local-friendly default; production must be explicit.
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	} else if !strings.HasPrefix(c.DB.URL, "postgresql://") {
		errs = append(errs, errors.New("DATABASE_URL must be a postgres URL"))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Store.WhatsAppNumber == "" {
		c.Store.WhatsAppNumber = defaultWhatsAppNumber
	}
	if c.Store.CheckoutInFlight < 0 {
		errs = append(errs, fmt.Errorf("CHECKOUT_IN_FLIGHT must be >= 0, got %d", c.Store.CheckoutInFlight))
	} else if c.Store.CheckoutInFlight == 0 {
		c.Store.CheckoutInFlight = 1
	}
	if c.Store.CatalogCacheTTL <= 0 {
		c.Store.CatalogCacheTTL = time.Minute
	}
	if c.Gateways.Timeout <= 0 {
		c.Gateways.Timeout = 10 * time.Second
	}

	if c.Admin.Username != "" || c.Admin.Password != "" {
		if c.Admin.Username == "" || c.Admin.Password == "" || c.Admin.Email == "" {
			errs = append(errs, errors.New("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	if c.DB.URL != "" {
		return c.DB.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// normalizeDatabaseURL rewrites the deprecated postgres:// scheme some hosts still hand out.
func normalizeDatabaseURL(v string) string {
	if strings.HasPrefix(v, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(v, "postgres://")
	}
	return v
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
