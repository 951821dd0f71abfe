package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	Idempotency   IdempotencyConfig
	Rental        RentalConfig
	Sendgrid      SendgridConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Rental.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"RENTEASE_APP_ENV" required:"true"`
	Port         string   `envconfig:"RENTEASE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"RENTEASE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"RENTEASE_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"RENTEASE_LOG_FORMAT" default:"json"`
	AutoMigrate  bool     `envconfig:"RENTEASE_AUTO_MIGRATE" default:"false"`
	CORSOrigins  []string `envconfig:"RENTEASE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RENTEASE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RENTEASE_DB_DSN"`
	Driver string `envconfig:"RENTEASE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"RENTEASE_DB_HOST"`
	Port     int    `envconfig:"RENTEASE_DB_PORT" default:"5432"`
	User     string `envconfig:"RENTEASE_DB_USER"`
	Password string `envconfig:"RENTEASE_DB_PASSWORD"`
	Name     string `envconfig:"RENTEASE_DB_NAME"`
	SSLMode  string `envconfig:"RENTEASE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENTEASE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENTEASE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENTEASE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENTEASE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"RENTEASE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENTEASE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RENTEASE_REDIS_ADDR"`
	Password     string        `envconfig:"RENTEASE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENTEASE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENTEASE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENTEASE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENTEASE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENTEASE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENTEASE_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"RENTEASE_REDIS_KEY_PREFIX" default:"re"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RENTEASE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RENTEASE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"RENTEASE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"RENTEASE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RENTEASE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RENTEASE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RENTEASE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RENTEASE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RENTEASE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RENTEASE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RENTEASE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RENTEASE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RENTEASE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RENTEASE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RENTEASE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// RateLimitConfig throttles authenticated API traffic per user. A zero limit disables it.
type RateLimitConfig struct {
	Window time.Duration `envconfig:"RENTEASE_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int64         `envconfig:"RENTEASE_RATE_LIMIT_REQUESTS" default:"300"`
}

type IdempotencyConfig struct {
	CheckoutTTL time.Duration `envconfig:"RENTEASE_IDEMPOTENCY_CHECKOUT_TTL" default:"168h"`
	DefaultTTL  time.Duration `envconfig:"RENTEASE_IDEMPOTENCY_DEFAULT_TTL" default:"24h"`
}

// RentalConfig holds the business defaults. system_settings rows override them at runtime.
type RentalConfig struct {
	TaxRate           decimal.Decimal `envconfig:"RENTEASE_RENTAL_TAX_RATE" default:"18.00"`
	SecurityDeposit   decimal.Decimal `envconfig:"RENTEASE_RENTAL_SECURITY_DEPOSIT" default:"1000.00"`
	LateFeeDailyRate  decimal.Decimal `envconfig:"RENTEASE_RENTAL_LATE_FEE_DAILY_RATE" default:"100.00"`
	ReturnAlertWindow time.Duration   `envconfig:"RENTEASE_RENTAL_RETURN_ALERT_WINDOW" default:"24h"`
	LowStockThreshold int             `envconfig:"RENTEASE_RENTAL_LOW_STOCK_THRESHOLD" default:"5"`
	InvoiceDueDays    int             `envconfig:"RENTEASE_RENTAL_INVOICE_DUE_DAYS" default:"7"`
	BrandName         string          `envconfig:"RENTEASE_RENTAL_BRAND_NAME" default:"RentEase"`
	SupportContact    string          `envconfig:"RENTEASE_RENTAL_SUPPORT_CONTACT" default:"info@rentease.com | +91 1234567890"`
}

func (r RentalConfig) validate() error {
	if r.TaxRate.IsNegative() || r.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s must be between 0 and 100", EnvRentalTaxRate)
	}
	if r.SecurityDeposit.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvRentalSecurityDeposit)
	}
	if r.LateFeeDailyRate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvRentalLateFeeDailyRate)
	}
	if r.ReturnAlertWindow <= 0 {
		return fmt.Errorf("%s must be positive", EnvRentalReturnAlertWindow)
	}
	return nil
}

type SendgridConfig struct {
	APIKey      string `envconfig:"RENTEASE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"RENTEASE_SENDGRID_FROM_EMAIL" default:"no-reply@rentease.com"`
	FromName    string `envconfig:"RENTEASE_SENDGRID_FROM_NAME" default:"RentEase"`
}

// Enabled reports whether outbound email is configured.
func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type CronConfig struct {
	Schedule    string        `envconfig:"RENTEASE_CRON_SCHEDULE" default:"@every 15m"`
	LockTTL     time.Duration `envconfig:"RENTEASE_CRON_LOCK_TTL" default:"10m"`
	MetricsAddr string        `envconfig:"RENTEASE_CRON_METRICS_ADDR" default:":9102"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == "sqlite" {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
