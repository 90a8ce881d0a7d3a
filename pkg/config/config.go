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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	POS           POSConfig
	Metrics       MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.POS.Rate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREPOS_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list; empty means local dev origins.
	CORSOrigins []string `envconfig:"STOREPOS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREPOS_DB_DSN"`
	Driver string `envconfig:"STOREPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREPOS_DB_USER"`
	LegacyPassword string `envconfig:"STOREPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREPOS_REDIS_URL"`
	Address      string        `envconfig:"STOREPOS_REDIS_ADDR"`
	Password     string        `envconfig:"STOREPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STOREPOS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STOREPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STOREPOS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STOREPOS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREPOS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREPOS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"STOREPOS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREPOS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite      bool `envconfig:"STOREPOS_USE_SQLITE" default:"false"`
	AutoMigrate    bool `envconfig:"STOREPOS_AUTO_MIGRATE" default:"false"`
	BlockZeroStock bool `envconfig:"STOREPOS_BLOCK_ZERO_STOCK" default:"true"`
}

// POSConfig carries the checkout policy knobs.
type POSConfig struct {
	TaxRate           string        `envconfig:"STOREPOS_TAX_RATE" default:"0.08"`
	InvoicePrefix     string        `envconfig:"STOREPOS_INVOICE_PREFIX" default:"INV"`
	CartTTL           time.Duration `envconfig:"STOREPOS_CART_TTL" default:"12h"`
	LowStockThreshold int           `envconfig:"STOREPOS_LOW_STOCK_THRESHOLD" default:"10"`
}

// maxTaxRatePlaces matches the scale of invoices.tax_rate.
const maxTaxRatePlaces = 6

// Rate parses the configured tax rate as a fraction in [0, 1) with at most six
// decimal places.
func (p POSConfig) Rate() (decimal.Decimal, error) {
	raw := strings.TrimSpace(p.TaxRate)
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be a fraction between 0 and 1, got %s", EnvTaxRate, raw)
	}
	if !rate.Equal(rate.Truncate(maxTaxRatePlaces)) {
		return decimal.Zero, fmt.Errorf("%s allows at most %d decimal places, got %s", EnvTaxRate, maxTaxRatePlaces, raw)
	}
	return rate, nil
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"STOREPOS_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"STOREPOS_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		db.Driver = DriverSQLite
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
