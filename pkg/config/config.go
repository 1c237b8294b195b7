package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	Admin         AdminConfig
	Gateway       GatewayConfig
	WhatsApp      WhatsAppConfig
	SMS           SMSConfig
	Chatbot       ChatbotConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CANTEEN_APP_ENV" required:"true"`
	Port         string `envconfig:"CANTEEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CANTEEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CANTEEN_LOG_WARN_STACK" default:"false"`
	Timezone     string `envconfig:"CANTEEN_TIMEZONE" default:"Asia/Kolkata"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CANTEEN_DB_DSN"`
	Driver string `envconfig:"CANTEEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CANTEEN_DB_HOST"`
	LegacyPort     int    `envconfig:"CANTEEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CANTEEN_DB_USER"`
	LegacyPassword string `envconfig:"CANTEEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"CANTEEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"CANTEEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CANTEEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CANTEEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CANTEEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CANTEEN_REDIS_ADDR"`
	Password     string        `envconfig:"CANTEEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"CANTEEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CANTEEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CANTEEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CANTEEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CANTEEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CANTEEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CANTEEN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CANTEEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CANTEEN_JWT_EXPIRATION_MINUTES" required:"true"`
}

type OTPConfig struct {
	TTL          time.Duration `envconfig:"CANTEEN_OTP_TTL" default:"60s"`
	Length       int           `envconfig:"CANTEEN_OTP_LENGTH" default:"6"`
	ArgonMemory  int           `envconfig:"CANTEEN_OTP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime    int           `envconfig:"CANTEEN_OTP_ARGON_TIME" default:"3"`
	ArgonThreads int           `envconfig:"CANTEEN_OTP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen int           `envconfig:"CANTEEN_OTP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen  int           `envconfig:"CANTEEN_OTP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	OTPWindow      time.Duration `envconfig:"CANTEEN_AUTH_RATE_LIMIT_OTP_WINDOW" default:"1m"`
	OTPMobileLimit int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_OTP_MOBILE_LIMIT" default:"3"`
	OTPIPLimit     int           `envconfig:"CANTEEN_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"20"`
}

type AdminConfig struct {
	APIKey string `envconfig:"CANTEEN_ADMIN_API_KEY"`
}

type GatewayConfig struct {
	BaseURL          string        `envconfig:"CANTEEN_GATEWAY_BASE_URL" default:"https://api.cashfree.com/api/v1"`
	ClientID         string        `envconfig:"CANTEEN_GATEWAY_CLIENT_ID"`
	ClientSecret     string        `envconfig:"CANTEEN_GATEWAY_CLIENT_SECRET"`
	LinkPrefix       string        `envconfig:"CANTEEN_GATEWAY_LINK_PREFIX" default:"canteen_"`
	ReturnURL        string        `envconfig:"CANTEEN_GATEWAY_RETURN_URL"`
	Timeout          time.Duration `envconfig:"CANTEEN_GATEWAY_TIMEOUT" default:"10s"`
	SurchargePercent string        `envconfig:"CANTEEN_GATEWAY_SURCHARGE_PERCENT" default:"0"`
}

type WhatsAppConfig struct {
	BaseURL    string        `envconfig:"CANTEEN_WHATSAPP_BASE_URL"`
	Username   string        `envconfig:"CANTEEN_WHATSAPP_USERNAME"`
	Password   string        `envconfig:"CANTEEN_WHATSAPP_PASSWORD"`
	SourceAddr string        `envconfig:"CANTEEN_WHATSAPP_SOURCE"`
	Timeout    time.Duration `envconfig:"CANTEEN_WHATSAPP_TIMEOUT" default:"10s"`
}

type SMSConfig struct {
	BaseURL  string        `envconfig:"CANTEEN_SMS_BASE_URL"`
	APIKey   string        `envconfig:"CANTEEN_SMS_API_KEY"`
	SenderID string        `envconfig:"CANTEEN_SMS_SENDER_ID"`
	Timeout  time.Duration `envconfig:"CANTEEN_SMS_TIMEOUT" default:"10s"`
}

type ChatbotConfig struct {
	SessionTTL time.Duration `envconfig:"CANTEEN_CHATBOT_SESSION_TTL" default:"30m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CANTEEN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CANTEEN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
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
