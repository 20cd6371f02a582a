package config

import (
	"fmt"
	"strings"
	"time"

	"autoparts/internal/domain/pricing"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string `mapstructure:"PORT"`
	GoEnv    string `mapstructure:"GO_ENV"`    // dev/prod
	LogLevel string `mapstructure:"LOG_LEVEL"` // debug/info/warn/error
	FEURL    string `mapstructure:"FE_URL"`    // CORS許可オリジン

	DatabaseURL      string `mapstructure:"DATABASE_URL"` // あれば最優先
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     int    `mapstructure:"POSTGRES_PORT"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	// 認証プロバイダのJWT署名シークレット（HS256）
	JWTSecret string `mapstructure:"JWT_SECRET"`

	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`
	CheckoutDraftTTL time.Duration `mapstructure:"CHECKOUT_DRAFT_TTL"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"` // カンマ区切り。空なら通知しない
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`

	StripeSecretKey  string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeSuccessURL string `mapstructure:"STRIPE_SUCCESS_URL"`
	StripeCancelURL  string `mapstructure:"STRIPE_CANCEL_URL"`

	GCSBucket          string `mapstructure:"GCS_BUCKET"`
	GCSCredentialsFile string `mapstructure:"GCS_CREDENTIALS_FILE"`
	GCSPublicBaseURL   string `mapstructure:"GCS_PUBLIC_BASE_URL"`

	TaxRate               string `mapstructure:"TAX_RATE"`
	FreeShippingThreshold string `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	FlatShippingFee       string `mapstructure:"FLAT_SHIPPING_FEE"`
	Currency              string `mapstructure:"CURRENCY"`

	LowStockThreshold int64 `mapstructure:"LOW_STOCK_THRESHOLD"`
}

var defaults = map[string]any{
	"PORT":                    "8080",
	"GO_ENV":                  "dev",
	"LOG_LEVEL":               "info",
	"FE_URL":                  "http://localhost:3000",
	"DATABASE_URL":            "",
	"POSTGRES_USER":           "postgres",
	"POSTGRES_PASSWORD":       "postgres",
	"POSTGRES_DB":             "autoparts",
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           5432,
	"POSTGRES_SSLMODE":        "disable",
	"JWT_SECRET":              "",
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"CHECKOUT_DRAFT_TTL":      "2h",
	"KAFKA_BROKERS":           "",
	"KAFKA_ORDER_TOPIC":       "order-events",
	"STRIPE_SECRET_KEY":       "",
	"STRIPE_SUCCESS_URL":      "http://localhost:3000/checkout/success?order={ORDER_NUMBER}",
	"STRIPE_CANCEL_URL":       "http://localhost:3000/checkout",
	"GCS_BUCKET":              "",
	"GCS_CREDENTIALS_FILE":    "",
	"GCS_PUBLIC_BASE_URL":     "https://storage.googleapis.com",
	"TAX_RATE":                "0.08",
	"FREE_SHIPPING_THRESHOLD": "100",
	"FLAT_SHIPPING_FEE":       "15",
	"CURRENCY":                "usd",
	"LOW_STOCK_THRESHOLD":     5,
}

// Loadは .env（あれば）と環境変数から読む
func Load() (Config, error) {
	// .envが無いのは正常（本番は環境変数だけ）
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" && (cfg.PostgresHost == "" || cfg.PostgresDB == "") {
		return Config{}, fmt.Errorf("DATABASE_URL or POSTGRES_HOST/POSTGRES_DB is required")
	}
	if cfg.CheckoutDraftTTL <= 0 {
		return Config{}, fmt.Errorf("CHECKOUT_DRAFT_TTL must be positive")
	}
	if _, err := cfg.Pricing(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// DSNはgorm(postgres)用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c Config) Pricing() (pricing.Policy, error) {
	tax, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return pricing.Policy{}, fmt.Errorf("TAX_RATE must be number: %w", err)
	}
	threshold, err := decimal.NewFromString(c.FreeShippingThreshold)
	if err != nil {
		return pricing.Policy{}, fmt.Errorf("FREE_SHIPPING_THRESHOLD must be number: %w", err)
	}
	fee, err := decimal.NewFromString(c.FlatShippingFee)
	if err != nil {
		return pricing.Policy{}, fmt.Errorf("FLAT_SHIPPING_FEE must be number: %w", err)
	}
	return pricing.Policy{
		TaxRate:               tax,
		FreeShippingThreshold: threshold,
		FlatShippingFee:       fee,
		Currency:              strings.ToLower(c.Currency),
	}, nil
}
