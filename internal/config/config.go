package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string
	OperatorToken string

	OTLPEndpoint string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	GatewayTimeoutSeconds int

	// TaxRateBps is the GST rate applied on word-plan prices, in basis
	// points (1800 = 18%).
	TaxRateBps int64

	// PurchaseCreditExpiryDays bounds the lifetime of credits granted by a
	// one-time purchase. Subscription credits do not expire.
	PurchaseCreditExpiryDays int

	// SubscriptionStartDelayMinutes keeps the first charge in the future so
	// mandate authentication can complete before billing begins.
	SubscriptionStartDelayMinutes int
	SubscriptionTotalCycles       int

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string

	// CheckoutRate/CheckoutBurst bound how fast a single user can open
	// checkouts. Zero rate disables the limiter.
	CheckoutRate  float64
	CheckoutBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "shuddhi"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		OperatorToken: strings.TrimSpace(getenv("OPERATOR_TOKEN", "")),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		RazorpayKeyID:         strings.TrimSpace(getenv("RAZORPAY_KEY_ID", "")),
		RazorpayKeySecret:     strings.TrimSpace(getenv("RAZORPAY_KEY_SECRET", "")),
		RazorpayWebhookSecret: strings.TrimSpace(getenv("RAZORPAY_WEBHOOK_SECRET", "")),
		GatewayTimeoutSeconds: getenvInt("GATEWAY_TIMEOUT_SECONDS", 10),

		TaxRateBps:               getenvInt64("TAX_RATE_BPS", 1800),
		PurchaseCreditExpiryDays: getenvInt("PURCHASE_CREDIT_EXPIRY_DAYS", 365),

		SubscriptionStartDelayMinutes: getenvInt("SUBSCRIPTION_START_DELAY_MINUTES", 10),
		SubscriptionTotalCycles:       getenvInt("SUBSCRIPTION_TOTAL_CYCLES", 120),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "shuddhi"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 4),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 32),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		CheckoutRate:  getenvFloat("CHECKOUT_RATE", 0.5),
		CheckoutBurst: getenvInt("CHECKOUT_BURST", 5),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
