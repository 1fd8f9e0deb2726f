package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBDriver  string
	DBSource  string
	Port      string
	JWTSecret string

	SessionTTL        time.Duration
	StaffTokenTTL     time.Duration
	SessionCookieName string
	CookieSecure      bool
	CORSOrigins       []string
	PublicBaseURL     string

	TaxRate           decimal.Decimal
	ServiceChargeRate decimal.Decimal
	USDVNDRate        decimal.Decimal

	PaymentTimeout          time.Duration
	PaymentWarningThreshold time.Duration
	WebhookSecret           string

	RedisAddr   string
	RabbitMQURL string
	KafkaBroker string
	KafkaTopic  string

	SeedDemo      bool
	AdminEmail    string
	AdminPassword string
}

func LoadConfig() *Config {
	// .env เป็น optional (container ใส่ env มาเอง)
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment only")
	}

	return &Config{
		DBDriver:  getEnv("DB_DRIVER", "sqlite"),
		DBSource:  getEnv("DB_SOURCE", "qrorder.db"),
		Port:      getEnv("PORT", "8000"),
		JWTSecret: getEnv("JWT_SECRET", "changeme"),

		SessionTTL:        getDuration("SESSION_TTL", 3*time.Hour),
		StaffTokenTTL:     getDuration("STAFF_TOKEN_TTL", 12*time.Hour),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "table_session"),
		CookieSecure:      getBool("COOKIE_SECURE", false),
		CORSOrigins:       getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", "http://localhost:8000"),

		TaxRate:           getDecimal("TAX_RATE", "0.10"),
		ServiceChargeRate: getDecimal("SERVICE_CHARGE_RATE", "0.05"),
		USDVNDRate:        getDecimal("USD_VND_RATE", "25000"),

		PaymentTimeout:          getDuration("PAYMENT_TIMEOUT", 15*time.Minute),
		PaymentWarningThreshold: getDuration("PAYMENT_WARNING_THRESHOLD", 120*time.Second),
		WebhookSecret:           os.Getenv("WEBHOOK_SECRET"),

		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "order-events"),

		SeedDemo:      getBool("SEED_DEMO", true),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDecimal(key, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		log.Printf("invalid %s, using %s", key, fallback)
		return decimal.RequireFromString(fallback)
	}
	return d
}

func getList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
