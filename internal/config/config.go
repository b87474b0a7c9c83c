package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	IntaSend IntaSendConfig
	Payment  PaymentConfig
	Firebase FirebaseConfig
	Twilio   TwilioConfig
	Minio    MinioConfig
	Realtime RealtimeConfig
	Cron     CronConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string   `env:"SERVER_PORT" envDefault:"5000"`
	Env            string   `env:"APP_ENV" envDefault:"development"`
	AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

type MongoConfig struct {
	URI    string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DBName string `env:"MONGO_DBNAME" envDefault:"clean_cloak"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET,required"`
	Expire time.Duration `env:"JWT_EXPIRE" envDefault:"168h"`
}

// IntaSendConfig holds payment provider credentials
type IntaSendConfig struct {
	PublicKey        string        `env:"INTASEND_PUBLIC_KEY"`
	SecretKey        string        `env:"INTASEND_SECRET_KEY"`
	Sandbox          bool          `env:"INTASEND_SANDBOX" envDefault:"true"`
	WebhookChallenge string        `env:"INTASEND_WEBHOOK_CHALLENGE"`
	Timeout          time.Duration `env:"INTASEND_TIMEOUT" envDefault:"30s"`
}

// PaymentConfig holds the settlement rules applied to paid bookings
type PaymentConfig struct {
	BackendURL         string  `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	PlatformFeePercent float64 `env:"PLATFORM_FEE_PERCENT" envDefault:"40"`
	Currency           string  `env:"PAYMENT_CURRENCY" envDefault:"KES"`
	// SettleTimeout bounds the settlement work that outlives the webhook request.
	SettleTimeout time.Duration `env:"PAYMENT_SETTLE_TIMEOUT" envDefault:"2m"`
}

// FirebaseConfig accepts any of the three credential forms. Push is disabled
// when none is set.
type FirebaseConfig struct {
	ServiceAccount  string `env:"FIREBASE_SERVICE_ACCOUNT"`
	ProjectID       string `env:"FIREBASE_PROJECT_ID"`
	ClientEmail     string `env:"FIREBASE_CLIENT_EMAIL"`
	PrivateKey      string `env:"FIREBASE_PRIVATE_KEY"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_FROM_NUMBER"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"clean-cloak"`
	PublicURL string `env:"MINIO_PUBLIC_URL" envDefault:"http://localhost:9000"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type RealtimeConfig struct {
	Channel   string        `env:"REALTIME_CHANNEL" envDefault:"realtime_events"`
	Heartbeat time.Duration `env:"SSE_HEARTBEAT" envDefault:"30s"`
}

type CronConfig struct {
	PayoutSweepInterval time.Duration `env:"PAYOUT_SWEEP_INTERVAL" envDefault:"10m"`
	StalePayoutAge      time.Duration `env:"STALE_PAYOUT_AGE" envDefault:"1h"`
	ReminderInterval    time.Duration `env:"REMINDER_INTERVAL" envDefault:"1h"`
	CacheRefresh        time.Duration `env:"CACHE_REFRESH_INTERVAL" envDefault:"5m"`
}

// NewConfig creates a new Config
func NewConfig() (*Config, error) {
	cfg := new(Config)
	if err := env.Parse(cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Payment.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate rejects fee percentages that would give a negative cleaner payout
// or a negative platform fee.
func (c PaymentConfig) Validate() error {
	if c.PlatformFeePercent < 0 || c.PlatformFeePercent > 100 {
		return fmt.Errorf("PLATFORM_FEE_PERCENT must be between 0 and 100, got %v", c.PlatformFeePercent)
	}
	return nil
}
