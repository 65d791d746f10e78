package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	awspkg "github.com/Endry199/jpstore/pkg/aws"
)

const credentialsSecretName = "jpstore/CHECKOUT_CREDENTIALS"

// CheckoutConfig holds the credentials every checkout needs. They are checked
// on each request so a misconfigured deployment answers 500 instead of
// accepting orders nobody will be told about.
type CheckoutConfig struct {
	TelegramBotToken string `validate:"required"`
	TelegramChatID   string `validate:"required"`
	SMTPHost         string `validate:"required"`
	SMTPPort         int    `validate:"required,gt=0"`
	SMTPUser         string `validate:"required"`
	SMTPPass         string `validate:"required"`
	PostgresHost     string `validate:"required"`
	PostgresUser     string `validate:"required"`
	PostgresPassword string `validate:"required"`
	PostgresDB       string `validate:"required"`
}

type Config struct {
	Env  string
	Port string

	Checkout CheckoutConfig

	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	SenderEmail           string
	SMTPSkipVerify        bool
	TelegramAPIURL        string
	TelegramWebhookSecret string
	StoreWhatsapp         string
	InvoiceTimeZone       string
	NotifyTimeout         time.Duration

	RedisURL        string
	ProductCacheTTL time.Duration

	ReceiptBucket  string
	MaxUploadBytes int64
	AllowedOrigins []string
	TrustedProxies []string

	CloudWatchEnabled bool
}

var validate = validator.New()

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),
		Checkout: CheckoutConfig{
			TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
			SMTPHost:         os.Getenv("SMTP_HOST"),
			SMTPPort:         smtpPort,
			SMTPUser:         os.Getenv("SMTP_USER"),
			SMTPPass:         os.Getenv("SMTP_PASS"),
			PostgresHost:     os.Getenv("POSTGRES_HOST"),
			PostgresUser:     os.Getenv("POSTGRES_USER"),
			PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
			PostgresDB:       os.Getenv("POSTGRES_DB"),
		},
		PostgresPort:          getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:       getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:      getEnv("POSTGRES_TIMEZONE", "America/Caracas"),
		SMTPSkipVerify:        os.Getenv("SMTP_SKIP_VERIFY") == "true",
		TelegramAPIURL:        strings.TrimSuffix(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		TelegramWebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
		StoreWhatsapp:         getEnv("STORE_WHATSAPP", "584143187185"),
		InvoiceTimeZone:       getEnv("INVOICE_TIMEZONE", "America/Caracas"),
		NotifyTimeout:         getDuration("NOTIFY_TIMEOUT", 15*time.Second),
		RedisURL:              os.Getenv("REDIS_URL"),
		ProductCacheTTL:       getDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
		ReceiptBucket:         os.Getenv("RECEIPT_BUCKET"),
		MaxUploadBytes:        int64(getInt("MAX_UPLOAD_MB", 10)) << 20,
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TrustedProxies:        splitList(os.Getenv("TRUSTED_PROXIES")),
		CloudWatchEnabled:     os.Getenv("CLOUDWATCH_ENABLED") == "true",
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if err := cfg.applySecrets(context.Background()); err != nil {
			return nil, err
		}
	}

	cfg.SenderEmail = getEnv("SENDER_EMAIL", cfg.Checkout.SMTPUser)

	if cfg.Port == "" {
		return nil, fmt.Errorf("PORT must not be empty")
	}
	return cfg, nil
}

// CheckoutReady reports the first missing or invalid checkout credential.
func (c *Config) CheckoutReady() error {
	if err := validate.Struct(&c.Checkout); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("checkout configuration invalid: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("checkout configuration invalid: %w", err)
	}
	return nil
}

// PostgresDSN builds the connection string for gorm's postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Checkout.PostgresHost, c.Checkout.PostgresUser, c.Checkout.PostgresPassword,
		c.Checkout.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func (c *Config) applySecrets(ctx context.Context) error {
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config for secrets: %w", err)
	}
	secret, err := awspkg.NewSecretsClient(awsCfg).CheckoutSecret(ctx, credentialsSecretName)
	if err != nil {
		return err
	}
	c.applyOverrides(secret)
	return nil
}

func (c *Config) applyOverrides(s *awspkg.CheckoutSecret) {
	set := func(v string, dst *string) {
		if v != "" {
			*dst = v
		}
	}
	set(s.TelegramBotToken, &c.Checkout.TelegramBotToken)
	set(s.TelegramChatID, &c.Checkout.TelegramChatID)
	set(s.SMTPHost, &c.Checkout.SMTPHost)
	set(s.SMTPUser, &c.Checkout.SMTPUser)
	set(s.SMTPPass, &c.Checkout.SMTPPass)
	set(s.PostgresHost, &c.Checkout.PostgresHost)
	set(s.PostgresUser, &c.Checkout.PostgresUser)
	set(s.PostgresPassword, &c.Checkout.PostgresPassword)
	set(s.PostgresDB, &c.Checkout.PostgresDB)
	if port, err := strconv.Atoi(s.SMTPPort); err == nil {
		c.Checkout.SMTPPort = port
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(strings.TrimSuffix(o, "/")); o != "" {
			out = append(out, o)
		}
	}
	return out
}
