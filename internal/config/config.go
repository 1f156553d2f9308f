// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DefaultIdempotencyTTL keeps a claimed notification key for 14 days.
const DefaultIdempotencyTTL = 14 * 24 * time.Hour

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	WebhookSecret         string `env:"WEBHOOK_SECRET"`
	IdempotencyTTLSeconds int    `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"1209600"`

	Telegram Telegram
	WhatsApp WhatsApp

	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	NotifyRPS     float64       `env:"NOTIFY_RPS" envDefault:"20"`

	AdminTokenSecret  string        `env:"ADMIN_TOKEN_SECRET"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`

	Payment Payment
	S3      S3

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

type Telegram struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatIDs  string `env:"TELEGRAM_CHAT_IDS"`
	Thread   string `env:"TELEGRAM_THREAD_ID"`
	APIBase  string `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
}

type WhatsApp struct {
	Token      string `env:"WHATSAPP_TOKEN"`
	PhoneID    string `env:"WHATSAPP_PHONE_ID"`
	Recipients string `env:"WHATSAPP_RECIPIENTS"`
	APIBase    string `env:"WHATSAPP_API_BASE" envDefault:"https://graph.facebook.com/v20.0"`
}

type Payment struct {
	TerminalKey     string `env:"PAYMENT_TERMINAL_KEY"`
	Password        string `env:"PAYMENT_PASSWORD"`
	APIBase         string `env:"PAYMENT_API_BASE" envDefault:"https://securepay.tinkoff.ru/v2"`
	SuccessURL      string `env:"PAYMENT_SUCCESS_URL"`
	FailURL         string `env:"PAYMENT_FAIL_URL"`
	NotificationURL string `env:"PAYMENT_NOTIFICATION_URL"`
}

type S3 struct {
	Bucket        string `env:"S3_BUCKET"`
	Endpoint      string `env:"S3_ENDPOINT"`
	Region        string `env:"S3_REGION" envDefault:"ru-central1"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
}

// Load reads an optional .env file (ENV_FILE, default ".env") and parses the environment.
// A missing .env file is not an error.
func Load() (*Config, error) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.IdempotencyTTLSeconds <= 0 {
		return nil, fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be > 0, got %d", cfg.IdempotencyTTLSeconds)
	}
	return cfg, nil
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLSeconds) * time.Second
}

// ThreadID returns the configured Telegram topic id, or 0 when unset or not a positive integer.
func (t Telegram) ThreadID() int64 {
	return PositiveInt(t.Thread)
}

// SplitList splits a comma-separated value, trimming entries and dropping empty ones.
func SplitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PositiveInt parses v as a positive integer; anything else yields 0.
func PositiveInt(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
