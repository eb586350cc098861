package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	SecretKey      string
	BaseURL        string
	SendGridAPIKey string
	FromEmail      string
	HTTPAddr       string
	StoreDriver    string
	SQLitePath     string
	DatabaseURL    string
	IdentityURL    string
	OutboundProxy  string
	TestEmail      string
	AlertBotToken  string
	AlertChatID    int64
}

// Load reads .env and the process environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine when the variables come from the environment
	// directly (Docker, a hosting platform).
	if err := godotenv.Load(); err != nil {
		fmt.Println("info: no .env file, reading variables from the OS environment")
	}

	cfg := &Config{
		SecretKey:      os.Getenv("SECRET_KEY"),
		BaseURL:        withDefault(os.Getenv("BASE_URL"), "http://127.0.0.1:5000"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromEmail:      os.Getenv("FROM_EMAIL"),
		HTTPAddr:       listenAddr(),
		StoreDriver:    withDefault(os.Getenv("STORE_DRIVER"), "sqlite"),
		SQLitePath:     resolvePath(withDefault(os.Getenv("SQLITE_PATH"), "data/storyswap.db")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		IdentityURL:    os.Getenv("IDENTITY_URL"),
		OutboundProxy:  os.Getenv("OUTBOUND_PROXY"),
		TestEmail:      os.Getenv("TEST_EMAIL"),
		AlertBotToken:  os.Getenv("ALERT_BOT_TOKEN"),
	}

	if chat := strings.TrimSpace(os.Getenv("ALERT_CHAT_ID")); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ALERT_CHAT_ID is not a number: %w", err)
		}
		cfg.AlertChatID = id
	}

	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
	}

	return cfg, nil
}

// StoreDSN is what the selected store engine connects with.
func (c *Config) StoreDSN() string {
	if c.StoreDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.SQLitePath
}

// listenAddr honors HTTP_ADDR first, then a bare PORT from the hosting
// platform, then the default.
func listenAddr() string {
	if addr := strings.TrimSpace(os.Getenv("HTTP_ADDR")); addr != "" {
		return addr
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return ":" + port
	}
	return ":5000"
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func resolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.IsAbs(p) {
		return p
	}

	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		return filepath.Clean(filepath.Join(base, p))
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Clean(filepath.Join(cwd, p))
	}

	return p
}
