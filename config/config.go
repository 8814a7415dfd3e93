package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	BackendURL     string // REST API base, e.g. https://api.example.com/api
	GoogleClientID string
	AllowedOrigin  string
	// ImageHost never receives credentials or the Authorization header.
	ImageHost string
	// Session
	SessionFile     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// Outbound HTTP
	HTTPTimeout   time.Duration
	OutboundRPS   float64
	OutboundBurst int
	// Payments
	RazorpayKeyID  string
	Currency       string
	PaymentTimeout time.Duration
	// Business Rules
	MaxItemQuantity          int
	CouponEnforceUsageLimit  bool
	FailedPaymentOrderStatus string
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	return cfg
}

// FromEnv reads the process environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		Port:           getEnv("PORT", "5174"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		BackendURL:     strings.TrimSuffix(getEnv("BACKEND_URL", getEnv("VITE_BACKEND_URL", "")), "/"),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", getEnv("VITE_GOOGLE_CLIENT_ID", "")),
		AllowedOrigin:  getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		ImageHost:      getEnv("IMAGE_HOST", "api.cloudinary.com"),

		SessionFile:     getEnv("SESSION_FILE", ".storefront-session.json"),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 2*time.Hour),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		HTTPTimeout:   getDurationEnv("HTTP_TIMEOUT", 15*time.Second),
		OutboundRPS:   getFloatEnv("OUTBOUND_RPS", 20),
		OutboundBurst: getIntEnv("OUTBOUND_BURST", 40),

		RazorpayKeyID:  getEnv("RAZORPAY_KEY_ID", getEnv("VITE_RAZORPAY_KEY_ID", "")),
		Currency:       getEnv("CURRENCY", "INR"),
		PaymentTimeout: getDurationEnv("PAYMENT_TIMEOUT", 15*time.Minute),

		MaxItemQuantity:          getIntEnv("MAX_ITEM_QUANTITY", 15),
		CouponEnforceUsageLimit:  getBoolEnv("COUPON_ENFORCE_USAGE_LIMIT", false),
		FailedPaymentOrderStatus: getEnv("FAILED_PAYMENT_ORDER_STATUS", "PENDING"),
	}
}

func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL (or VITE_BACKEND_URL) environment variable is required")
	}
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if c.MaxItemQuantity < 1 {
		return fmt.Errorf("MAX_ITEM_QUANTITY must be at least 1")
	}
	switch c.FailedPaymentOrderStatus {
	case "PENDING", "ON_THE_ROAD":
	default:
		return fmt.Errorf("FAILED_PAYMENT_ORDER_STATUS must be PENDING or ON_THE_ROAD")
	}
	if c.RazorpayKeyID == "" {
		log.Println("WARNING: RAZORPAY_KEY_ID not set. Online payments will be refused.")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
