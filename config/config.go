package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string

	FRONTEND_URL string

	GOOGLE_CLIENT_ID         string
	GOOGLE_CLIENT_SECRET     string
	GOOGLE_REDIRECT_URL      string
	GOOGLE_FRONTEND_REDIRECT string

	// Efí PIX provider (billing)
	EFI_ENVIRONMENT   string // "sandbox" | "production"
	EFI_CLIENT_ID     string
	EFI_CLIENT_SECRET string
	EFI_PIX_KEY       string
	EFI_CERTIFICATE   string // base64 PEM bundle (cert + private key)

	PIX_WEBHOOK_SECRET string

	BILLING_GRACE_DAYS int
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")

	FRONTEND_URL = getEnv("FRONTEND_URL", "http://localhost:5173")

	GOOGLE_CLIENT_ID = mustEnv("GOOGLE_CLIENT_ID")
	GOOGLE_CLIENT_SECRET = mustEnv("GOOGLE_CLIENT_SECRET")
	GOOGLE_REDIRECT_URL = mustEnv("GOOGLE_REDIRECT_URL")
	GOOGLE_FRONTEND_REDIRECT = getEnv("GOOGLE_FRONTEND_REDIRECT", "")

	// Billing credentials are optional at boot: test_connection reports
	// missing/invalid values instead of refusing to start the whole app.
	EFI_ENVIRONMENT = getEnv("EFI_ENVIRONMENT", "sandbox")
	EFI_CLIENT_ID = getEnv("EFI_CLIENT_ID", "")
	EFI_CLIENT_SECRET = getEnv("EFI_CLIENT_SECRET", "")
	EFI_PIX_KEY = getEnv("EFI_PIX_KEY", "")
	EFI_CERTIFICATE = getEnv("EFI_CERTIFICATE", "")

	PIX_WEBHOOK_SECRET = getEnv("PIX_WEBHOOK_SECRET", "")

	BILLING_GRACE_DAYS = getEnvInt("BILLING_GRACE_DAYS", 3)
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %q", key, v)
	}
	return n
}
