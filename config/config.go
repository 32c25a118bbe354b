package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          string
	BaseURL       string // public base URL used in verification links
	MongoURI      string
	DBName        string
	JWTSecret     string
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	MailFrom      string
	MaxUploadMB   int64
}

func Load() (*Config, error) {
	maxMB := int64(10)
	if v := getEnv("MAX_UPLOAD_MB", "10"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	smtpPort := 587
	if v := getEnv("SMTP_PORT", "587"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			smtpPort = n
		}
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("MONGODB_DB", "bookify"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      smtpPort,
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		MailFrom:      getEnv("MAIL_FROM", "no-reply@bookify.app"),
		MaxUploadMB:   maxMB,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RequiredEnvVars are checked at startup; app exits if any are unset.
var RequiredEnvVars = []string{
	"MONGODB_URI",
	"MONGODB_DB",
	"JWT_SECRET",
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"BASE_URL",
	"AWS_S3_BUCKET",
	"AWS_REGION",
	"SMTP_HOST",
	"SMTP_PORT",
	"MAIL_FROM",
	"MAX_UPLOAD_MB",
}

// ValidateEnv checks that all required env vars are set and logs status of required + optional.
// Calls log.Fatal if any required var is missing.
func ValidateEnv() {
	var missing []string
	for _, key := range RequiredEnvVars {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		} else {
			log.Printf("env %s loaded", key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	for _, key := range OptionalEnvVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			log.Printf("env %s = %s", key, v)
		} else {
			log.Printf("env %s not set (optional)", key)
		}
	}
	if os.Getenv("JWT_SECRET") == "change-me-in-production" {
		log.Fatal("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
}
