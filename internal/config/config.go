package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port            string
	DBConn          string
	LogLevel        string
	JWTSecret       string
	CBRURL          string
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SenderEmail     string
	ReminderEmail   string
	ClosureSchedule string
	RetentionDays   int
	ClosureRetries  int
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=finance sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		CBRURL:          getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", ""),
		ReminderEmail:   getEnv("REMINDER_EMAIL", ""),
		ClosureSchedule: getEnv("CLOSURE_SCHEDULE", "@daily"),
	}

	retention, err := strconv.Atoi(getEnv("NOTIFICATION_RETENTION_DAYS", "30"))
	if err != nil || retention <= 0 {
		return nil, fmt.Errorf("invalid NOTIFICATION_RETENTION_DAYS: %q", getEnv("NOTIFICATION_RETENTION_DAYS", "30"))
	}
	cfg.RetentionDays = retention

	retries, err := strconv.Atoi(getEnv("CLOSURE_RETRIES", "3"))
	if err != nil || retries <= 0 {
		return nil, fmt.Errorf("invalid CLOSURE_RETRIES: %q", getEnv("CLOSURE_RETRIES", "3"))
	}
	cfg.ClosureRetries = retries

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
