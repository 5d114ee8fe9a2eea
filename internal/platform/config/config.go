package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                 string
	DatabaseURL          string
	JWTSecret            string
	Environment          string
	AllowedOrigins       []string
	RunMigrations        bool
	MigrationsDir        string
	SeedOperatorEmail    string
	SeedOperatorPassword string
	GenerationTimeout    time.Duration
	GenerationWorkers    int
	OvertimeThreshold    float64
	OvertimeWeekStart    time.Weekday
	HoursPerDay          float64
	WorkDaysPerMonth     float64
	MetricsEnabled       bool
}

func Load() Config {
	return Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		Environment:          getEnv("APP_ENV", "development"),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RunMigrations:        getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:        getEnv("MIGRATIONS_DIR", "migrations"),
		SeedOperatorEmail:    getEnv("SEED_OPERATOR_EMAIL", ""),
		SeedOperatorPassword: getEnv("SEED_OPERATOR_PASSWORD", ""),
		GenerationTimeout:    getEnvDuration("GENERATION_TIMEOUT", 2*time.Minute),
		GenerationWorkers:    getEnvInt("GENERATION_WORKERS", 8),
		OvertimeThreshold:    getEnvFloat("OVERTIME_THRESHOLD_HOURS", 40),
		OvertimeWeekStart:    parseWeekday(getEnv("OVERTIME_WEEK_START", "Monday")),
		HoursPerDay:          getEnvFloat("HOURS_PER_DAY", 8),
		WorkDaysPerMonth:     getEnvFloat("WORK_DAYS_PER_MONTH", 22),
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.GenerationWorkers <= 0 {
		return fmt.Errorf("GENERATION_WORKERS must be positive")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.OvertimeThreshold < 0 {
		return fmt.Errorf("OVERTIME_THRESHOLD_HOURS must not be negative")
	}
	if c.HoursPerDay <= 0 {
		return fmt.Errorf("HOURS_PER_DAY must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseWeekday(value string) time.Weekday {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sunday":
		return time.Sunday
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	}
	return time.Monday
}
