package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	// Tickets are signed with their own key so a session token can never be
	// presented as a verification ticket, or the other way around.
	TicketKey []byte
	TicketTTL time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CFAPIBaseURL      string
	CFAPITimeout      time.Duration
	CFSubmissionsPage int
	ProblemPoolTTL    time.Duration
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:   getEnv("API_PORT", "8080"),
		JWTKey:    []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:    time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		TicketKey: []byte(getEnv("VERIFY_TICKET_SECRET", "defaultticketsecret")),
		TicketTTL: time.Duration(getEnvAsInt("VERIFY_PROBLEM_TIMELIMIT_SECONDS", 300)) * time.Second,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "cf_coach_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		CFAPIBaseURL:      getEnv("CF_API_BASE_URL", "https://codeforces.com/api"),
		CFAPITimeout:      time.Duration(getEnvAsInt("CF_API_TIMEOUT_SECONDS", 15)) * time.Second,
		CFSubmissionsPage: getEnvAsInt("CF_SUBMISSIONS_PAGE_SIZE", 1000),
		ProblemPoolTTL:    time.Duration(getEnvAsInt("PROBLEM_POOL_TTL_MINUTES", 60)) * time.Minute,
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
