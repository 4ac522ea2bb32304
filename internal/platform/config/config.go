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

	RefreshExp         time.Duration
	RefreshExpRemember time.Duration

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

	CORSAllowedOrigins []string

	// Upstream sync tuning. Defaults mirror what the unofficial judge
	// APIs have been observed to tolerate.
	SyncMaxAttempts    int
	SyncAttemptTimeout time.Duration
	SyncBackoff        time.Duration
	SyncBatchSize      int
	SyncBatchDelay     time.Duration

	LeaderboardCacheTTL time.Duration
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		JWTKey:             []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:             time.Duration(getEnvAsInt("JWT_EXPIRATION_MINUTES", 60)) * time.Minute,
		RefreshExp:         time.Duration(getEnvAsInt("REFRESH_EXPIRATION_DAYS", 7)) * 24 * time.Hour,
		RefreshExpRemember: time.Duration(getEnvAsInt("REFRESH_EXPIRATION_REMEMBER_DAYS", 30)) * 24 * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "dsatrack_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		CORSAllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")},

		SyncMaxAttempts:    getEnvAsInt("SYNC_MAX_ATTEMPTS", 3),
		SyncAttemptTimeout: time.Duration(getEnvAsInt("SYNC_ATTEMPT_TIMEOUT_MS", 10000)) * time.Millisecond,
		SyncBackoff:        time.Duration(getEnvAsInt("SYNC_BACKOFF_MS", 2000)) * time.Millisecond,
		SyncBatchSize:      getEnvAsInt("SYNC_BATCH_SIZE", 5),
		SyncBatchDelay:     time.Duration(getEnvAsInt("SYNC_BATCH_DELAY_MS", 2000)) * time.Millisecond,

		LeaderboardCacheTTL: time.Duration(getEnvAsInt("LEADERBOARD_CACHE_TTL_SECONDS", 60)) * time.Second,
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
