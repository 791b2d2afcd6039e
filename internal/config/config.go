package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	ServerPort string

	JWTSecret string
	JWTExpiry time.Duration

	CORSOrigins []string
	RedisURL    string
	CacheTTL    time.Duration

	AdminToken           string
	ActivityWipeInterval time.Duration
	ResetInterval        time.Duration

	GeneratorURL     string
	GeneratorTimeout time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5431"),
		DBUser:     getEnv("DB_USER", "taskboard_user"),
		DBPassword: getEnv("DB_PASSWORD", "taskboard_pass"),
		DBName:     getEnv("DB_NAME", "taskboard_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry: time.Duration(getInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,

		CORSOrigins: getList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		RedisURL:    getEnv("REDIS_URL", ""),
		CacheTTL:    getDuration("BOARD_CACHE_TTL", 5*time.Minute),

		AdminToken:           getEnv("ADMIN_TOKEN", ""),
		ActivityWipeInterval: getDuration("ACTIVITY_WIPE_INTERVAL", 0),
		ResetInterval:        getDuration("RESET_INTERVAL", 0),

		GeneratorURL:     getEnv("GENERATOR_URL", ""),
		GeneratorTimeout: getDuration("GENERATOR_TIMEOUT", 60*time.Second),
	}
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number, using %d", key, raw, defaultVal)
		return defaultVal
	}
	return n
}

// getDuration treats "0" and an empty value as zero, which disables the
// interval based settings.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	if raw == "" || raw == "0" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("⚠️  %s=%q is not a valid duration, using %s", key, raw, defaultVal)
		return defaultVal
	}
	return d
}

func getList(key string, defaultVal []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
