package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrent   int
	FetchDelayMs    int
	FetchTimeoutSec int
	MaxRetries      int

	NotifyMode        string
	FilteredMode      string
	DistanceThreshold int
	TitleSimilarity   float64

	UseBrowser bool
	ChromeBin  string
	UserAgent  string

	SearchesPath  string
	CSVOutputPath string
	Debug         bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "watcher"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "watcher123"),
		PostgresDB:       getEnv("POSTGRES_DB", "suumo_watch"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrent:   getEnvInt("MAX_CONCURRENT", 3),
		FetchDelayMs:    getEnvInt("FETCH_DELAY_MS", 1000),
		FetchTimeoutSec: getEnvInt("FETCH_TIMEOUT_SEC", 30),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),

		NotifyMode:        getEnv("NOTIFY_MODE", "filtered"),
		FilteredMode:      getEnv("FILTERED_MODE", "normal"),
		DistanceThreshold: getEnvInt("DISTANCE_THRESHOLD_M", 0),
		TitleSimilarity:   getEnvFloat("TITLE_SIMILARITY", 0.78),

		UseBrowser: getEnvBool("USE_BROWSER", false),
		ChromeBin:  getEnv("CHROME_BIN", ""),
		UserAgent: getEnv("USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),

		SearchesPath:  getEnv("SEARCHES_PATH", "searches.yaml"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/new_listings.csv"),
		Debug:         getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
