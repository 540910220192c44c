package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// FacebookConfig holds the Graph API credentials and client settings
type FacebookConfig struct {
	AppID        string
	AppSecret    string
	AccessToken  string
	APIVersion   string
	BaseURL      string
	PageID       string
	VerifyToken  string
	Timeout      time.Duration
	MaxRetries   int
	DemoFallback bool
}

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	Facebook                FacebookConfig
	PollInterval            time.Duration
	SessionSecret           string
	SessionTTL              time.Duration
	AuthRequired            bool
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RabbitMQURL             string
	MetricsPort             string
	RateLimitWindow         time.Duration
	RateLimitMaxRequests    int
	PublicDir               string
	SeedDemoData            bool
}

// Load reads configuration from the environment, loading .env first when present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	env := getEnv("ENV", getEnv("NODE_ENV", "development"))
	development := env == "development"

	return &Config{
		Port:     getEnv("PORT", "3000"),
		Env:      env,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Facebook: FacebookConfig{
			AppID:        getEnv("FACEBOOK_APP_ID", ""),
			AppSecret:    getEnv("FACEBOOK_APP_SECRET", ""),
			AccessToken:  getEnv("FACEBOOK_ACCESS_TOKEN", ""),
			APIVersion:   getEnv("FACEBOOK_API_VERSION", "v18.0"),
			BaseURL:      getEnv("GRAPH_BASE_URL", "https://graph.facebook.com"),
			PageID:       getEnv("FACEBOOK_PAGE_ID", ""),
			VerifyToken:  getEnv("FACEBOOK_VERIFY_TOKEN", ""),
			Timeout:      getEnvDuration("GRAPH_TIMEOUT", 10*time.Second),
			MaxRetries:   getEnvInt("GRAPH_MAX_RETRIES", 2),
			DemoFallback: getEnvBool("GRAPH_DEMO_FALLBACK", development),
		},
		PollInterval:            getEnvDuration("POLL_INTERVAL", 0),
		SessionSecret:           getEnv("SESSION_SECRET", ""),
		SessionTTL:              getEnvDuration("SESSION_TTL", 24*time.Hour),
		AuthRequired:            getEnvBool("AUTH_REQUIRED", false),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "comment_desk"),
		RabbitMQURL:             getEnv("RABBITMQ_URL", ""),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		RateLimitWindow:         getEnvDuration("RATE_LIMIT_WINDOW_MS", 15*time.Minute),
		RateLimitMaxRequests:    getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		PublicDir:               getEnv("PUBLIC_DIR", ""),
		SeedDemoData:            getEnvBool("SEED_DEMO_DATA", development),
	}
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("30s") or a bare number of
// milliseconds, the form the rate limit window has always been configured in.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
