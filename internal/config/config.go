package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/detection"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataFile    = "Friday-WorkingHours-Afternoon-DDos.pcap_ISCX.csv"
	DefaultMaxRows     = 20000
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.5
)

// Config holds all configuration for the dashboard server.
type Config struct {
	// HTTP
	HTTPAddr string
	WebDir   string

	// Dataset
	DataFile string
	MaxRows  int

	// Redis connection, empty address keeps sessions in memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// Explanation
	GroqAPIKey     string
	GroqBaseURL    string
	GroqModel      string
	Temperature    float32
	ExplainTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	Thresholds detection.Thresholds
}

// TuningFile is the optional YAML file named by DETECTION_CONFIG.
type TuningFile struct {
	Detection detection.Thresholds `yaml:"detection"`
	Explain   struct {
		Model       string   `yaml:"model"`
		Temperature *float32 `yaml:"temperature"`
	} `yaml:"explain"`
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded config from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Printf("No .env file found, using environment variables")
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	config := &Config{
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8888"),
		WebDir:   getEnvOrDefault("WEB_DIR", "./web"),

		DataFile: getEnvOrDefault("DATA_FILE", DefaultDataFile),
		MaxRows:  parseIntOrDefault("MAX_ROWS", DefaultMaxRows),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseIntOrDefault("REDIS_DB", 0),
		SessionTTL:    parseDurationOrDefault("SESSION_TTL", 24*time.Hour),

		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:    getEnvOrDefault("GROQ_BASE_URL", DefaultGroqBaseURL),
		GroqModel:      getEnvOrDefault("GROQ_MODEL", DefaultGroqModel),
		Temperature:    float32(parseFloatOrDefault("GROQ_TEMPERATURE", DefaultTemperature)),
		ExplainTimeout: parseDurationOrDefault("EXPLAIN_TIMEOUT", 30*time.Second),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "console"),

		Thresholds: detection.DefaultThresholds(),
	}

	if path := os.Getenv("DETECTION_CONFIG"); path != "" {
		if err := config.applyTuningFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyTuningFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read DETECTION_CONFIG: %w", err)
	}

	var tf TuningFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return fmt.Errorf("failed to parse DETECTION_CONFIG: %w", err)
	}

	if tf.Detection.ZScore != 0 {
		c.Thresholds.ZScore = tf.Detection.ZScore
	}
	if tf.Detection.AttackFraction != 0 {
		c.Thresholds.AttackFraction = tf.Detection.AttackFraction
	}
	if tf.Explain.Model != "" {
		c.GroqModel = tf.Explain.Model
	}
	if tf.Explain.Temperature != nil {
		c.Temperature = *tf.Explain.Temperature
	}

	return nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}

	if c.DataFile == "" {
		return fmt.Errorf("DATA_FILE is required")
	}

	if c.MaxRows < 0 {
		return fmt.Errorf("MAX_ROWS must not be negative")
	}

	if c.Thresholds.ZScore <= 0 {
		return fmt.Errorf("detection z_score must be positive")
	}

	if c.Thresholds.AttackFraction <= 0 || c.Thresholds.AttackFraction >= 1 {
		return fmt.Errorf("detection attack_fraction must be in (0, 1)")
	}

	// go-openai omits a zero temperature from the request
	if c.Temperature <= 0 || c.Temperature > 2 {
		return fmt.Errorf("GROQ_TEMPERATURE must be in (0, 2]")
	}

	return nil
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
