package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	KernelURL string
	ToolToken string

	// Стыковка стен
	JoineryTolerance float64
	JointStyle       string
	OverlapEpsilon   float64
	SettleWindow     time.Duration
	SettleInterval   time.Duration

	DBPath        string
	TemplatesPath string

	NATSURL     string
	NATSSubject string
}

// Load загружает конфигурацию из переменных окружения.
// Файл .env (если есть) подмешивается, но не перекрывает уже заданные переменные.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] .env: %v", err)
	}

	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		KernelURL: getEnv("KERNEL_URL", "http://localhost:3001"),
		ToolToken: getEnv("TOOL_TOKEN", ""),

		JoineryTolerance: getEnvAsFloat("JOINERY_TOLERANCE", 0.2),
		JointStyle:       getEnv("JOINT_STYLE", "auto"),
		OverlapEpsilon:   getEnvAsFloat("OVERLAP_EPSILON", 0.001),
		SettleWindow:     time.Duration(getEnvAsInt("SETTLE_WINDOW_MS", 300)) * time.Millisecond,
		SettleInterval:   time.Duration(getEnvAsInt("SETTLE_INTERVAL_MS", 100)) * time.Millisecond,

		DBPath:        getEnv("DB_PATH", "data/db/plans.db"),
		TemplatesPath: getEnv("TEMPLATES_PATH", ""),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "plan.geometry"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
