package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabasePath string
	LineWidth    int
	ExportDir    string
	ImportDir    string
	DeepLAPIURL  string
	DeepLAPIKey  string
	WorkerCount  int
	MTBatchSize  int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables only")
	}

	return &Config{
		DatabasePath: getEnv("DEEPLUNA_DB", "database.json"),
		LineWidth:    getEnvInt("DEEPLUNA_LINE_WIDTH", 55),
		ExportDir:    getEnv("DEEPLUNA_EXPORT_DIR", "export"),
		ImportDir:    getEnv("DEEPLUNA_IMPORT_DIR", "import"),
		DeepLAPIURL:  getEnv("DEEPL_API_URL", ""),
		DeepLAPIKey:  getEnv("DEEPL_API_KEY", ""),
		WorkerCount:  getEnvInt("WORKER_COUNT", 8),
		MTBatchSize:  getEnvInt("DEEPLUNA_MT_BATCH", 25),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
