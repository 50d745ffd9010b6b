package config

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds runtime defaults, loaded from environment variables.
// Command-line flags override them.
type Config struct {
	Workers     int    // concurrent files and frame ranges
	ChunkFrames int    // frames per parallel range
	LogLevel    string // logrus level name
	OutputDir   string // default output directory for batch conversion
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Workers:     envInt("WAVSTEREO_WORKERS", runtime.NumCPU()),
		ChunkFrames: envInt("WAVSTEREO_CHUNK_FRAMES", 1<<16),
		LogLevel:    envStr("WAVSTEREO_LOG_LEVEL", "info"),
		OutputDir:   envStr("WAVSTEREO_OUTPUT_DIR", "Converted"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
