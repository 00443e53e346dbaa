package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process settings read from the environment.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	ShutdownTimeout time.Duration

	AWSRegion      string
	AWSEndpointURL string

	S3MaxKeys        int32
	S3ForcePathStyle bool

	RedisAddr         string
	DetectionCacheTTL time.Duration
}

// CacheEnabled reports whether detection results should be cached in Redis.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads configuration from the environment. When dotEnvPath is not
// empty the file is loaded first; a missing file is not an error and
// variables already present in the environment win.
func Load(dotEnvPath string) (Config, error) {
	if dotEnvPath != "" {
		if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	maxKeys, err := getEnvInt("S3_MAX_KEYS", 1000)
	if err != nil {
		return Config{}, err
	}
	if maxKeys <= 0 || maxKeys > 1000 {
		maxKeys = 1000
	}
	pathStyle, err := getEnvBool("S3_FORCE_PATH_STYLE", false)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := getEnvDuration("DETECTION_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	shutdown, err := getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:   shutdown,
		AWSRegion:         os.Getenv("AWS_REGION"),
		AWSEndpointURL:    os.Getenv("AWS_ENDPOINT_URL"),
		S3MaxKeys:         int32(maxKeys),
		S3ForcePathStyle:  pathStyle,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		DetectionCacheTTL: cacheTTL,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &Error{Key: key, Value: value, Err: err}
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &Error{Key: key, Value: value, Err: err}
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &Error{Key: key, Value: value, Err: err}
	}
	return d, nil
}

// Error reports an environment variable that could not be parsed.
type Error struct {
	Key   string
	Value string
	Err   error
}

func (e *Error) Error() string {
	return "config: invalid " + e.Key + "=" + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
