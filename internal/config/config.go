package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Extractor ExtractorConfig
	Transcode TranscodeConfig
	Download  DownloadConfig
	S3        S3Config
	CORS      CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type ExtractorConfig struct {
	YTDLPPath     string
	Proxy         string
	YouTubeNative bool
	ProbeTimeout  time.Duration
	ProbeRetries  int
	FetchTimeout  time.Duration
}

type TranscodeConfig struct {
	FFmpegPath       string
	Timeout          time.Duration
	AudioBitrateKbps int
}

type DownloadConfig struct {
	TempDir            string
	MaxFileSize        int64
	AudioPairingPolicy string
	LinkExpiry         time.Duration
}

// S3Config is optional; an empty BucketName disables link delivery.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	EndpointURL     string
}

func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
	Profile          string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8000")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Extractor configuration
	cfg.Extractor.YTDLPPath = getEnv("YTDLP_PATH", "")
	cfg.Extractor.Proxy = getEnv("YTDLP_PROXY", "")
	cfg.Extractor.YouTubeNative = getEnvBool("YOUTUBE_NATIVE", false)
	cfg.Extractor.ProbeRetries = getEnvInt("PROBE_RETRIES", 2)
	probeTimeout, err := time.ParseDuration(getEnv("PROBE_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROBE_TIMEOUT: %w", err)
	}
	cfg.Extractor.ProbeTimeout = probeTimeout
	fetchTimeout, err := time.ParseDuration(getEnv("FETCH_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	cfg.Extractor.FetchTimeout = fetchTimeout

	// Transcode configuration
	cfg.Transcode.FFmpegPath = getEnv("FFMPEG_PATH", "ffmpeg")
	cfg.Transcode.AudioBitrateKbps = getEnvInt("AUDIO_BITRATE_KBPS", 320)
	transcodeTimeout, err := time.ParseDuration(getEnv("TRANSCODE_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSCODE_TIMEOUT: %w", err)
	}
	cfg.Transcode.Timeout = transcodeTimeout

	// Download configuration
	cfg.Download.TempDir = getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "vidgrab"))
	cfg.Download.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", 2*1024*1024*1024) // 2GB default
	cfg.Download.AudioPairingPolicy = getEnv("AUDIO_PAIRING_POLICY", "highest-bitrate")
	linkExpiry, err := time.ParseDuration(getEnv("LINK_EXPIRY", "60m"))
	if err != nil {
		return nil, fmt.Errorf("invalid LINK_EXPIRY: %w", err)
	}
	cfg.Download.LinkExpiry = linkExpiry

	// S3 configuration (optional, enables /download/link)
	cfg.S3.Region = getEnv("AWS_REGION", "us-east-1")
	cfg.S3.BucketName = getEnv("S3_BUCKET_NAME", "")
	cfg.S3.EndpointURL = getEnv("AWS_ENDPOINT_URL", "") // Optional for LocalStack
	cfg.S3.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.S3.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	if cfg.S3.Enabled() && (cfg.S3.AccessKeyID == "" || cfg.S3.SecretAccessKey == "") {
		return nil, fmt.Errorf("S3_BUCKET_NAME is set but AWS credentials are missing")
	}

	// CORS configuration
	cfg.CORS = loadCORSConfig()

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(strings.TrimSpace(value), ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// loadCORSConfig loads CORS configuration based on profile or custom settings
func loadCORSConfig() CORSConfig {
	profile := getEnv("CORS_PROFILE", "public")

	switch profile {
	case "development":
		return getDevelopmentCORSConfig()
	case "custom":
		return getCustomCORSConfig()
	default:
		return getPublicCORSConfig()
	}
}

// getPublicCORSConfig allows any origin; the API carries no credentials.
func getPublicCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:        getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "X-Correlation-ID",
		}),
		ExposedHeaders: getEnvStringSlice("CORS_EXPOSED_HEADERS", []string{
			"Content-Disposition", "Content-Length", "X-Request-ID", "X-Correlation-ID",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
		Profile:          "public",
	}
}

// getDevelopmentCORSConfig returns permissive CORS settings for development
func getDevelopmentCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled: getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8000",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:8000",
		}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Correlation-ID",
		}),
		ExposedHeaders: getEnvStringSlice("CORS_EXPOSED_HEADERS", []string{
			"Content-Disposition", "Content-Length", "X-Request-ID", "X-Correlation-ID",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 86400),
		Profile:          "development",
	}
}

// getCustomCORSConfig returns CORS settings from individual environment variables
func getCustomCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled: getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
		}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept",
		}),
		ExposedHeaders:   getEnvStringSlice("CORS_EXPOSED_HEADERS", []string{"Content-Disposition"}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
		Profile:          "custom",
	}
}
