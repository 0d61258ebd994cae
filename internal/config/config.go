package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NATSStatusSubject      string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	EvaluationCacheTTL     time.Duration
	UploadMaxSizeMB        int
	UploadMaxFiles         int
	OpenAIAPIKey           string
	OpenAIPrimaryModel     string
	OpenAIEvaluationModel  string
	OpenAIFastModel        string
	OpenAIVisionModel      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("WRITERIGHT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "WriteRight API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.status_subject", "writeright.submissions.status")
	v.SetDefault("cloudinary.folder", "writeright/submissions")
	v.SetDefault("evaluation.cache_ttl", "5m")
	v.SetDefault("upload.max_size_mb", 20)
	v.SetDefault("upload.max_files", 10)
	v.SetDefault("openai.primary_model", "gpt-4o")
	v.SetDefault("openai.evaluation_model", "gpt-4o")
	v.SetDefault("openai.fast_model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o")

	ttlString := v.GetString("evaluation.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid evaluation cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSStatusSubject:      v.GetString("nats.status_subject"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		EvaluationCacheTTL:     ttl,
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		UploadMaxFiles:         v.GetInt("upload.max_files"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIPrimaryModel:     v.GetString("openai.primary_model"),
		OpenAIEvaluationModel:  v.GetString("openai.evaluation_model"),
		OpenAIFastModel:        v.GetString("openai.fast_model"),
		OpenAIVisionModel:      v.GetString("openai.vision_model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 20
	}

	if cfg.UploadMaxFiles <= 0 {
		cfg.UploadMaxFiles = 10
	}

	return cfg, nil
}
