package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// ServerHost is the public base URL the telephony provider calls back on.
	ServerHost string `mapstructure:"SERVER_HOST"`

	// Mongo configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// FHIR source of truth.
	FHIRAuthURL      string `mapstructure:"FHIR_AUTH_URL"`
	FHIRBaseURL      string `mapstructure:"FHIR_BASE_URL"`
	FHIRClientID     string `mapstructure:"FHIR_CLIENT_ID"`
	FHIRClientSecret string `mapstructure:"FHIR_CLIENT_SECRET"`
	FHIRUsername     string `mapstructure:"FHIR_USERNAME"`
	FHIRPassword     string `mapstructure:"FHIR_PASSWORD"`

	// Twilio telephony.
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`

	// Speech synthesis. TTSProvider selects "elevenlabs" or "google".
	TTSProvider        string `mapstructure:"TTS_PROVIDER"`
	ElevenLabsAPIKey   string `mapstructure:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID  string `mapstructure:"ELEVENLABS_VOICE_ID"`
	GoogleCredentials  string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	GoogleTTSVoiceName string `mapstructure:"GOOGLE_TTS_VOICE_NAME"`

	// Clinical timezone for call-history civil timestamps.
	Timezone string `mapstructure:"TIMEZONE"`

	// Resolver and tracker tuning.
	SyncIntervalMinutes int `mapstructure:"SYNC_INTERVAL_MINUTES"`
	SyncWorkers         int `mapstructure:"SYNC_WORKERS"`
	PollIntervalSeconds int `mapstructure:"POLL_INTERVAL_SECONDS"`
	PollMaxAttempts     int `mapstructure:"POLL_MAX_ATTEMPTS"`
	SessionTTLMinutes   int `mapstructure:"SESSION_TTL_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("SERVER_HOST", "http://localhost:8080")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "asignaciones")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("FHIR_AUTH_URL", "https://auth.cegconsultores.cl/realms/fhir/protocol/openid-connect/token")
	viper.SetDefault("FHIR_BASE_URL", "https://fhir.cegconsultores.cl/fhir")
	viper.SetDefault("TTS_PROVIDER", "elevenlabs")
	viper.SetDefault("ELEVENLABS_VOICE_ID", "GJid0jgRsqjUy21Avuex")
	viper.SetDefault("GOOGLE_TTS_VOICE_NAME", "es-US-Neural2-A")
	viper.SetDefault("TIMEZONE", "America/Santiago")
	viper.SetDefault("SYNC_INTERVAL_MINUTES", 30)
	viper.SetDefault("SYNC_WORKERS", 4)
	viper.SetDefault("POLL_INTERVAL_SECONDS", 2)
	viper.SetDefault("POLL_MAX_ATTEMPTS", 30)
	viper.SetDefault("SESSION_TTL_MINUTES", 15)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
