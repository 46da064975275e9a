package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Notifications NotificationsConfig
	Donations     DonationsConfig
	Audio         AudioConfig
	Midtrans      MidtransConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// NotificationsConfig tunes the dispatch queue and stats caching.
type NotificationsConfig struct {
	DispatchWorkers    int
	DispatchBufferSize int
	DispatchRetries    int
	DispatchRetryDelay time.Duration
	StatsCacheTTL      time.Duration
}

// DonationsConfig governs donation exports.
type DonationsConfig struct {
	ExportDir string
}

// AudioConfig controls hafalan audio storage and signed downloads.
type AudioConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	MaxFileSize     int64
}

// MidtransConfig holds the snap gateway credentials.
type MidtransConfig struct {
	ServerKey  string
	Production bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Notifications = NotificationsConfig{
		DispatchWorkers:    v.GetInt("NOTIFICATION_DISPATCH_WORKERS"),
		DispatchBufferSize: v.GetInt("NOTIFICATION_DISPATCH_BUFFER"),
		DispatchRetries:    v.GetInt("NOTIFICATION_DISPATCH_RETRIES"),
		DispatchRetryDelay: parseDuration(v.GetString("NOTIFICATION_DISPATCH_RETRY_DELAY"), 5*time.Second),
		StatsCacheTTL:      parseDuration(v.GetString("NOTIFICATION_STATS_CACHE_TTL"), time.Minute),
	}

	cfg.Donations = DonationsConfig{
		ExportDir: v.GetString("DONATION_EXPORT_DIR"),
	}

	maxAudioSize := v.GetInt64("AUDIO_MAX_FILE_SIZE")
	if maxAudioSize <= 0 {
		maxAudioSize = 25 * 1024 * 1024
	}
	cfg.Audio = AudioConfig{
		StorageDir:      v.GetString("AUDIO_STORAGE_DIR"),
		SignedURLSecret: v.GetString("AUDIO_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("AUDIO_SIGNED_URL_TTL"), time.Hour),
		MaxFileSize:     maxAudioSize,
	}

	cfg.Midtrans = MidtransConfig{
		ServerKey:  v.GetString("MIDTRANS_SERVER_KEY"),
		Production: v.GetBool("MIDTRANS_PRODUCTION"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pesantren_adm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("NOTIFICATION_DISPATCH_WORKERS", 2)
	v.SetDefault("NOTIFICATION_DISPATCH_BUFFER", 64)
	v.SetDefault("NOTIFICATION_DISPATCH_RETRIES", 3)
	v.SetDefault("NOTIFICATION_DISPATCH_RETRY_DELAY", "5s")
	v.SetDefault("NOTIFICATION_STATS_CACHE_TTL", "1m")

	v.SetDefault("DONATION_EXPORT_DIR", "./exports")

	v.SetDefault("AUDIO_STORAGE_DIR", "./audio")
	v.SetDefault("AUDIO_SIGNED_URL_SECRET", "dev_audio_secret")
	v.SetDefault("AUDIO_SIGNED_URL_TTL", "1h")
	v.SetDefault("AUDIO_MAX_FILE_SIZE", 25*1024*1024)

	v.SetDefault("MIDTRANS_SERVER_KEY", "")
	v.SetDefault("MIDTRANS_PRODUCTION", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
