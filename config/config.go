package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Name        string
	Version     string
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	Auth        AuthConfig
	S3          S3Config
	Chat        ChatConfig
	Presence    PresenceConfig
	Video       VideoConfig
	Lawyers     LawyersConfig
	Realtime    RealtimeConfig
	Log         LogConfig
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxHeaderMB  int
}

type PostgresConfig struct {
	Host               string
	Port               string
	Username           string
	Password           string
	DBName             string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	MaxLifetime        time.Duration
	MigrationsDir      string
}

// AuthConfig selects how bearer tokens issued by the identity provider are verified.
type AuthConfig struct {
	Provider                string // jwt | firebase
	JWTSigningKey           string
	FirebaseProjectID       string
	FirebaseCredentialsFile string
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	PublicBaseURL   string
}

type ChatConfig struct {
	MaxFileSize      int64
	AllowedFileTypes []string
}

type PresenceConfig struct {
	QueryChunkSize int
	StaleAfter     time.Duration
	SweepSchedule  string
}

type VideoConfig struct {
	AppID              string
	TokenSigningKey    string
	TokenTTL           time.Duration
	TokenRenewBefore   time.Duration
	ChannelNameMaxLen  int
	RecentSessionLimit int
}

type LawyersConfig struct {
	FetchTimeout time.Duration
	FetchRetries int
	ListLimit    int
}

type RealtimeConfig struct {
	Driver  string // postgres | local
	Channel string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func NewConfig() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	httpReadTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	httpWriteTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	postgresMaxLifetime, err := getEnvAsDuration("POSTGRES_MAX_LIFETIME", "5m")
	if err != nil {
		return nil, err
	}

	presenceStaleAfter, err := getEnvAsDuration("PRESENCE_STALE_AFTER", "5m")
	if err != nil {
		return nil, err
	}

	videoTokenTTL, err := getEnvAsDuration("VIDEO_TOKEN_TTL", "1h")
	if err != nil {
		return nil, err
	}

	videoTokenRenewBefore, err := getEnvAsDuration("VIDEO_TOKEN_RENEW_BEFORE", "5m")
	if err != nil {
		return nil, err
	}

	lawyerFetchTimeout, err := getEnvAsDuration("LAWYER_FETCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Name:        getEnv("APP_NAME", "legalport"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		HTTP: HTTPConfig{
			Port:         getEnv("HTTP_PORT", "8080"),
			ReadTimeout:  httpReadTimeout,
			WriteTimeout: httpWriteTimeout,
			MaxHeaderMB:  getEnvAsInt("HTTP_MAX_HEADER_MB", 1),
		},
		Postgres: PostgresConfig{
			Host:               getEnv("POSTGRES_HOST", "localhost"),
			Port:               getEnv("POSTGRES_PORT", "5432"),
			Username:           getEnv("POSTGRES_USER", "postgres"),
			Password:           getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:             getEnv("POSTGRES_DB", "legalport"),
			SSLMode:            getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConnections:     getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("POSTGRES_MAX_IDLE_CONNECTIONS", 5),
			MaxLifetime:        postgresMaxLifetime,
			MigrationsDir:      getEnv("POSTGRES_MIGRATIONS_DIR", "./migrations"),
		},
		Auth: AuthConfig{
			Provider:                getEnv("AUTH_PROVIDER", "jwt"),
			JWTSigningKey:           getEnv("JWT_SIGNING_KEY", "your_secret_key"),
			FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", "legalport"),
			UseSSL:          getEnv("S3_USE_SSL", "true") == "true",
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Chat: ChatConfig{
			MaxFileSize:      int64(getEnvAsInt("CHAT_MAX_FILE_SIZE_MB", 10)) << 20,
			AllowedFileTypes: getEnvAsList("CHAT_ALLOWED_FILE_TYPES", "image/*,application/pdf"),
		},
		Presence: PresenceConfig{
			QueryChunkSize: getEnvAsInt("PRESENCE_QUERY_CHUNK", 10),
			StaleAfter:     presenceStaleAfter,
			SweepSchedule:  getEnv("PRESENCE_SWEEP_SCHEDULE", "@every 1m"),
		},
		Video: VideoConfig{
			AppID:              getEnv("VIDEO_APP_ID", ""),
			TokenSigningKey:    getEnv("VIDEO_TOKEN_SIGNING_KEY", "your_video_secret"),
			TokenTTL:           videoTokenTTL,
			TokenRenewBefore:   videoTokenRenewBefore,
			ChannelNameMaxLen:  getEnvAsInt("VIDEO_CHANNEL_MAX_LEN", 64),
			RecentSessionLimit: getEnvAsInt("VIDEO_RECENT_SESSION_LIMIT", 10),
		},
		Lawyers: LawyersConfig{
			FetchTimeout: lawyerFetchTimeout,
			FetchRetries: getEnvAsInt("LAWYER_FETCH_RETRIES", 1),
			ListLimit:    getEnvAsInt("LAWYER_LIST_LIMIT", 100),
		},
		Realtime: RealtimeConfig{
			Driver:  getEnv("REALTIME_DRIVER", "postgres"),
			Channel: getEnv("REALTIME_CHANNEL", "legalport_changes"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
	}

	if cfg.Auth.Provider != "jwt" && cfg.Auth.Provider != "firebase" {
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.Auth.Provider)
	}
	if cfg.Realtime.Driver != "postgres" && cfg.Realtime.Driver != "local" {
		return nil, fmt.Errorf("unknown REALTIME_DRIVER %q", cfg.Realtime.Driver)
	}
	if cfg.Presence.QueryChunkSize <= 0 {
		cfg.Presence.QueryChunkSize = 10
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value := 0
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
