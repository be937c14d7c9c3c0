package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Authority client modes.
const (
	AuthorityModeHTTP    = "http"
	AuthorityModeSandbox = "sandbox"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	StorageDriver      string
	MigrationsPath     string
	JWTSecret          string
	RateLimit          string
	CORSAllowedOrigins []string

	// Tax authority
	AuthorityURL         string
	AuthorityMode        string
	AuthorityTimeout     time.Duration
	AuthorityHTTPRetries int
	QRBaseURL            string

	// Submission worker
	SubmissionMaxAttempts  int
	SubmissionBackoffBase  time.Duration
	SubmissionBackoffMax   time.Duration
	SubmissionSweepCron    string
	SubmissionSweepBatch   int
	SubmissionSweepWorkers int
	SubmissionStaleAfter   time.Duration

	// Registration
	RegisterMaxRetries int

	// Connection pool
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnLifetime time.Duration
	DBMaxConnIdleTime time.Duration
	DBConnectTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORAGE_DRIVER", StoragePostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("AUTHORITY_URL", "")
	viper.SetDefault("AUTHORITY_MODE", AuthorityModeSandbox)
	viper.SetDefault("AUTHORITY_TIMEOUT", "30s")
	viper.SetDefault("AUTHORITY_HTTP_RETRIES", 2)
	viper.SetDefault("QR_BASE_URL", "https://prewww2.aeat.es/wlpl/TIKE-CONT/ValidarQR")
	viper.SetDefault("SUBMISSION_MAX_ATTEMPTS", 5)
	viper.SetDefault("SUBMISSION_BACKOFF_BASE", "1m")
	viper.SetDefault("SUBMISSION_BACKOFF_MAX", "1h")
	viper.SetDefault("SUBMISSION_SWEEP_CRON", "@every 1m")
	viper.SetDefault("SUBMISSION_SWEEP_BATCH", 100)
	viper.SetDefault("SUBMISSION_SWEEP_WORKERS", 4)
	viper.SetDefault("SUBMISSION_STALE_AFTER", "10m")
	viper.SetDefault("REGISTER_MAX_RETRIES", 5)
	viper.SetDefault("PGSQL_MAX_CONNS", 10)
	viper.SetDefault("PGSQL_MIN_CONNS", 0)
	viper.SetDefault("PGSQL_MAX_CONN_LIFETIME", "1h")
	viper.SetDefault("PGSQL_MAX_CONN_IDLE_TIME", "30m")
	viper.SetDefault("PGSQL_CONNECT_TIMEOUT", "5s")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:            viper.GetString("PGSQL_URL"),
		Port:                   viper.GetString("PORT"),
		IsProduction:           viper.GetBool("IS_PRODUCTION"),
		StorageDriver:          strings.ToLower(viper.GetString("STORAGE_DRIVER")),
		MigrationsPath:         viper.GetString("MIGRATIONS_PATH"),
		JWTSecret:              viper.GetString("JWT_SECRET"),
		RateLimit:              viper.GetString("RATE_LIMIT"),
		AuthorityURL:           viper.GetString("AUTHORITY_URL"),
		AuthorityMode:          strings.ToLower(viper.GetString("AUTHORITY_MODE")),
		AuthorityHTTPRetries:   viper.GetInt("AUTHORITY_HTTP_RETRIES"),
		QRBaseURL:              viper.GetString("QR_BASE_URL"),
		SubmissionMaxAttempts:  viper.GetInt("SUBMISSION_MAX_ATTEMPTS"),
		SubmissionSweepCron:    viper.GetString("SUBMISSION_SWEEP_CRON"),
		SubmissionSweepBatch:   viper.GetInt("SUBMISSION_SWEEP_BATCH"),
		SubmissionSweepWorkers: viper.GetInt("SUBMISSION_SWEEP_WORKERS"),
		RegisterMaxRetries:     viper.GetInt("REGISTER_MAX_RETRIES"),
		DBMaxConns:             viper.GetInt32("PGSQL_MAX_CONNS"),
		DBMinConns:             viper.GetInt32("PGSQL_MIN_CONNS"),
	}

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	cfg.AuthorityTimeout = durationOrDefault("AUTHORITY_TIMEOUT", 30*time.Second)
	cfg.SubmissionBackoffBase = durationOrDefault("SUBMISSION_BACKOFF_BASE", time.Minute)
	cfg.SubmissionBackoffMax = durationOrDefault("SUBMISSION_BACKOFF_MAX", time.Hour)
	cfg.SubmissionStaleAfter = durationOrDefault("SUBMISSION_STALE_AFTER", 10*time.Minute)
	cfg.DBMaxConnLifetime = durationOrDefault("PGSQL_MAX_CONN_LIFETIME", time.Hour)
	cfg.DBMaxConnIdleTime = durationOrDefault("PGSQL_MAX_CONN_IDLE_TIME", 30*time.Minute)
	cfg.DBConnectTimeout = durationOrDefault("PGSQL_CONNECT_TIMEOUT", 5*time.Second)

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StorageMemory:
		if cfg.IsProduction {
			log.Println("Warning: STORAGE_DRIVER=memory in production. Registry data will not survive a restart.")
		}
	default:
		log.Printf("Warning: unknown STORAGE_DRIVER '%s'. Defaulting to %s.\n", cfg.StorageDriver, StoragePostgres)
		cfg.StorageDriver = StoragePostgres
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	switch cfg.AuthorityMode {
	case AuthorityModeHTTP:
		if cfg.AuthorityURL == "" {
			log.Println("Warning: AUTHORITY_MODE=http but AUTHORITY_URL is not set. Falling back to sandbox.")
			cfg.AuthorityMode = AuthorityModeSandbox
		}
	case AuthorityModeSandbox:
	default:
		log.Printf("Warning: unknown AUTHORITY_MODE '%s'. Defaulting to %s.\n", cfg.AuthorityMode, AuthorityModeSandbox)
		cfg.AuthorityMode = AuthorityModeSandbox
	}

	if cfg.SubmissionMaxAttempts < 1 {
		log.Printf("Warning: SUBMISSION_MAX_ATTEMPTS must be >= 1, got %d. Defaulting to 5.\n", cfg.SubmissionMaxAttempts)
		cfg.SubmissionMaxAttempts = 5
	}
	if cfg.SubmissionSweepWorkers < 1 {
		cfg.SubmissionSweepWorkers = 1
	}
	if cfg.SubmissionSweepBatch < 1 {
		cfg.SubmissionSweepBatch = 100
	}
	if cfg.RegisterMaxRetries < 0 {
		log.Printf("Warning: REGISTER_MAX_RETRIES must be >= 0, got %d. Using 0.\n", cfg.RegisterMaxRetries)
		cfg.RegisterMaxRetries = 0
	}
	if cfg.DBMaxConns < 1 {
		log.Printf("Warning: PGSQL_MAX_CONNS must be >= 1, got %d. Defaulting to 10.\n", cfg.DBMaxConns)
		cfg.DBMaxConns = 10
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		cfg.DBMinConns = 0
	}

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}
