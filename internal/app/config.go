package app

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config collects every knob the service reads at startup. Constructors take
// it explicitly; nothing else reads the environment after LoadConfig.
type Config struct {
	SpreadsheetSpecs string
	CredentialsFile  string

	DBDriver string // sqlite or mysql
	DBPath   string // sqlite file
	DBHost   string
	DBPort   int
	DBUser   string
	DBPass   string
	DBName   string

	SyncInterval time.Duration
	FetchTimeout time.Duration
	FetchRetries int
	AutoStart    bool

	Port int

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	NtfyEnabled  bool
	NtfyURL      string
	NtfyTopic    string
	NtfyPriority string
}

// LoadConfig reads the full configuration from the environment.
func LoadConfig() Config {
	return Config{
		SpreadsheetSpecs: GetRequiredEnv("SPREADSHEETS"),
		CredentialsFile:  GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		DBDriver: GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBPath:   GetEnvWithDefault("DB_PATH", "survey_pipeline.db"),
		DBHost:   GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:   getEnvInt("DB_PORT", 3306),
		DBUser:   os.Getenv("DB_USER"),
		DBPass:   os.Getenv("DB_PASS"),
		DBName:   GetEnvWithDefault("DB_NAME", "survey_pipeline"),

		SyncInterval: time.Duration(getEnvInt("SYNC_INTERVAL_SECONDS", 300)) * time.Second,
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchRetries: getEnvInt("FETCH_RETRIES", 2),
		AutoStart:    GetEnvWithDefault("SYNC_AUTOSTART", "true") == "true",

		Port: getEnvInt("PORT", 8080),

		LLMBaseURL: GetEnvWithDefault("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   os.Getenv("LLM_MODEL"),

		NtfyEnabled:  GetEnvWithDefault("NTFY_ENABLED", "false") == "true",
		NtfyURL:      GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:    GetEnvWithDefault("NTFY_TOPIC", "survey-pipeline"),
		NtfyPriority: os.Getenv("NTFY_PRIORITY"),
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// OpenDB opens the configured database: sqlite by default, mysql when the
// deployment points at a server RDBMS.
func (c Config) OpenDB() (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch c.DBDriver {
	case "sqlite":
		return gorm.Open(sqlite.Open(c.DBPath), gormCfg)
	case "mysql":
		cfg := gomysql.NewConfig()
		cfg.User = c.DBUser
		cfg.Passwd = c.DBPass
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", c.DBHost, c.DBPort)
		cfg.DBName = c.DBName
		cfg.ParseTime = true

		connector, err := gomysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("create connector: %w", err)
		}
		sqlDB := sql.OpenDB(connector)
		return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gormCfg)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
}

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetRequiredEnv fetches a required environment variable or exits if not set.
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Msgf("%s environment variable is required", key)
	}
	return value
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer environment variable, using default")
		return defaultValue
	}
	return n
}
