package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type CRMConfig struct {
	BaseURL           string        `json:"base_url"`
	AuthHeader        string        `json:"-"`
	Timeout           time.Duration `json:"timeout"`
	RequestsPerSecond float64       `json:"requests_per_second"`
	MaxRetries        int           `json:"max_retries"`
}

type SheetsConfig struct {
	SpreadsheetID         string `json:"spreadsheet_id"`
	DeliverySpreadsheetID string `json:"delivery_spreadsheet_id"`
	DeliverySheet         string `json:"delivery_sheet"`
	ClientEmail           string `json:"client_email"`
	PrivateKey            string `json:"-"`
	TokenURL              string `json:"token_url"`
	Endpoint              string `json:"endpoint"`
}

type Config struct {
	Environment        string        `json:"environment"`
	ServerPort         string        `json:"server_port"`
	JWTSecret          string        `json:"-"`
	JWTExpiry          time.Duration `json:"jwt_expiry"`
	PartnerID          int64         `json:"partner_id"`
	RefreshInterval    time.Duration `json:"refresh_interval"`
	CRM                CRMConfig     `json:"crm"`
	Sheets             SheetsConfig  `json:"sheets"`
	DatabaseURL        string        `json:"-"`
	DBHost             string        `json:"db_host"`
	DBPort             string        `json:"db_port"`
	DBUser             string        `json:"db_user"`
	DBPassword         string        `json:"-"`
	DBName             string        `json:"db_name"`
	DBSSLMode          string        `json:"db_ssl_mode"`
	DBMaxIdleConns     int           `json:"db_max_idle_conns"`
	DBMaxOpenConns     int           `json:"db_max_open_conns"`
	Redis              RedisConfig   `json:"redis"`
	LoginRateLimit     int           `json:"login_rate_limit"`
	SentryDSN          string        `json:"-"`
	LogLevel           string        `json:"log_level"`
	LogFormat          string        `json:"log_format"`
	LogFile            string        `json:"log_file"`
	CORSAllowedOrigins string        `json:"cors_allowed_origins"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServerPort:      getEnv("SERVER_PORT", "5000"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTExpiry:       getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		PartnerID:       int64(getEnvAsInt("PARTNER_ID", 4)),
		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 5*time.Minute),
		CRM: CRMConfig{
			BaseURL:           getEnv("CRM_BASE_URL", "https://portal.umoja.network"),
			AuthHeader:        getEnv("CRM_AUTH_HEADER", ""),
			Timeout:           getEnvAsDuration("CRM_TIMEOUT", 20*time.Second),
			RequestsPerSecond: getEnvAsFloat("CRM_REQUESTS_PER_SECOND", 10),
			MaxRetries:        getEnvAsInt("CRM_MAX_RETRIES", 2),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:         getEnv("SHEETS_SPREADSHEET_ID", ""),
			DeliverySpreadsheetID: getEnv("SHEETS_DELIVERY_SPREADSHEET_ID", ""),
			DeliverySheet:         getEnv("SHEETS_DELIVERY_SHEET", "Sheet1"),
			ClientEmail:           getEnv("SHEETS_CLIENT_EMAIL", ""),
			PrivateKey:            getEnv("SHEETS_PRIVATE_KEY", ""),
			TokenURL:              getEnv("SHEETS_TOKEN_URL", ""),
			Endpoint:              getEnv("SHEETS_ENDPOINT", ""),
		},
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBHost:         getEnv("DB_HOST", ""),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "resellerdash"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "require"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LoginRateLimit:     getEnvAsInt("LOGIN_RATE_LIMIT", 10),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LogFile:            getEnv("LOG_FILE", ""),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// Validate required configurations
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if AppConfig.PartnerID <= 0 {
		return fmt.Errorf("PARTNER_ID must be positive")
	}
	if AppConfig.Environment == "production" && AppConfig.CRM.AuthHeader == "" {
		return fmt.Errorf("CRM_AUTH_HEADER is required in production")
	}

	logConfig()
	return nil
}

// DSN builds the Postgres connection string. It is empty when no database
// is configured.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBHost == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
	)
}

// ConnectDB opens the read store database. Without a configured DSN it
// leaves DB nil and the read store runs without persistence.
func ConnectDB() error {
	dsn := AppConfig.DSN()
	if dsn == "" {
		log.Println("⚠️ No database configured, read marks and admin accounts are disabled")
		return nil
	}
	log.Println("Attempting to connect to database...")
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valueStr); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func maskPassword(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		at := strings.LastIndex(dsn, "@")
		scheme := strings.Index(dsn, "://") + 3
		colon := strings.Index(dsn[scheme:], ":")
		if at == -1 || colon == -1 || scheme+colon > at {
			return dsn
		}
		return dsn[:scheme+colon+1] + "*****" + dsn[at:]
	}

	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Partner: %d, refresh every %s", AppConfig.PartnerID, AppConfig.RefreshInterval)
	log.Printf("CRM: %s (auth header set: %t)", AppConfig.CRM.BaseURL, AppConfig.CRM.AuthHeader != "")
	log.Printf("Sheets: spreadsheet set: %t, delivery sheet set: %t, service account set: %t",
		AppConfig.Sheets.SpreadsheetID != "",
		AppConfig.Sheets.DeliverySpreadsheetID != "",
		AppConfig.Sheets.ClientEmail != "" && AppConfig.Sheets.PrivateKey != "")
	if dsn := AppConfig.DSN(); dsn != "" {
		log.Printf("Database: %s", maskPassword(dsn))
	} else {
		log.Printf("Database: not configured")
	}
	log.Printf("Redis: %t", AppConfig.Redis.Enabled)
}
