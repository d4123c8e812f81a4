package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string
	Port                          int
	LogLevel                      string
	PrettyLogs                    bool
	HttpServerWriteTimeoutSeconds int
	HttpServerReadTimeoutSeconds  int
	HttpServerIdleTimeoutSeconds  int
	MaxHeaderBytes                int
	ReadHeaderTimeoutSeconds      int
	AllowOrigins                  []string
	AllowMethods                  []string

	// PostgreSQL (catalog database)
	DatabaseDriver                string
	DatabaseHost                  string
	DatabasePort                  string
	DatabaseUserName              string
	DatabasePassword              string
	DatabaseName                  string
	DatabaseSSLMode               string
	DatabaseMaxOpenConns          int
	DatabaseMaxIdleConns          int
	DatabaseConnMaxLifetime       time.Duration
	DatabaseMigrationFolderPath   string
	DatabaseMigrationVersion      int
	DatabaseMigrationForce        int
	DatabaseMigrationAutoRollback bool

	// Snapshot directories
	InputDir  string
	BackupDir string

	// Steam name map artifact
	SteamMapPath string

	// Reference data feeds
	TagsFeedPath       string
	CategoriesFeedPath string

	// Tracing
	TracingEnabled      bool
	TracingOTLPEndpoint string
	TracingOTLPProtocol string

	// Kafka Producer (catalog events)
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaOutputTopic  string
	KafkaBatchSize    int
	KafkaBatchTimeout int
	KafkaRequiredAcks int
	KafkaCompression  string

	// Graph Database (Memgraph)
	GraphEnabled    bool
	GraphDBHost     string
	GraphDBPort     int
	GraphDBUser     string
	GraphDBPassword string
	GraphBatchSize  int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppName:                       getEnv("APP_NAME", "clover"),
		Port:                          getEnvInt("PORT", 3004),
		LogLevel:                      getEnv("LOG_LEVEL", "info"),
		PrettyLogs:                    getEnvBool("PRETTY_LOGS", false),
		HttpServerWriteTimeoutSeconds: getEnvInt("HTTP_SERVER_WRITE_TIMEOUT_SECONDS", 10),
		HttpServerReadTimeoutSeconds:  getEnvInt("HTTP_SERVER_READ_TIMEOUT_SECONDS", 10),
		HttpServerIdleTimeoutSeconds:  getEnvInt("HTTP_SERVER_IDLE_TIMEOUT_SECONDS", 10),
		MaxHeaderBytes:                getEnvInt("HTTP_SERVER_MAX_HEADER_BYTES", 64000),
		ReadHeaderTimeoutSeconds:      getEnvInt("HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS", 10),
		AllowOrigins:                  getEnvList("HTTP_SERVER_ALLOW_ORIGINS", "*"),
		AllowMethods:                  getEnvList("HTTP_SERVER_ALLOW_METHODS", "GET"),

		DatabaseDriver:                getEnv("DB_DRIVER", "postgres"),
		DatabaseHost:                  getEnv("DB_HOST", "localhost"),
		DatabasePort:                  getEnv("DB_PORT", "5432"),
		DatabaseUserName:              getEnv("DB_USER_NAME", "postgres"),
		DatabasePassword:              getEnv("DB_PASSWORD", "postgres"),
		DatabaseName:                  getEnv("DB_NAME", "clover"),
		DatabaseSSLMode:               getEnv("DB_SSL_MODE", "disable"),
		DatabaseMaxOpenConns:          getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdleConns:          getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DatabaseConnMaxLifetime:       getEnvDuration("DB_CONN_MAX_LIFETIME", 10*time.Second),
		DatabaseMigrationFolderPath:   getEnv("DB_MIGRATION_FOLDER_PATH", "db/pg"),
		DatabaseMigrationVersion:      getEnvInt("DB_MIGRATION_VERSION", 0),
		DatabaseMigrationForce:        getEnvInt("DB_MIGRATION_FORCE", 0),
		DatabaseMigrationAutoRollback: getEnvBool("DB_MIGRATION_AUTO_ROLLBACK", true),

		InputDir:  getEnv("INPUT_DIR", "output"),
		BackupDir: getEnv("BACKUP_DIR", "output/backup"),

		SteamMapPath: getEnv("STEAM_MAP_PATH", "output/steam_map.json"),

		TagsFeedPath:       getEnv("TAGS_FEED_PATH", "output/tags.json"),
		CategoriesFeedPath: getEnv("CATEGORIES_FEED_PATH", "output/categories.json"),

		TracingEnabled:      getEnvBool("TRACING_ENABLED", false),
		TracingOTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
		TracingOTLPProtocol: getEnv("TRACING_OTLP_PROTOCOL", "grpc"),

		KafkaEnabled:      getEnvBool("KAFKA_ENABLED", false),
		KafkaBrokers:      getEnvList("KAFKA_BROKERS", "localhost:9092"),
		KafkaOutputTopic:  getEnv("KAFKA_OUTPUT_TOPIC", "catalog-events"),
		KafkaBatchSize:    getEnvInt("KAFKA_BATCH_SIZE", 100),
		KafkaBatchTimeout: getEnvInt("KAFKA_BATCH_TIMEOUT_MS", 100),
		KafkaRequiredAcks: getEnvInt("KAFKA_REQUIRED_ACKS", 1),
		KafkaCompression:  getEnv("KAFKA_COMPRESSION", "snappy"),

		GraphEnabled:    getEnvBool("GRAPH_ENABLED", false),
		GraphDBHost:     getEnv("GRAPH_DB_HOST", "localhost"),
		GraphDBPort:     getEnvInt("GRAPH_DB_PORT", 7687),
		GraphDBUser:     getEnv("GRAPH_DB_USER", ""),
		GraphDBPassword: getEnv("GRAPH_DB_PASSWORD", ""),
		GraphBatchSize:  getEnvInt("GRAPH_BATCH_SIZE", 500),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key, fallback string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
