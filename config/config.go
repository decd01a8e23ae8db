package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Upload backend names accepted in UPLOAD_BACKEND.
const (
	UploadBackendFS    = "fs"
	UploadBackendMinio = "minio"
	UploadBackendGCS   = "gcs"
)

// MQ backend names accepted in MQ_BACKEND.
const (
	MQBackendNone     = "none"
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

// Password schemes accepted in PASSWORD_SCHEME.
const (
	PasswordSchemePlain  = "plain"
	PasswordSchemeBcrypt = "bcrypt"
)

type Config struct {
	ServerPort     int
	Database       DatabaseConfig
	Session        SessionConfig
	Upload         UploadConfig
	Minio          MinioConfig
	GCS            GCSConfig
	MQ             MQConfig
	RabbitMQ       RabbitMQConfig
	PubSub         PubSubConfig
	PasswordScheme string
	ViewDir        string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type SessionConfig struct {
	Secret   string
	TTLHours int
}

type UploadConfig struct {
	Backend string
	Dir     string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

type MQConfig struct {
	Backend string
}

type RabbitMQConfig struct {
	URL string
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "regdesk"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "regdesk_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 3000),
		Database:   dbConfig,
		Session: SessionConfig{
			Secret:   getEnv("SESSION_SECRET", ""),
			TTLHours: getEnvInt("SESSION_TTL_HOURS", 24),
		},
		Upload: UploadConfig{
			Backend: strings.ToLower(getEnv("UPLOAD_BACKEND", UploadBackendFS)),
			Dir:     getEnv("UPLOAD_DIR", "uploads"),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "regdesk-uploads"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		MQ: MQConfig{
			Backend: strings.ToLower(getEnv("MQ_BACKEND", MQBackendNone)),
		},
		RabbitMQ: RabbitMQConfig{
			URL: getEnv("RABBITMQ_URL", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		PasswordScheme: strings.ToLower(getEnv("PASSWORD_SCHEME", PasswordSchemePlain)),
		ViewDir:        getEnv("VIEW_DIR", "views"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return strings.EqualFold(valueStr, "true") || valueStr == "1"
	}
	return defaultValue
}
