package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	GinMode      string
	StoreBackend string
	JWTSecret    string
	CORSOrigins  []string

	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUser     string
	ScyllaPassword string

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	RabbitMQURL     string
	RabbitMQQueue   string
	ChannelPoolSize int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	MinioPublicURL string

	StripeSecretKey     string
	StripeWebhookSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	CompanyName string
	CompanyIBAN string
	CompanyBIC  string
}

// Load lit .env s'il existe puis construit la configuration depuis
// l'environnement.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		GinMode:      getEnv("GIN_MODE", "debug"),
		StoreBackend: getEnv("STORE_BACKEND", "scylla"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		CORSOrigins:  getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		ScyllaHosts:    getEnvAsList("SCYLLA_HOSTS", []string{"127.0.0.1"}),
		ScyllaKeyspace: getEnv("SCYLLA_KEYSPACE", "cedra_orders"),
		ScyllaUser:     getEnv("SCYLLA_USER", ""),
		ScyllaPassword: getEnv("SCYLLA_PASSWORD", ""),

		RedisHost:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ElasticURL:      getEnv("ELASTIC_URL", ""),
		ElasticUser:     getEnv("ELASTIC_USER", ""),
		ElasticPassword: getEnv("ELASTIC_PASSWORD", ""),

		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue:   getEnv("RABBITMQ_QUEUE", "warehouse_orders"),
		ChannelPoolSize: getEnvAsInt("CHANNEL_POOL_SIZE", 10),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		MinioBucket:    getEnv("MINIO_BUCKET", "cedra-images"),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "noreply@cedra.local"),

		CompanyName: getEnv("COMPANY_NAME", "Cedra SRL"),
		CompanyIBAN: getEnv("COMPANY_IBAN", ""),
		CompanyBIC:  getEnv("COMPANY_BIC", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
