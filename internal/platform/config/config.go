// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Aparencia é fixada na inicialização; não existe operação para alterá-la.
type Aparencia struct {
	Tema string `json:"tema"`
}

// Config agrega todos os parâmetros necessários para API e worker.
type Config struct {
	HTTPAddress string
	LogLevel    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FilaKey           string
	ContadorKeyPrefix string

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	AutoMigrate bool

	WorkerMetricsAddress string

	ArquivosDir     string
	ArquivosBaseURL string

	AuditoriaBackend   string
	DynamoTabela       string
	DynamoRegiao       string
	DynamoEndpoint     string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	Aparencia Aparencia
}

func Load() (Config, error) {
	// Defaults priorizam execução local; variáveis permitem sobrescrever em Docker/K8s.
	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "obras"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "obras"),
		PostgresDB:             getEnv("POSTGRES_DB", "gestao_obras"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		FilaKey:                getEnv("REDIS_QUEUE_KEY", "fila:eventos"),
		ContadorKeyPrefix:      getEnv("REDIS_COUNTER_PREFIX", "painel"),
		RateLimitEnabled:       getEnvAsBool("ESCRITA_RATE_LIMIT_ENABLED", true),
		RateLimitMaxActions:    getEnvAsInt("ESCRITA_RATE_LIMIT_MAX", 120),
		RateLimitWindowSeconds: getEnvAsInt("ESCRITA_RATE_LIMIT_WINDOW", 60),
		RateLimitKeyPrefix:     getEnv("ESCRITA_RATE_LIMIT_PREFIX", "ratelimit"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		WorkerMetricsAddress:   getEnv("WORKER_METRICS_ADDRESS", ":9090"),
		ArquivosDir:            getEnv("ARQUIVOS_DIR", "./data/arquivos"),
		ArquivosBaseURL:        getEnv("ARQUIVOS_BASE_URL", "/arquivos"),
		AuditoriaBackend:       getEnv("AUDITORIA_BACKEND", "postgres"),
		DynamoTabela:           getEnv("DYNAMODB_TABELA_AUDITORIA", "obras-auditoria"),
		DynamoRegiao:           getEnv("AWS_REGION", "us-east-1"),
		DynamoEndpoint:         os.Getenv("DYNAMODB_ENDPOINT"),
		AWSAccessKeyID:         os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey:     os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Aparencia:              Aparencia{Tema: "claro"},
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	cfg.RedisDB = dbInt

	switch cfg.AuditoriaBackend {
	case "postgres", "dynamodb":
	default:
		return Config{}, fmt.Errorf("config: AUDITORIA_BACKEND desconhecido: %q", cfg.AuditoriaBackend)
	}

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
