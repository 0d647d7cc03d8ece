package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"trip-server/internal/utils"
)

// Config содержит конфигурацию сервера планирования поездок.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Настройки HTTP-сервера
	ServerPort         int           `envconfig:"SERVER_PORT" default:"8080"`
	ServerReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	ServerWriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ServerIdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`

	// Настройки AI
	AIProvider       string        `envconfig:"AI_PROVIDER" default:"openai"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel          string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"trip_db"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки RabbitMQ. Пустой URL отключает публикацию событий.
	RabbitMQURL string `envconfig:"RABBITMQ_URL" default:""`

	// Настройки Redis для кэша поиска изображений. Пустой адрес отключает кэш.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Настройки поиска изображений. Пустой ключ отключает обогащение фотографиями.
	ImageSearchBaseURL string        `envconfig:"IMAGE_SEARCH_BASE_URL" default:"https://api.unsplash.com"`
	ImageSearchAPIKey  string        `envconfig:"IMAGE_SEARCH_API_KEY" default:""`
	ImageSearchTimeout time.Duration `envconfig:"IMAGE_SEARCH_TIMEOUT" default:"10s"`
	ImageVerifyTimeout time.Duration `envconfig:"IMAGE_VERIFY_TIMEOUT" default:"3s"`
	ImageCacheTTL      time.Duration `envconfig:"IMAGE_CACHE_TTL" default:"24h"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode, c.DBMaxConns)
}

// MaskedDSN возвращает DSN с замаскированным паролем для логирования.
func (c *Config) MaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}

// Load загружает конфигурацию из переменных окружения и секретов.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	var loadErr error
	cfg.AIAPIKey, loadErr = utils.ReadSecret("ai_api_key")
	if loadErr != nil && strings.ToLower(cfg.AIProvider) != "ollama" {
		return nil, loadErr
	}

	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	return &cfg, nil
}
