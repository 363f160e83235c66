package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`
	DBPath     string `envconfig:"DB_PATH" default:"/data/htspilot.db"`

	CompletionBackend string `envconfig:"COMPLETION_BACKEND" default:"gateway"`
	GatewayURL        string `envconfig:"GATEWAY_URL" default:"http://localhost:8787"`
	GatewayModel      string `envconfig:"GATEWAY_MODEL" default:"gemini-2.5-flash"`
	AnthropicAPIKey   string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel    string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`

	DatawebURL   string `envconfig:"DATAWEB_URL" default:"https://datawebws.usitc.gov/dataweb"`
	HtsSearchURL string `envconfig:"HTS_SEARCH_URL" default:"https://hts.usitc.gov/api"`
	DatawebToken string `envconfig:"DATAWEB_TOKEN"`

	RedisURL       string        `envconfig:"REDIS_URL"`
	TariffCacheTTL time.Duration `envconfig:"TARIFF_CACHE_TTL" default:"24h"`

	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"100"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`
}

// Load reads configuration from the environment, after sourcing a local
// .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}
