// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Row source kinds.
const (
	SourceJSONFile = "jsonfile"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
	SourceWS       = "ws"
)

// Spot price providers.
const (
	PricingBinance = "binance"
	PricingStatic  = "static"
	PricingNone    = "none"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Source    SourceConfig    `mapstructure:"source"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Display   DisplayConfig   `mapstructure:"display"`
	Browse    BrowseConfig    `mapstructure:"browse"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// SourceConfig selects and configures the pool row source.
type SourceConfig struct {
	Kind            string        `mapstructure:"kind"`
	Path            string        `mapstructure:"path"`     // jsonfile
	URL             string        `mapstructure:"url"`      // http, ws
	DSN             string        `mapstructure:"dsn"`      // postgres
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // requests per second
	StaleAfter      time.Duration `mapstructure:"stale_after"`
}

// PricingConfig configures the spot price collaborator.
type PricingConfig struct {
	Provider   string             `mapstructure:"provider"`
	BinanceURL string             `mapstructure:"binance_url"`
	QuoteAsset string             `mapstructure:"quote_asset"` // binance symbol suffix for USD markets
	RateLimit  float64            `mapstructure:"rate_limit"`
	CacheTTL   time.Duration      `mapstructure:"cache_ttl"`
	Static     map[string]float64 `mapstructure:"static"`
}

// StaticPrices returns the static price table keyed by market symbol.
func (c *PricingConfig) StaticPrices() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Static))
	for market, p := range c.Static {
		// viper lower-cases map keys.
		out[strings.ToUpper(market)] = decimal.NewFromFloat(p)
	}
	return out
}

// DisplayConfig holds display derivation settings.
type DisplayConfig struct {
	DefaultBaseDecimals int32  `mapstructure:"default_base_decimals"`
	Denotation          string `mapstructure:"denotation"` // base | notional
}

// BrowseConfig holds the initial browse state.
type BrowseConfig struct {
	Search   string `mapstructure:"search"`
	Market   string `mapstructure:"market"`
	Leverage string `mapstructure:"leverage"`
	SortBy   string `mapstructure:"sort_by"`
	Account  string `mapstructure:"account"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"` // console | otlp | zipkin
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("POOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "POOLS_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "POOLS_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "POOLS_LOG_LEVEL", "LOG_LEVEL")

	// Source
	v.BindEnv("source.kind", "POOLS_SOURCE_KIND")
	v.BindEnv("source.path", "POOLS_SOURCE_PATH")
	v.BindEnv("source.url", "POOLS_SOURCE_URL")
	v.BindEnv("source.dsn", "POOLS_SOURCE_DSN", "DATABASE_URL")

	// Pricing
	v.BindEnv("pricing.provider", "POOLS_PRICING_PROVIDER")
	v.BindEnv("pricing.binance_url", "POOLS_BINANCE_URL", "BINANCE_URL")

	// Browse
	v.BindEnv("browse.account", "POOLS_ACCOUNT")

	// Server
	v.BindEnv("server.port", "POOLS_PORT", "PORT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "POOLS_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "POOLS_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "POOLS_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "perpetual-pools")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("source.kind", SourceJSONFile)
	v.SetDefault("source.path", "pools.json")
	v.SetDefault("source.refresh_interval", "30s")
	v.SetDefault("source.timeout", "10s")
	v.SetDefault("source.rate_limit", 2)
	v.SetDefault("source.stale_after", "5m")

	v.SetDefault("pricing.provider", PricingNone)
	v.SetDefault("pricing.binance_url", "https://api.binance.com")
	v.SetDefault("pricing.quote_asset", "USDT")
	v.SetDefault("pricing.rate_limit", 5)
	v.SetDefault("pricing.cache_ttl", "15s")

	v.SetDefault("display.default_base_decimals", 4)
	v.SetDefault("display.denotation", "notional")

	v.SetDefault("browse.market", "All")
	v.SetDefault("browse.leverage", "All")
	v.SetDefault("browse.sort_by", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "perpetual-pools")
	v.SetDefault("telemetry.exporter", "console")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceJSONFile:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path is required for %s source", SourceJSONFile)
		}
	case SourceHTTP, SourceWS:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required for %s source", c.Source.Kind)
		}
	case SourcePostgres:
		if c.Source.DSN == "" {
			return fmt.Errorf("source.dsn is required for %s source", SourcePostgres)
		}
	default:
		return fmt.Errorf("unknown source.kind: %q", c.Source.Kind)
	}

	switch c.Pricing.Provider {
	case PricingBinance:
		if c.Pricing.BinanceURL == "" {
			return fmt.Errorf("pricing.binance_url is required for binance provider")
		}
	case PricingStatic, PricingNone:
	default:
		return fmt.Errorf("unknown pricing.provider: %q", c.Pricing.Provider)
	}

	if c.Display.DefaultBaseDecimals < 0 || c.Display.DefaultBaseDecimals > 18 {
		return fmt.Errorf("display.default_base_decimals out of range: %d", c.Display.DefaultBaseDecimals)
	}
	switch c.Display.Denotation {
	case "base", "notional":
	default:
		return fmt.Errorf("display.denotation must be base or notional, got %q", c.Display.Denotation)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	return nil
}
