package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  name: test-pools\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "test-pools" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Source.Kind != SourceJSONFile {
		t.Errorf("Source.Kind = %q", cfg.Source.Kind)
	}
	if cfg.Display.DefaultBaseDecimals != 4 {
		t.Errorf("DefaultBaseDecimals = %d, want 4", cfg.Display.DefaultBaseDecimals)
	}
	if cfg.Browse.Leverage != "All" {
		t.Errorf("Browse.Leverage = %q", cfg.Browse.Leverage)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POOLS_SOURCE_KIND", "http")
	t.Setenv("POOLS_SOURCE_URL", "http://localhost:9000/pools")
	t.Setenv("POOLS_PORT", "9999")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.Kind != SourceHTTP || cfg.Source.URL != "http://localhost:9000/pools" {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
}

func TestPricingConfig_StaticPrices(t *testing.T) {
	c := PricingConfig{Static: map[string]float64{"eth/usd": 3000.5}}
	prices := c.StaticPrices()
	p, ok := prices["ETH/USD"]
	if !ok {
		t.Fatalf("missing ETH/USD in %v", prices)
	}
	if p.String() != "3000.5" {
		t.Errorf("price = %s", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Source:  SourceConfig{Kind: SourceJSONFile, Path: "pools.json"},
			Pricing: PricingConfig{Provider: PricingNone},
			Display: DisplayConfig{DefaultBaseDecimals: 4, Denotation: "notional"},
			Server:  ServerConfig{Port: 8080},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.Source.Kind = "ftp" }, wantErr: "source.kind"},
		{name: "http without url", mutate: func(c *Config) { c.Source.Kind = SourceHTTP }, wantErr: "source.url"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Source.Kind = SourcePostgres }, wantErr: "source.dsn"},
		{name: "bad pricing", mutate: func(c *Config) { c.Pricing.Provider = "oracle" }, wantErr: "pricing.provider"},
		{name: "negative decimals", mutate: func(c *Config) { c.Display.DefaultBaseDecimals = -1 }, wantErr: "default_base_decimals"},
		{name: "bad denotation", mutate: func(c *Config) { c.Display.Denotation = "yen" }, wantErr: "denotation"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
