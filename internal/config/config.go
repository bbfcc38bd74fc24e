package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port         string   `toml:"port"`
	AllowOrigins []string `toml:"allow_origins"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type AnalysisConfig struct {
	MaxPathLength   int `toml:"max_path_length"`
	Tolerance       int `toml:"tolerance"`
	ExpansionBudget int `toml:"expansion_budget"`
	MaxRounds       int `toml:"max_rounds"`
	EmphasisMinSize int `toml:"emphasis_min_size"`
	MaxSelection    int `toml:"max_selection"`
}

type ImportConfig struct {
	TypesCSV string `toml:"types_csv"`
	EdgesCSV string `toml:"edges_csv"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Memgraph MemgraphConfig `toml:"memgraph"`
	Analysis AnalysisConfig `toml:"analysis"`
	Import   ImportConfig   `toml:"import"`
}

// Default returns the configuration used when no file is present: local
// Memgraph, the standard traversal bounds, and the reference community
// emphasis threshold.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		Analysis: AnalysisConfig{
			MaxPathLength:   4,
			Tolerance:       1,
			ExpansionBudget: 50000,
			MaxRounds:       20,
			EmphasisMinSize: 20,
			MaxSelection:    10,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
