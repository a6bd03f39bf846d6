package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"codegraph/internal/codeerr"
)

type Config struct {
	Project struct {
		Root      string   `yaml:"root"`
		Languages []string `yaml:"languages"`
	} `yaml:"project"`
	Scan struct {
		IncludePatterns []string `yaml:"include_patterns"`
		ExcludePatterns []string `yaml:"exclude_patterns"`
		UseGitignore    bool     `yaml:"use_gitignore"`
		MaxFileSize     int64    `yaml:"max_file_size"`
		MaxFiles        int      `yaml:"max_files"`
	} `yaml:"scan"`
	Index struct {
		Path string `yaml:"path"` // sqlite index location
	} `yaml:"index"`
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Scan.UseGitignore = true
	cfg.Index.Path = ".codegraph/index.db"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config when a file is given
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, codeerr.Resourcef(path, "config file not found")
			}
			return nil, err
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, codeerr.Validationf("invalid config %s: %v", path, err)
		}
	}

	// 3. Override with environment variables if present
	if root := os.Getenv("CODEGRAPH_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if idx := os.Getenv("CODEGRAPH_INDEX"); idx != "" {
		cfg.Index.Path = idx
	}
	if workers := os.Getenv("CODEGRAPH_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			cfg.Workers = n
		}
	}

	return cfg, nil
}
