package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		StaticDir      string   `yaml:"staticDir"`
	} `yaml:"server"`

	Survey struct {
		DataPath         string        `yaml:"dataPath"`
		ExportDir        string        `yaml:"exportDir"`
		ResponsesDir     string        `yaml:"responsesDir"`
		SubmitURL        string        `yaml:"submitURL"`
		AutosaveInterval time.Duration `yaml:"autosaveInterval"`
		BackupEvery      int           `yaml:"backupEvery"`
	} `yaml:"survey"`

	Durable struct {
		Driver string `yaml:"driver"` // memory, file or redis
		Dir    string `yaml:"dir"`
	} `yaml:"durable"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Logging struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "static"
	}
	if c.Survey.DataPath == "" {
		c.Survey.DataPath = "data/survey_data.csv"
	}
	if c.Survey.ExportDir == "" {
		c.Survey.ExportDir = "exports"
	}
	if c.Survey.ResponsesDir == "" {
		c.Survey.ResponsesDir = "responses"
	}
	if c.Survey.SubmitURL == "" {
		c.Survey.SubmitURL = fmt.Sprintf("http://localhost:%d/save_response", c.Server.Port)
	}
	if c.Survey.AutosaveInterval <= 0 {
		c.Survey.AutosaveInterval = 30 * time.Second
	}
	if c.Survey.BackupEvery <= 0 {
		c.Survey.BackupEvery = 10
	}
	if c.Durable.Driver == "" {
		c.Durable.Driver = "file"
	}
	if c.Durable.Dir == "" {
		c.Durable.Dir = ".survey-state"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// LoadConfig reads the configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadConfigOrDefault falls back to DefaultConfig when the file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}
