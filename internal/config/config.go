package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"line-quiz-bot/internal/quiz"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Line struct {
		ChannelSecret      string `yaml:"channel_secret"`
		ChannelAccessToken string `yaml:"channel_access_token"`
		APIEndpoint        string `yaml:"api_endpoint"`
		DataEndpoint       string `yaml:"data_endpoint"`
	} `yaml:"line"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Sheets struct {
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SheetName       string `yaml:"sheet_name"`
		CredentialsFile string `yaml:"credentials_file"`
		HeaderRows      int    `yaml:"header_rows"`
	} `yaml:"sheets"`
	S3 struct {
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		PublicURLBase   string `yaml:"public_url_base"`
	} `yaml:"s3"`
	Quiz quiz.Script `yaml:"quiz"`
}

// Load reads YAML config from path and applies env overrides for secrets.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LINE_CHANNEL_SECRET"); v != "" {
		c.Line.ChannelSecret = v
	}
	if v := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"); v != "" {
		c.Line.ChannelAccessToken = v
	}
}

func (c *Config) applyDefaults() {
	if len(c.Quiz.Questions) == 0 {
		c.Quiz = quiz.DefaultScript()
	}
	if c.Quiz.CompletionPhrase == "" {
		c.Quiz.CompletionPhrase = quiz.DefaultScript().CompletionPhrase
	}
	if c.Quiz.RedeemCode == "" {
		c.Quiz.RedeemCode = quiz.DefaultScript().RedeemCode
	}
	if c.Sheets.HeaderRows == 0 && c.Sheets.SpreadsheetID != "" {
		c.Sheets.HeaderRows = 1
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
