package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port        int    `yaml:"port"`
		DataDir     string `yaml:"data_dir"`
		LogLevel    string `yaml:"log_level"`
		Development bool   `yaml:"development"`
	} `yaml:"app"`

	Search struct {
		Query              string `yaml:"query"`
		TargetApplications *int   `yaml:"target_applications"`
		AreaID             string `yaml:"area_id"`
		PerPage            int    `yaml:"per_page"`
	} `yaml:"search"`

	Profile struct {
		ResumeID        string `yaml:"resume_id"`
		DisplayName     string `yaml:"display_name"`
		SelfDescription string `yaml:"self_description"`
	} `yaml:"profile"`

	HH struct {
		BaseURL           string  `yaml:"base_url"`
		UserAgent         string  `yaml:"user_agent"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		DetailWorkers     int     `yaml:"detail_workers"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
	} `yaml:"hh"`

	LLM struct {
		Provider            string `yaml:"provider"` // groq | openai | googleai
		Model               string `yaml:"model"`
		BaseURL             string `yaml:"base_url"`
		ExpansionCacheHours int    `yaml:"expansion_cache_hours"`
	} `yaml:"llm"`

	Bot struct {
		PacingMinSeconds      int `yaml:"pacing_min_seconds"`
		PacingMaxSeconds      int `yaml:"pacing_max_seconds"`
		ItemCooldownSeconds   int `yaml:"item_cooldown_seconds"`
		RetryCooldownSeconds  int `yaml:"retry_cooldown_seconds"`
		ExhaustedPauseSeconds int `yaml:"exhausted_pause_seconds"`
		SuccessDisplayMillis  int `yaml:"success_display_millis"`
		ErrorDisplayMillis    int `yaml:"error_display_millis"`
	} `yaml:"bot"`

	Cache struct {
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		Size          int    `yaml:"size"`
	} `yaml:"cache"`

	Events struct {
		NATSURL string `yaml:"nats_url"`
		Subject string `yaml:"subject"`
	} `yaml:"events"`

	Telemetry struct {
		CollectorURL string `yaml:"collector_url"`
		ServiceName  string `yaml:"service_name"`
	} `yaml:"telemetry"`

	History struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"history"`
}

// Default returns the values the engine uses for anything the file leaves out.
func Default() Config {
	var cfg Config

	cfg.App.Port = 38471
	cfg.App.DataDir = "."
	cfg.App.LogLevel = "info"

	cfg.Search.AreaID = "84"
	cfg.Search.PerPage = 20

	cfg.HH.BaseURL = "https://api.hh.ru"
	cfg.HH.UserAgent = "AIJobSearchAssistant/6.0 (contact@example.com)"
	cfg.HH.RequestsPerSecond = 4
	cfg.HH.Burst = 4
	cfg.HH.DetailWorkers = 8
	cfg.HH.TimeoutSeconds = 20

	cfg.LLM.Provider = "groq"
	cfg.LLM.Model = "llama3-70b-8192"
	cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	cfg.LLM.ExpansionCacheHours = 24

	cfg.Bot.PacingMinSeconds = 10
	cfg.Bot.PacingMaxSeconds = 45
	cfg.Bot.ItemCooldownSeconds = 5
	cfg.Bot.RetryCooldownSeconds = 60
	cfg.Bot.ExhaustedPauseSeconds = 300
	cfg.Bot.SuccessDisplayMillis = 1500
	cfg.Bot.ErrorDisplayMillis = 3000

	cfg.Cache.Size = 256

	cfg.Events.Subject = "autoapply.log"

	cfg.Telemetry.ServiceName = "autoapply-engine"

	cfg.History.RetentionDays = 90

	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// LoadChecked is Load plus the AUTOAPPLY_* overlay and NormalizeAndValidate.
// A config with validation errors is rejected.
func LoadChecked(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	out, vr := NormalizeAndValidate(cfg)
	if err := vr.Err(); err != nil {
		return cfg, err
	}
	return out, nil
}
