package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overlays AUTOAPPLY_* variables on cfg.
func ApplyEnv(cfg *Config) {
	if v, ok := lookup("AUTOAPPLY_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = n
		}
	}
	if v, ok := lookup("AUTOAPPLY_LOG_LEVEL"); ok {
		cfg.App.LogLevel = v
	}
	if v, ok := lookup("AUTOAPPLY_QUERY"); ok {
		cfg.Search.Query = v
	}
	if v, ok := lookup("AUTOAPPLY_TARGET"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Search.TargetApplications = &n
		}
	}
	if v, ok := lookup("AUTOAPPLY_RESUME_ID"); ok {
		cfg.Profile.ResumeID = v
	}
	if v, ok := lookup("AUTOAPPLY_DISPLAY_NAME"); ok {
		cfg.Profile.DisplayName = v
	}
	if v, ok := lookup("AUTOAPPLY_LLM_PROVIDER"); ok {
		cfg.LLM.Provider = v
	}
	if v, ok := lookup("AUTOAPPLY_LLM_MODEL"); ok {
		cfg.LLM.Model = v
	}
	if v, ok := lookup("AUTOAPPLY_REDIS_ADDR"); ok {
		cfg.Cache.RedisAddr = v
	}
	if v, ok := lookup("AUTOAPPLY_NATS_URL"); ok {
		cfg.Events.NATSURL = v
	}
	if v, ok := lookup("AUTOAPPLY_OTEL_COLLECTOR"); ok {
		cfg.Telemetry.CollectorURL = v
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
