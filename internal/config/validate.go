package config

import (
	"errors"
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err joins the errors into one, or returns nil when v is OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a trimmed copy of cfg plus the problems found.
// Missing profile fields are warnings here; they only block a bot session.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Search.Query = strings.TrimSpace(out.Search.Query)
	out.Search.AreaID = strings.TrimSpace(out.Search.AreaID)
	out.Profile.ResumeID = strings.TrimSpace(out.Profile.ResumeID)
	out.Profile.DisplayName = strings.TrimSpace(out.Profile.DisplayName)
	out.Profile.SelfDescription = strings.TrimSpace(out.Profile.SelfDescription)
	out.HH.BaseURL = strings.TrimRight(strings.TrimSpace(out.HH.BaseURL), "/")
	out.LLM.Provider = strings.ToLower(strings.TrimSpace(out.LLM.Provider))

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Search.TargetApplications != nil && *out.Search.TargetApplications <= 0 {
		res.addErr("search.target_applications must be > 0 or omitted for no limit")
	}
	if out.Search.PerPage <= 0 || out.Search.PerPage > 100 {
		res.addErr("search.per_page must be 1..100")
	}
	if out.Search.AreaID == "" {
		res.addErr("search.area_id is required")
	}

	if out.HH.BaseURL == "" {
		res.addErr("hh.base_url is required")
	}
	if out.HH.RequestsPerSecond <= 0 {
		res.addErr("hh.requests_per_second must be > 0")
	} else if out.HH.RequestsPerSecond > 10 {
		res.addWarn("hh.requests_per_second is high (%.1f) and may trigger captcha challenges.", out.HH.RequestsPerSecond)
	}
	if out.HH.DetailWorkers <= 0 {
		res.addErr("hh.detail_workers must be > 0")
	}

	switch out.LLM.Provider {
	case "groq", "openai", "googleai":
	default:
		res.addErr("llm.provider must be one of groq, openai, googleai (got %q)", out.LLM.Provider)
	}
	if strings.TrimSpace(out.LLM.Model) == "" {
		res.addErr("llm.model is required")
	}

	if out.Bot.PacingMinSeconds < 0 || out.Bot.PacingMaxSeconds < out.Bot.PacingMinSeconds {
		res.addErr("bot pacing must satisfy 0 <= pacing_min_seconds <= pacing_max_seconds")
	} else if out.Bot.PacingMaxSeconds < 10 {
		res.addWarn("bot.pacing_max_seconds is very low (%d); submissions may look automated.", out.Bot.PacingMaxSeconds)
	}
	if out.Bot.ItemCooldownSeconds < 0 {
		res.addErr("bot.item_cooldown_seconds must be >= 0")
	}
	// both gate a repeated search cycle
	if out.Bot.RetryCooldownSeconds < 1 {
		res.addErr("bot.retry_cooldown_seconds must be >= 1")
	}
	if out.Bot.ExhaustedPauseSeconds < 1 {
		res.addErr("bot.exhausted_pause_seconds must be >= 1")
	}

	// profile is only needed to run the bot
	if out.Search.Query == "" {
		res.addWarn("search.query is empty; the bot cannot start until it is set.")
	}
	if out.Profile.ResumeID == "" {
		res.addWarn("profile.resume_id is empty; pick one from /resumes.")
	}
	if out.Profile.DisplayName == "" || out.Profile.SelfDescription == "" {
		res.addWarn("profile.display_name and profile.self_description are used to sign and write cover letters.")
	}

	if out.History.RetentionDays < 0 {
		res.addErr("history.retention_days must be >= 0")
	}

	return out, res
}
