package config

import (
	"strings"

	apperrors "autoapply-engine/internal/errors"
)

// Tokens are the credentials kept outside the YAML file.
type Tokens struct {
	AccessToken string
	LLMKey      string
}

// Snapshot is the immutable input of one bot session or manual apply.
type Snapshot struct {
	Query           string
	Target          *int
	Tokens          Tokens
	ResumeID        string
	SelfDescription string
	DisplayName     string
}

func BuildSnapshot(cfg Config, tokens Tokens) Snapshot {
	s := Snapshot{
		Query:           strings.TrimSpace(cfg.Search.Query),
		Tokens:          tokens,
		ResumeID:        strings.TrimSpace(cfg.Profile.ResumeID),
		SelfDescription: strings.TrimSpace(cfg.Profile.SelfDescription),
		DisplayName:     strings.TrimSpace(cfg.Profile.DisplayName),
	}
	if t := cfg.Search.TargetApplications; t != nil {
		n := *t
		s.Target = &n
	}
	return s
}

// WithTarget returns a copy with its own target value.
func (s Snapshot) WithTarget(target *int) Snapshot {
	if target == nil {
		s.Target = nil
		return s
	}
	n := *target
	s.Target = &n
	return s
}

// Missing lists the fields a bot session cannot run without.
func (s Snapshot) Missing() []string {
	var out []string
	if s.Query == "" {
		out = append(out, "search.query")
	}
	return append(out, s.MissingForApply()...)
}

// MissingForSearch lists the credentials a manual search needs.
func (s Snapshot) MissingForSearch() []string {
	var out []string
	if strings.TrimSpace(s.Tokens.AccessToken) == "" {
		out = append(out, "hh access token")
	}
	if strings.TrimSpace(s.Tokens.LLMKey) == "" {
		out = append(out, "llm api key")
	}
	return out
}

// MissingForApply lists the fields a single application needs.
func (s Snapshot) MissingForApply() []string {
	out := s.MissingForSearch()
	if s.ResumeID == "" {
		out = append(out, "profile.resume_id")
	}
	if s.SelfDescription == "" {
		out = append(out, "profile.self_description")
	}
	if s.DisplayName == "" {
		out = append(out, "profile.display_name")
	}
	return out
}

func (s Snapshot) Validate() error {
	if missing := s.Missing(); len(missing) > 0 {
		return apperrors.InvalidInput("incomplete configuration, missing: "+strings.Join(missing, ", "), nil)
	}
	if s.Target != nil && *s.Target <= 0 {
		return apperrors.InvalidInput("target application count must be > 0", nil)
	}
	return nil
}

func (s Snapshot) ValidateForSearch() error {
	if missing := s.MissingForSearch(); len(missing) > 0 {
		return apperrors.InvalidInput("incomplete configuration, missing: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

func (s Snapshot) ValidateForApply() error {
	if missing := s.MissingForApply(); len(missing) > 0 {
		return apperrors.InvalidInput("incomplete configuration, missing: "+strings.Join(missing, ", "), nil)
	}
	return nil
}
