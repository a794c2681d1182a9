package config

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "autoapply-engine/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  query: golang\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "golang", cfg.Search.Query)
	assert.Equal(t, "84", cfg.Search.AreaID)
	assert.Equal(t, 20, cfg.Search.PerPage)
	assert.Equal(t, 10, cfg.Bot.PacingMinSeconds)
	assert.Equal(t, 45, cfg.Bot.PacingMaxSeconds)
	assert.Equal(t, 300, cfg.Bot.ExhaustedPauseSeconds)
	assert.Nil(t, cfg.Search.TargetApplications)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Search.Query = "  go  "
	cfg.HH.BaseURL = "https://api.hh.ru/"
	cfg.LLM.Provider = "GROQ"

	out, vr := NormalizeAndValidate(cfg)
	assert.True(t, vr.OK(), vr.Errors)
	assert.Equal(t, "go", out.Search.Query)
	assert.Equal(t, "https://api.hh.ru", out.HH.BaseURL)
	assert.Equal(t, "groq", out.LLM.Provider)
	assert.NotEmpty(t, vr.Warnings)

	zero := 0
	cfg.Search.TargetApplications = &zero
	cfg.LLM.Provider = "nope"
	cfg.Bot.PacingMaxSeconds = 1
	_, vr = NormalizeAndValidate(cfg)
	assert.False(t, vr.OK())
	assert.Len(t, vr.Errors, 3)
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := Default()
	cfg.Search.Query = "backend"
	n := 5
	cfg.Search.TargetApplications = &n
	require.NoError(t, SaveAtomic(path, cfg))

	// second save keeps a backup of the first
	cfg.Search.Query = "platform"
	require.NoError(t, SaveAtomic(path, cfg))
	_, err := os.Stat(path + ".bak")
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "platform", got.Search.Query)
	require.NotNil(t, got.Search.TargetApplications)
	assert.Equal(t, 5, *got.Search.TargetApplications)
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.App.Port = 0
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.port")
}

func TestEnsureUserConfigFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path, err := EnsureUserConfig(dir, filepath.Join(dir, "missing.yml"))
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().HH.BaseURL, cfg.HH.BaseURL)

	// existing file is left alone
	require.NoError(t, os.WriteFile(path, []byte("search:\n  query: kept\n"), 0o600))
	again, err := EnsureUserConfig(dir, "")
	require.NoError(t, err)
	cfg, err = Load(again)
	require.NoError(t, err)
	assert.Equal(t, "kept", cfg.Search.Query)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("AUTOAPPLY_QUERY", "sre")
	t.Setenv("AUTOAPPLY_TARGET", "3")
	t.Setenv("AUTOAPPLY_PORT", "not-a-number")

	cfg := Default()
	ApplyEnv(&cfg)
	assert.Equal(t, "sre", cfg.Search.Query)
	require.NotNil(t, cfg.Search.TargetApplications)
	assert.Equal(t, 3, *cfg.Search.TargetApplications)
	assert.Equal(t, Default().App.Port, cfg.App.Port)
}

func TestSnapshotValidate(t *testing.T) {
	cfg := Default()
	cfg.Search.Query = "go"
	cfg.Profile.ResumeID = "r1"
	cfg.Profile.DisplayName = "Denis"
	cfg.Profile.SelfDescription = "Go developer"
	n := 2
	cfg.Search.TargetApplications = &n

	snap := BuildSnapshot(cfg, Tokens{AccessToken: "tok", LLMKey: "key"})
	require.NoError(t, snap.Validate())

	// the snapshot does not follow later config edits
	n = 99
	assert.Equal(t, 2, *snap.Target)

	empty := BuildSnapshot(Default(), Tokens{})
	err := empty.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInvalidInput))
	assert.Contains(t, empty.Missing(), "search.query")
	assert.NotContains(t, empty.MissingForApply(), "search.query")

	zero := 0
	assert.Error(t, snap.WithTarget(&zero).Validate())
	assert.Nil(t, snap.WithTarget(nil).Target)
}

func TestCycleCooldownsNeedFloor(t *testing.T) {
	cfg := Default()
	cfg.Bot.RetryCooldownSeconds = 0
	cfg.Bot.ExhaustedPauseSeconds = 0
	cfg.Bot.ItemCooldownSeconds = 0

	_, vr := NormalizeAndValidate(cfg)
	require.False(t, vr.OK())
	assert.ElementsMatch(t, []string{
		"bot.retry_cooldown_seconds must be >= 1",
		"bot.exhausted_pause_seconds must be >= 1",
	}, vr.Errors)
	require.Error(t, vr.Err())
	assert.Contains(t, vr.Err().Error(), "retry_cooldown_seconds")

	_, vr = NormalizeAndValidate(Default())
	assert.NoError(t, vr.Err())
}

func TestLoadCheckedRejectsZeroCooldowns(t *testing.T) {
	t.Setenv("AUTOAPPLY_QUERY", "")
	dir := t.TempDir()

	retry := filepath.Join(dir, "retry.yml")
	require.NoError(t, os.WriteFile(retry, []byte("bot:\n  retry_cooldown_seconds: 0\n"), 0o600))
	_, err := LoadChecked(retry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot.retry_cooldown_seconds")

	pause := filepath.Join(dir, "pause.yml")
	require.NoError(t, os.WriteFile(pause, []byte("bot:\n  exhausted_pause_seconds: 0\n"), 0o600))
	_, err = LoadChecked(pause)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot.exhausted_pause_seconds")

	ok := filepath.Join(dir, "ok.yml")
	require.NoError(t, os.WriteFile(ok, []byte("search:\n  query: \"  golang  \"\n"), 0o600))
	cfg, err := LoadChecked(ok)
	require.NoError(t, err)
	assert.Equal(t, "golang", cfg.Search.Query)
	assert.Equal(t, 60, cfg.Bot.RetryCooldownSeconds)
}
