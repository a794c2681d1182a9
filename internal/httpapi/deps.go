package httpapi

import (
	"context"
	"sync/atomic"

	"autoapply-engine/internal/bot"
	"autoapply-engine/internal/config"
	"autoapply-engine/internal/events"
	"autoapply-engine/internal/hh"
	"autoapply-engine/internal/store"

	"go.uber.org/zap"
)

type Deps struct {
	Logger *zap.Logger
	Hub    *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Snapshot builds the immutable input of a session from the current
	// config and the keychain.
	Snapshot func() config.Snapshot
	// SetSecret stores a credential by name.
	SetSecret func(name, value string) error

	Tools       bot.ToolkitFactory
	ListResumes func(ctx context.Context, snap config.Snapshot) ([]hh.Resume, error)

	Bot    *bot.Engine
	Manual *bot.ManualApplier

	History *store.History
	Logos   *store.Logos // optional

	Visible *VisibleSet

	// Shutdown is wired by main; an empty token disables /shutdown.
	ShutdownToken string
	Shutdown      func()
}
