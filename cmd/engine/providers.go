package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"autoapply-engine/internal/bot"
	"autoapply-engine/internal/cache"
	"autoapply-engine/internal/cache/memory"
	"autoapply-engine/internal/cache/redis"
	"autoapply-engine/internal/config"
	apperrors "autoapply-engine/internal/errors"
	"autoapply-engine/internal/events"
	"autoapply-engine/internal/hh"
	"autoapply-engine/internal/httpapi"
	"autoapply-engine/internal/llm"
	"autoapply-engine/internal/logging"
	"autoapply-engine/internal/pipeline"
	"autoapply-engine/internal/scheduler"
	"autoapply-engine/internal/secrets"
	"autoapply-engine/internal/store"
	"autoapply-engine/internal/telemetry"
	"autoapply-engine/internal/util"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// appEnv is the process-wide state every provider reads: where the data
// lives and the reloadable config.
type appEnv struct {
	DataDir       string
	UserCfgPath   string
	CfgVal        *atomic.Value // stores config.Config
	LoadCfg       func() (config.Config, error)
	ShutdownToken string
}

func (rt *appEnv) Config() config.Config {
	return rt.CfgVal.Load().(config.Config)
}

type ResumeLister func(ctx context.Context, snap config.Snapshot) ([]hh.Resume, error)

func newAppEnv() (*appEnv, error) {
	// The desktop shell passes a data dir; otherwise use the working directory.
	dataDir := os.Getenv("AUTOAPPLY_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	config.LoadDotEnv(".env", filepath.Join(dataDir, ".env"))

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		return nil, fmt.Errorf("config bootstrap failed: %w", err)
	}

	loadCfg := func() (config.Config, error) {
		return config.LoadChecked(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	cfg.App.DataDir = dataDir

	rt := &appEnv{
		DataDir:     dataDir,
		UserCfgPath: userCfgPath,
		CfgVal:      &atomic.Value{},
		LoadCfg:     loadCfg,
	}
	rt.CfgVal.Store(cfg)

	rt.ShutdownToken = os.Getenv("AUTOAPPLY_SHUTDOWN_TOKEN")
	if rt.ShutdownToken == "" {
		if rt.ShutdownToken, err = randomToken(16); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func newLogger(lc fx.Lifecycle, rt *appEnv) (*zap.Logger, error) {
	cfg := rt.Config()
	logger, err := logging.New(cfg.App.LogLevel, cfg.App.Development)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		_ = logger.Sync()
		return nil
	}})
	return logger, nil
}

type storeOut struct {
	fx.Out

	DB      *store.DB
	History *store.History
	Logos   *store.Logos
}

func newStore(lc fx.Lifecycle, rt *appEnv, logger *zap.Logger) (storeOut, error) {
	lock, err := store.LockDataDir(rt.DataDir)
	if err != nil {
		return storeOut{}, err
	}

	dbPath := filepath.Join(rt.DataDir, "autoapply.db")
	db, err := store.Open(dbPath)
	if err != nil {
		_ = lock.Unlock()
		return storeOut{}, err
	}
	if err := store.Migrate(db.Pool); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return storeOut{}, err
	}

	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		err := db.Close()
		_ = lock.Unlock()
		return err
	}})
	logger.Info("database ready", zap.String("path", dbPath))

	return storeOut{
		DB:      db,
		History: store.NewHistory(db.Pool, logger),
		Logos:   store.NewLogos(db.Pool, &http.Client{Timeout: 15 * time.Second}, logger, "hhcdn.ru", "hh.ru"),
	}, nil
}

// newCache prefers redis when configured and reachable, and falls back to
// the in-process LRU.
func newCache(lc fx.Lifecycle, rt *appEnv, logger *zap.Logger) cache.Cache {
	cfg := rt.Config()
	opts := cache.DefaultOptions()
	if cfg.Cache.Size > 0 {
		opts.Size = cfg.Cache.Size
	}
	if cfg.LLM.ExpansionCacheHours > 0 {
		opts.DefaultTTL = time.Duration(cfg.LLM.ExpansionCacheHours) * time.Hour
	}
	opts.RedisURL = cfg.Cache.RedisAddr
	opts.RedisPassword = cfg.Cache.RedisPassword
	opts.RedisDB = cfg.Cache.RedisDB

	var c cache.Cache = memory.New(opts)
	if opts.RedisURL != "" {
		rc := redis.New(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, using memory cache", zap.String("addr", opts.RedisURL), zap.Error(err))
			_ = rc.Close()
		} else {
			c = rc
		}
	}

	lc.Append(fx.Hook{OnStop: func(context.Context) error { return c.Close() }})
	return c
}

func newHub() *events.Hub {
	return events.NewHub()
}

// newNATSSink returns nil when no NATS url is configured.
func newNATSSink(lc fx.Lifecycle, rt *appEnv, logger *zap.Logger) (*events.NATSSink, error) {
	cfg := rt.Config()
	if cfg.Events.NATSURL == "" {
		return nil, nil
	}
	ns, err := events.NewNATSSink(cfg.Events.NATSURL, cfg.Events.Subject, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return ns.Close() }})
	return ns, nil
}

func newSink(hub *events.Hub, history *store.History, ns *events.NATSSink) events.Sink {
	sinks := events.Fanout{hub, history}
	if ns != nil {
		sinks = append(sinks, ns)
	}
	return sinks
}

func newLimiter(rt *appEnv) *util.HostLimiter {
	cfg := rt.Config()
	return util.NewHostLimiter(cfg.HH.RequestsPerSecond, cfg.HH.Burst)
}

// newToolkitFactory binds the job board and language model to a snapshot's
// credentials. Client settings come from the config current at call time.
func newToolkitFactory(rt *appEnv, limiter *util.HostLimiter, c cache.Cache, logger *zap.Logger) bot.ToolkitFactory {
	return func(ctx context.Context, snap config.Snapshot) (bot.Toolkit, error) {
		cfg := rt.Config()
		board := hh.New(hh.OptionsFromConfig(cfg), snap.Tokens.AccessToken, limiter, logger)

		model, err := llm.NewModel(ctx, cfg, snap.Tokens.LLMKey)
		if err != nil {
			return bot.Toolkit{}, apperrors.InvalidInput("language model is misconfigured", err)
		}
		ttl := time.Duration(cfg.LLM.ExpansionCacheHours) * time.Hour
		letters := llm.New(model, c, ttl, logger)

		return bot.Toolkit{
			Search:  pipeline.New(board, letters, logger),
			Board:   board,
			Letters: letters,
		}, nil
	}
}

func newResumeLister(rt *appEnv, limiter *util.HostLimiter, logger *zap.Logger) ResumeLister {
	return func(ctx context.Context, snap config.Snapshot) ([]hh.Resume, error) {
		return hh.New(hh.OptionsFromConfig(rt.Config()), snap.Tokens.AccessToken, limiter, logger).ListResumes(ctx)
	}
}

func newEngine(lc fx.Lifecycle, rt *appEnv, tools bot.ToolkitFactory, sink events.Sink, gate *bot.Gate, history *store.History, logger *zap.Logger) *bot.Engine {
	e := bot.New(tools, sink, gate, logger,
		bot.WithTiming(bot.TimingFromConfig(rt.Config())),
		bot.WithHistory(history),
	)
	lc.Append(fx.Hook{OnStop: e.Shutdown})
	return e
}

func newManualApplier(rt *appEnv, tools bot.ToolkitFactory, gate *bot.Gate, history *store.History, logger *zap.Logger) *bot.ManualApplier {
	return bot.NewManualApplier(tools, gate, bot.TimingFromConfig(rt.Config()), history, logger)
}

type routerParams struct {
	fx.In

	Env         *appEnv
	Logger      *zap.Logger
	Hub         *events.Hub
	Tools       bot.ToolkitFactory
	ListResumes ResumeLister
	Bot         *bot.Engine
	Manual      *bot.ManualApplier
	History     *store.History
	Logos       *store.Logos
	Shutdowner  fx.Shutdowner
}

func newRouter(p routerParams) http.Handler {
	rt := p.Env
	return httpapi.NewRouter(httpapi.Deps{
		Logger:      p.Logger,
		Hub:         p.Hub,
		CfgVal:      rt.CfgVal,
		UserCfgPath: rt.UserCfgPath,
		LoadCfg:     rt.LoadCfg,
		Snapshot: func() config.Snapshot {
			return config.BuildSnapshot(rt.Config(), secrets.Tokens())
		},
		SetSecret:     secrets.Set,
		Tools:         p.Tools,
		ListResumes:   p.ListResumes,
		Bot:           p.Bot,
		Manual:        p.Manual,
		History:       p.History,
		Logos:         p.Logos,
		Visible:       httpapi.NewVisibleSet(),
		ShutdownToken: rt.ShutdownToken,
		Shutdown: func() {
			_ = p.Shutdowner.Shutdown()
		},
	})
}

func registerTracer(lc fx.Lifecycle, rt *appEnv) error {
	cfg := rt.Config()
	shutdown, err := telemetry.InitTracer(context.Background(), cfg.Telemetry.ServiceName, cfg.Telemetry.CollectorURL)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return nil
}

// registerRetention prunes old session logs once a day. Zero retention keeps
// everything.
func registerRetention(lc fx.Lifecycle, rt *appEnv, history *store.History, logger *zap.Logger) {
	days := rt.Config().History.RetentionDays
	if days <= 0 {
		return
	}
	retention := time.Duration(days) * 24 * time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				scheduler.Every(ctx, 24*time.Hour, "event-retention", logger, func(ctx context.Context) error {
					n, err := history.CleanupOldEvents(ctx, retention)
					if n > 0 {
						logger.Info("pruned session events", zap.Int64("deleted", n))
					}
					return err
				})
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func registerServer(lc fx.Lifecycle, rt *appEnv, handler http.Handler, shutdowner fx.Shutdowner, logger *zap.Logger) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(rt.Config().App.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			// The desktop shell reads this line to learn the shutdown token.
			fmt.Printf("AUTOAPPLY_SHUTDOWN_TOKEN=%s\n", rt.ShutdownToken)
			logger.Info("engine listening", zap.String("addr", "http://"+addr), zap.String("data_dir", rt.DataDir))

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
