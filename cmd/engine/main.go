package main

import (
	"context"
	"log"
	"time"

	"autoapply-engine/internal/bot"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			newAppEnv,
			newLogger,
			newStore,
			newCache,
			newHub,
			bot.NewGate,
			newNATSSink,
			newSink,
			newLimiter,
			newToolkitFactory,
			newResumeLister,
			newEngine,
			newManualApplier,
			newRouter,
		),
		fx.Invoke(
			registerTracer,
			registerRetention,
			registerServer,
		),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	<-app.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
