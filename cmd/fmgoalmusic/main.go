package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"FMGoalMusic/internal/app"
	"FMGoalMusic/internal/bus"
	"FMGoalMusic/internal/config"
	"FMGoalMusic/internal/latency"
	"FMGoalMusic/internal/pipeline"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	// сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sugar.Infow("Starting FMGoalMusic",
		"DebugMode", cfg.DebugMode,
		"region", app.Region(cfg).String(),
		"language", cfg.Detection.Language,
	)

	b := bus.New()
	defer b.Close()

	rec := latency.NewRecorder(time.Duration(cfg.Benchmark.BudgetMS) * time.Millisecond)

	engine, trigger, err := app.BuildAudio(cfg, b, sugar)
	if err != nil {
		sugar.Errorw("Failed to build audio subsystem", "error", err)
		return
	}
	defer engine.StopAll()

	p, err := app.BuildPipeline(cfg, b, rec, sugar)
	if err != nil {
		sugar.Errorw("Failed to build detection pipeline", "error", err)
		return
	}

	// Управление сессией детекции через команды шины: один работающий
	// экземпляр конвейера, повторный старт — безобидный no-op.
	var (
		mu        sync.Mutex
		cancelRun context.CancelFunc
		wg        sync.WaitGroup
	)
	startDetection := func(bus.Command) error {
		mu.Lock()
		defer mu.Unlock()
		if p.Machine().Current().State != pipeline.StateStopped {
			sugar.Infow("Detection already running, start ignored")
			return nil
		}
		runCtx, cancel := context.WithCancel(ctx)
		cancelRun = cancel
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Run(runCtx); err != nil {
				sugar.Errorw("Detection stopped with error", "error", err)
			}
			mu.Lock()
			cancelRun = nil
			mu.Unlock()
		}()
		return nil
	}
	stopDetection := func(bus.Command) error {
		mu.Lock()
		defer mu.Unlock()
		if cancelRun != nil {
			cancelRun()
			cancelRun = nil
		}
		return nil
	}
	if err := b.Handle(bus.CmdStartDetection, startDetection); err != nil {
		sugar.Errorw("Failed to register command handler", "error", err)
		return
	}
	if err := b.Handle(bus.CmdStopDetection, stopDetection); err != nil {
		sugar.Errorw("Failed to register command handler", "error", err)
		return
	}

	// Аудио-триггер слушает события детекции в своей горутине
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := trigger.Run(ctx); err != nil && ctx.Err() == nil {
			sugar.Errorw("Audio trigger stopped", "error", err)
		}
	}()

	if err := b.Execute(bus.Command{Kind: bus.CmdStartDetection}); err != nil {
		sugar.Errorw("Failed to start detection", "error", err)
		return
	}

	<-ctx.Done()
	sugar.Infow("Shutting down")
	_ = b.Execute(bus.Command{Kind: bus.CmdStopDetection})
	wg.Wait()

	stats := b.Stats()
	sugar.Infow("Bus stats",
		"published", stats.Published,
		"delivered", stats.Delivered,
		"dropped", stats.Dropped,
		"executed", stats.Executed,
		"execFailed", stats.ExecFailed,
	)
}
