package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FMGoalMusic/internal/app"
	"FMGoalMusic/internal/benchmark"
	"FMGoalMusic/internal/bus"
	"FMGoalMusic/internal/config"
	"FMGoalMusic/internal/latency"

	"go.uber.org/zap"
)

// Бенчмарк бюджета задержки: прогрев, N тиков, таблица по стадиям и вердикт
// PASS/FAIL относительно p95 полного тика. Живой режим гоняет настоящий
// конвейер (экран + tesseract), синтетический — фиктивные стадии.
func main() {
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, stopSig := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSig()

	rec := latency.NewRecorder(time.Duration(cfg.Benchmark.BudgetMS) * time.Millisecond)
	bcfg := benchmark.Config{Warmup: cfg.Benchmark.Warmup, Iterations: cfg.Benchmark.Iterations}

	var tick benchmark.TickFunc
	if cfg.Benchmark.Synthetic {
		sugar.Infow("Benchmark mode: synthetic stages")
		tick = benchmark.SyntheticTick(
			8*time.Millisecond,  // capture
			2*time.Millisecond,  // preprocess
			15*time.Millisecond, // recognize
			100*time.Microsecond,
		)
	} else {
		sugar.Infow("Benchmark mode: live pipeline", "region", app.Region(cfg).String())
		b := bus.New()
		defer b.Close()
		p, err := app.BuildPipeline(cfg, b, rec, sugar)
		if err != nil {
			sugar.Errorw("Failed to build pipeline", "error", err)
			os.Exit(1)
		}
		sess, err := p.OpenSession()
		if err != nil {
			sugar.Errorw("Failed to open detection session", "error", err)
			os.Exit(1)
		}
		defer sess.Close()
		tick = sess.Tick
	}

	rep, err := benchmark.Run(ctx, bcfg, rec, tick, sugar)
	if err != nil {
		sugar.Errorw("Benchmark aborted", "error", err)
		os.Exit(1)
	}

	fmt.Print(rep.Render())
	if !rep.Pass {
		os.Exit(1)
	}
}
