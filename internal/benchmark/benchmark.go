// Package benchmark — операционный режим проверки бюджета задержки:
// прогрев, фиксированное число тиков, отчёт по стадиям с вердиктом.
package benchmark

import (
	"context"
	"time"

	"FMGoalMusic/internal/latency"

	"go.uber.org/zap"
)

// TickFunc — одна итерация измеряемого конвейера. Реализация обязана
// отмечать стадии в переданном таймере и вызывать Done.
type TickFunc func(tt *latency.TickTimer) error

// Config — параметры прогона.
type Config struct {
	Warmup     int // тиков прогрева, не попадают в отчёт
	Iterations int // измеряемых тиков
}

// Run выполняет прогрев, сбрасывает накопленное и измеряет Iterations тиков.
// Первая же ошибка тика прерывает прогон: бенчмарк не ретраит стадии,
// как и боевой конвейер.
func Run(ctx context.Context, cfg Config, rec *latency.Recorder, tick TickFunc, logger *zap.SugaredLogger) (latency.Report, error) {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 500
	}
	if cfg.Warmup < 0 {
		cfg.Warmup = 0
	}

	logger.Infow("Benchmark warm-up", "ticks", cfg.Warmup)
	for i := 0; i < cfg.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return latency.Report{}, err
		}
		if err := tick(rec.StartTick()); err != nil {
			return latency.Report{}, err
		}
	}
	rec.Reset()

	logger.Infow("Benchmark run", "ticks", cfg.Iterations)
	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return latency.Report{}, err
		}
		if err := tick(rec.StartTick()); err != nil {
			return latency.Report{}, err
		}
	}
	rep := rec.Report()
	logger.Infow("Benchmark finished",
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"pass", rep.Pass, "slowest", rep.Slowest)
	return rep, nil
}

// SyntheticTick возвращает TickFunc с фиксированными длительностями стадий.
// Используется для прогона измерительного тракта без экрана и tesseract.
func SyntheticTick(capture, preprocess, recognize, detectDur time.Duration) TickFunc {
	return func(tt *latency.TickTimer) error {
		time.Sleep(capture)
		tt.Mark(latency.StageCapture)
		time.Sleep(preprocess)
		tt.Mark(latency.StagePreprocess)
		time.Sleep(recognize)
		tt.Mark(latency.StageRecognize)
		time.Sleep(detectDur)
		tt.Mark(latency.StageDetect)
		tt.Done()
		return nil
	}
}
