// Package app — сборка компонентов из конфигурации. Общая для боевого
// бинаря и бенчмарка, чтобы проводка не расходилась.
package app

import (
	"fmt"
	"strings"
	"time"

	"FMGoalMusic/internal/audio"
	"FMGoalMusic/internal/bus"
	"FMGoalMusic/internal/capture"
	"FMGoalMusic/internal/config"
	"FMGoalMusic/internal/detect"
	"FMGoalMusic/internal/latency"
	"FMGoalMusic/internal/lexicon"
	"FMGoalMusic/internal/ocr"
	"FMGoalMusic/internal/pipeline"
	"FMGoalMusic/internal/team"
	"FMGoalMusic/internal/vision"

	"go.uber.org/zap"
)

// Region строит область захвата из конфигурации.
func Region(cfg *config.Config) capture.Region {
	return capture.Region{
		X:       cfg.Capture.X,
		Y:       cfg.Capture.Y,
		Width:   cfg.Capture.Width,
		Height:  cfg.Capture.Height,
		Monitor: cfg.Capture.Monitor,
	}
}

// Threshold строит режим бинаризации из конфигурации.
func Threshold(cfg *config.Config) vision.Threshold {
	th := vision.Threshold{Mode: vision.ThresholdAuto}
	if strings.EqualFold(cfg.OCR.ThresholdMode, "manual") {
		th.Mode = vision.ThresholdManual
		th.Value = uint8(cfg.OCR.ThresholdValue)
	}
	return th
}

// OCRMode строит режим распознавания из конфигурации.
func OCRMode(cfg *config.Config) ocr.Mode {
	if strings.EqualFold(cfg.OCR.Mode, "auto") {
		return ocr.ModeAuto
	}
	return ocr.ModeSingleLine
}

// AudioSources переводит конфигурацию аудио в карту источников.
func AudioSources(cfg *config.Config) map[audio.SourceType]audio.SourceConfig {
	conv := func(sc config.AudioSourceConfig) audio.SourceConfig {
		return audio.SourceConfig{
			Path:        sc.Path,
			Enabled:     sc.Enabled,
			Volume:      sc.Volume,
			FadeIn:      time.Duration(sc.FadeInMS) * time.Millisecond,
			FadeOut:     time.Duration(sc.FadeOutMS) * time.Millisecond,
			MaxDuration: time.Duration(sc.MaxSeconds) * time.Second,
			Exclusive:   sc.Exclusive,
		}
	}
	return map[audio.SourceType]audio.SourceConfig{
		audio.SourceGoalMusic:    conv(cfg.Audio.GoalMusic),
		audio.SourceGoalAmbiance: conv(cfg.Audio.GoalAmbiance),
		audio.SourceMatchStart:   conv(cfg.Audio.MatchStart),
		audio.SourceMatchEnd:     conv(cfg.Audio.MatchEnd),
		audio.SourcePreview:      conv(cfg.Audio.Preview),
	}
}

// BuildAudio создаёт движок и триггер, грузит включённые источники в память
// и регистрирует обработчики аудио-команд. Отсутствующий файл — предупреждение,
// не ошибка: детекция должна работать и с частично настроенным звуком.
func BuildAudio(cfg *config.Config, b *bus.Bus, logger *zap.SugaredLogger) (*audio.Engine, *audio.Trigger, error) {
	engine := audio.NewEngine(logger)
	sources := AudioSources(cfg)
	for src, sc := range sources {
		if !sc.Enabled || sc.Path == "" {
			continue
		}
		if err := engine.Load(src, audio.ResolvePath(sc.Path)); err != nil {
			logger.Warnw("Audio source not loaded", "source", src, "path", sc.Path, "error", err)
		}
	}
	trigger := audio.NewTrigger(b, engine, sources, logger)
	if err := trigger.Register(); err != nil {
		return nil, nil, err
	}
	return engine, trigger, nil
}

// BuildMatcher ищет выбранную команду в справочнике и возвращает матчер.
// Пустой ключ команды — допустимо: гол будет засчитываться любой команде.
func BuildMatcher(cfg *config.Config, logger *zap.SugaredLogger) (*team.Matcher, error) {
	if cfg.Detection.TeamKey == "" {
		return nil, nil
	}
	store, err := team.LoadStore(cfg.Detection.TeamsPath)
	if err != nil {
		return nil, err
	}
	t, err := store.Find(cfg.Detection.League, cfg.Detection.TeamKey)
	if err != nil {
		return nil, fmt.Errorf("selected team: %w", err)
	}
	logger.Infow("Selected team", "league", t.League, "team", t.DisplayName, "variations", len(t.Variations))
	return team.NewMatcher(t), nil
}

// BuildPipeline собирает конвейер с боевыми источником кадров и распознавателем.
func BuildPipeline(cfg *config.Config, b *bus.Bus, rec *latency.Recorder, logger *zap.SugaredLogger) (*pipeline.Pipeline, error) {
	store, err := lexicon.Load(cfg.Detection.LexiconDir)
	if err != nil {
		return nil, err
	}
	matcher, err := BuildMatcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Threshold:      Threshold(cfg),
		MorphOpen:      cfg.OCR.MorphOpen,
		TickInterval:   time.Duration(cfg.Detection.TickIntervalMS) * time.Millisecond,
		PausedInterval: time.Duration(cfg.Detection.PausedIntervalMS) * time.Millisecond,
		Cooldown:       time.Duration(cfg.Detection.CooldownMS) * time.Millisecond,
		Lexicon:        store.Lookup(cfg.Detection.Language),
		Matcher:        matcher,
	}

	region := Region(cfg)
	lang := cfg.Detection.Language
	mode := OCRMode(cfg)
	deps := pipeline.Deps{
		Bus:      b,
		Machine:  pipeline.NewMachine(b, logger),
		Registry: DefaultRegistry(),
		Recorder: rec,
		NewSource: func() (pipeline.FrameSource, error) {
			return capture.New(region)
		},
		NewReader: func() (pipeline.TextReader, error) {
			return ocr.New(lang, mode)
		},
	}
	return pipeline.New(opts, deps, logger), nil
}

// DefaultRegistry — детекторы в эталонном порядке: гол раньше остальных,
// голевые фразы критичны ко времени реакции.
func DefaultRegistry() *detect.Registry {
	return detect.NewRegistry(
		detect.NewGoalDetector(true),
		detect.NewKickoffDetector(true),
		detect.NewMatchEndDetector(true),
	)
}
