package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode bool `env:"DEBUG_MODE"` // Режим дебага

	Capture   CaptureConfig
	OCR       OCRConfig
	Detection DetectionConfig
	Audio     AudioConfig
	Benchmark BenchmarkConfig
}

// CaptureConfig — область захвата в координатах монитора. Неизменяема на
// время сессии детекции.
type CaptureConfig struct {
	Monitor int `env:"CAPTURE_MONITOR"` // Индекс монитора
	X       int `env:"CAPTURE_X"`       // Левый верхний угол области
	Y       int `env:"CAPTURE_Y"`
	Width   int `env:"CAPTURE_WIDTH"`
	Height  int `env:"CAPTURE_HEIGHT"`
}

// OCRConfig — параметры препроцессинга и движка распознавания.
type OCRConfig struct {
	Mode           string `env:"OCR_MODE"`            // single_line|auto
	ThresholdMode  string `env:"OCR_THRESHOLD_MODE"`  // auto (Оцу)|manual
	ThresholdValue int    `env:"OCR_THRESHOLD_VALUE"` // Порог 0-255 при manual
	MorphOpen      bool   `env:"OCR_MORPH_OPEN"`      // Морфологическое открытие 3x3 (дороже по времени)
}

// DetectionConfig — язык, выбранная команда и тайминги конвейера.
type DetectionConfig struct {
	Language         string `env:"DETECT_LANGUAGE"`      // Код языка фраз и OCR (en, tr, ...)
	League           string `env:"TEAM_LEAGUE"`          // Лига выбранной команды
	TeamKey          string `env:"TEAM_KEY"`             // Ключ выбранной команды в справочнике
	CooldownMS       int    `env:"DEBOUNCE_COOLDOWN_MS"` // Окно подавления повторных срабатываний
	TickIntervalMS   int    `env:"TICK_INTERVAL_MS"`     // Пауза между тиками
	PausedIntervalMS int    `env:"PAUSED_POLL_MS"`       // Пауза опроса вне Running
	TeamsPath        string `env:"TEAMS_PATH"`           // Файл справочника команд (пусто — вшитый)
	LexiconDir       string `env:"LEXICON_DIR"`          // Каталог с наборами фраз (пусто — вшитые)
}

// AudioSourceConfig — файл и цепочка эффектов одного источника звука.
type AudioSourceConfig struct {
	Path       string `env:"PATH"`
	Enabled    bool   `env:"ENABLED"`
	Volume     int    `env:"VOLUME"`      // 0-100, 100 — без изменения
	FadeInMS   int    `env:"FADE_IN_MS"`
	FadeOutMS  int    `env:"FADE_OUT_MS"`
	MaxSeconds int    `env:"MAX_SECONDS"` // Жёсткий лимит длительности, 0 — без лимита
	Exclusive  bool   `env:"EXCLUSIVE"`   // Новый запуск вытесняет играющий экземпляр
}

type AudioConfig struct {
	GoalMusic    AudioSourceConfig `envPrefix:"GOAL_MUSIC_"`
	GoalAmbiance AudioSourceConfig `envPrefix:"GOAL_AMBIANCE_"`
	MatchStart   AudioSourceConfig `envPrefix:"MATCH_START_"`
	MatchEnd     AudioSourceConfig `envPrefix:"MATCH_END_"`
	Preview      AudioSourceConfig `envPrefix:"PREVIEW_"`
}

// BenchmarkConfig — операционный режим проверки бюджета задержки.
type BenchmarkConfig struct {
	Iterations int  `env:"BENCH_ITERATIONS"` // Измеряемых тиков
	Warmup     int  `env:"BENCH_WARMUP"`     // Тиков прогрева
	Synthetic  bool `env:"BENCH_SYNTHETIC"`  // Синтетические стадии вместо экрана и tesseract
	BudgetMS   int  `env:"BENCH_BUDGET_MS"`  // Целевой p95 полного тика
}

// Defaults возвращает конфигурацию с предустановленными значениями.
// Перекрывается .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode: false,
		Capture: CaptureConfig{
			Monitor: 0,
			X:       0,
			Y:       0,
			Width:   800,
			Height:  90,
		},
		OCR: OCRConfig{
			Mode:           "single_line",
			ThresholdMode:  "auto",
			ThresholdValue: 128,
			MorphOpen:      false,
		},
		Detection: DetectionConfig{
			Language:         "en",
			League:           "Premier League",
			TeamKey:          "manchester-united",
			CooldownMS:       8000,
			TickIntervalMS:   50,
			PausedIntervalMS: 300,
		},
		Audio: AudioConfig{
			GoalMusic: AudioSourceConfig{
				Path: "sound/goal.mp3", Enabled: true, Volume: 100,
				FadeInMS: 150, FadeOutMS: 500, MaxSeconds: 20, Exclusive: true,
			},
			GoalAmbiance: AudioSourceConfig{
				Path: "sound/ambiance.mp3", Enabled: true, Volume: 70,
				FadeInMS: 300, FadeOutMS: 800, MaxSeconds: 25, Exclusive: true,
			},
			MatchStart: AudioSourceConfig{
				Path: "sound/kickoff.mp3", Enabled: true, Volume: 90,
				FadeOutMS: 300, MaxSeconds: 10, Exclusive: true,
			},
			MatchEnd: AudioSourceConfig{
				Path: "sound/fulltime.mp3", Enabled: true, Volume: 90,
				FadeOutMS: 300, MaxSeconds: 15, Exclusive: true,
			},
			Preview: AudioSourceConfig{
				Enabled: true, Volume: 100, Exclusive: true,
			},
		},
		Benchmark: BenchmarkConfig{
			Iterations: 500,
			Warmup:     50,
			Synthetic:  false,
			BudgetMS:   100,
		},
	}
}

// NewConfig загружает конфигурацию приложения.
func NewConfig() *Config {
	_ = godotenv.Load()

	// Стартуем с дефолтов, затем перекрываем .env/окружением и флагами
	cfg := Defaults()
	_ = env.Parse(cfg)

	flag.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	// Область захвата
	flag.IntVar(&cfg.Capture.Monitor, "capture-monitor", cfg.Capture.Monitor, "индекс монитора для захвата")
	flag.IntVar(&cfg.Capture.X, "capture-x", cfg.Capture.X, "область захвата: X")
	flag.IntVar(&cfg.Capture.Y, "capture-y", cfg.Capture.Y, "область захвата: Y")
	flag.IntVar(&cfg.Capture.Width, "capture-width", cfg.Capture.Width, "область захвата: ширина")
	flag.IntVar(&cfg.Capture.Height, "capture-height", cfg.Capture.Height, "область захвата: высота")
	// OCR
	flag.StringVar(&cfg.OCR.Mode, "ocr-mode", cfg.OCR.Mode, "режим распознавания: single_line|auto")
	flag.StringVar(&cfg.OCR.ThresholdMode, "ocr-threshold-mode", cfg.OCR.ThresholdMode, "режим порога бинаризации: auto|manual")
	flag.IntVar(&cfg.OCR.ThresholdValue, "ocr-threshold-value", cfg.OCR.ThresholdValue, "порог бинаризации 0-255 (для manual)")
	flag.BoolVar(&cfg.OCR.MorphOpen, "ocr-morph-open", cfg.OCR.MorphOpen, "включить морфологическое открытие после бинаризации")
	// Детекция
	flag.StringVar(&cfg.Detection.Language, "language", cfg.Detection.Language, "код языка игровых фраз (en, tr, ...)")
	flag.StringVar(&cfg.Detection.League, "team-league", cfg.Detection.League, "лига выбранной команды")
	flag.StringVar(&cfg.Detection.TeamKey, "team-key", cfg.Detection.TeamKey, "ключ выбранной команды")
	flag.IntVar(&cfg.Detection.CooldownMS, "cooldown-ms", cfg.Detection.CooldownMS, "окно дебаунса срабатываний, мс")
	flag.IntVar(&cfg.Detection.TickIntervalMS, "tick-interval-ms", cfg.Detection.TickIntervalMS, "пауза между тиками, мс")
	flag.IntVar(&cfg.Detection.PausedIntervalMS, "paused-poll-ms", cfg.Detection.PausedIntervalMS, "пауза опроса вне Running, мс")
	flag.StringVar(&cfg.Detection.TeamsPath, "teams-path", cfg.Detection.TeamsPath, "файл справочника команд (пусто — вшитый)")
	flag.StringVar(&cfg.Detection.LexiconDir, "lexicon-dir", cfg.Detection.LexiconDir, "каталог наборов фраз (пусто — вшитые)")
	// Аудио (пути и громкости; остальное — через ENV)
	flag.StringVar(&cfg.Audio.GoalMusic.Path, "goal-music-path", cfg.Audio.GoalMusic.Path, "файл музыки гола (mp3 или wav)")
	flag.IntVar(&cfg.Audio.GoalMusic.Volume, "goal-music-volume", cfg.Audio.GoalMusic.Volume, "громкость музыки гола 0-100")
	flag.StringVar(&cfg.Audio.GoalAmbiance.Path, "goal-ambiance-path", cfg.Audio.GoalAmbiance.Path, "файл атмосферы трибун")
	flag.IntVar(&cfg.Audio.GoalAmbiance.Volume, "goal-ambiance-volume", cfg.Audio.GoalAmbiance.Volume, "громкость атмосферы 0-100")
	flag.StringVar(&cfg.Audio.MatchStart.Path, "match-start-path", cfg.Audio.MatchStart.Path, "файл звука начала матча")
	flag.StringVar(&cfg.Audio.MatchEnd.Path, "match-end-path", cfg.Audio.MatchEnd.Path, "файл звука конца матча")
	// Бенчмарк
	flag.IntVar(&cfg.Benchmark.Iterations, "bench-iterations", cfg.Benchmark.Iterations, "число измеряемых тиков бенчмарка")
	flag.IntVar(&cfg.Benchmark.Warmup, "bench-warmup", cfg.Benchmark.Warmup, "число тиков прогрева бенчмарка")
	flag.BoolVar(&cfg.Benchmark.Synthetic, "bench-synthetic", cfg.Benchmark.Synthetic, "синтетический режим бенчмарка (без экрана и tesseract)")
	flag.IntVar(&cfg.Benchmark.BudgetMS, "bench-budget-ms", cfg.Benchmark.BudgetMS, "бюджет p95 полного тика, мс")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate проверяет значения, которые молча испортили бы сессию.
func (c *Config) Validate() error {
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return fmt.Errorf("config: capture region %dx%d is empty", c.Capture.Width, c.Capture.Height)
	}
	if c.OCR.ThresholdValue < 0 || c.OCR.ThresholdValue > 255 {
		return fmt.Errorf("config: threshold value %d out of 0-255", c.OCR.ThresholdValue)
	}
	switch strings.ToLower(c.OCR.ThresholdMode) {
	case "auto", "manual":
	default:
		return fmt.Errorf("config: unknown threshold mode %q", c.OCR.ThresholdMode)
	}
	switch strings.ToLower(c.OCR.Mode) {
	case "single_line", "auto":
	default:
		return fmt.Errorf("config: unknown ocr mode %q", c.OCR.Mode)
	}
	if c.Detection.CooldownMS < 0 {
		return fmt.Errorf("config: negative cooldown %d", c.Detection.CooldownMS)
	}
	return nil
}
