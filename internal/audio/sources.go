package audio

import (
	"os"
	"path/filepath"
	"time"
)

// SourceType — логический источник звука. На каждый тип одновременно играет
// не более одного экземпляра; запуск нового вытесняет предыдущий,
// если источник не помечен как неэксклюзивный.
type SourceType string

const (
	SourceGoalMusic    SourceType = "goal_music"
	SourceGoalAmbiance SourceType = "goal_ambiance"
	SourceMatchStart   SourceType = "match_start"
	SourceMatchEnd     SourceType = "match_end"
	SourcePreview      SourceType = "preview"
)

// SourceConfig — файл и цепочка эффектов одного источника.
type SourceConfig struct {
	Path        string
	Enabled     bool
	Volume      int // 0-100, 100 — без изменения громкости
	FadeIn      time.Duration
	FadeOut     time.Duration
	MaxDuration time.Duration // 0 — без жёсткого лимита
	Exclusive   bool
}

// Chain собирает цепочку эффектов воспроизведения из конфигурации источника.
func (sc SourceConfig) Chain() EffectChain {
	return EffectChain{
		FadeIn:      sc.FadeIn,
		FadeOut:     sc.FadeOut,
		Volume:      sc.Volume,
		MaxDuration: sc.MaxDuration,
		Exclusive:   sc.Exclusive,
	}
}

// EffectChain — параметры одного запуска: fade-in → громкость → жёсткий
// лимит длительности → fade-out.
type EffectChain struct {
	FadeIn      time.Duration
	FadeOut     time.Duration
	Volume      int
	MaxDuration time.Duration
	Exclusive   bool
}

// ResolvePath ищет аудиофайл сначала рядом с бинарём, затем относительно
// рабочей директории.
func ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), path)
		if _, statErr := os.Stat(cand); statErr == nil {
			return cand
		}
	}
	return filepath.FromSlash(path)
}
