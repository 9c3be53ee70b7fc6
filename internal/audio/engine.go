// Package audio — аудио-подсистема: единственный владелец выходного потока
// процесса, декодированные в память буферы и запуск воспроизведения с
// цепочкой эффектов по событиям детекции.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"
)

var (
	ErrSourceNotLoaded   = errors.New("audio source not loaded")
	ErrUnsupportedFormat = errors.New("unsupported audio format; use mp3 or wav")
)

type clip struct {
	buf *beep.Buffer
}

// Engine декодирует файлы в память один раз при загрузке и запускает
// воспроизведение без дискового ввода-вывода на горячем пути.
// Динамик процесса инициализируется один раз, при первой загрузке.
type Engine struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	rate    beep.SampleRate
	ready   bool
	clips   map[SourceType]*clip
	playing playset
}

func NewEngine(logger *zap.SugaredLogger) *Engine {
	return &Engine{
		logger:  logger,
		clips:   make(map[SourceType]*clip),
		playing: make(playset),
	}
}

// playset — играющие экземпляры по источникам. У неэксклюзивного источника
// экземпляров может быть несколько; Stop обязан дотянуться до каждого.
type playset map[SourceType][]*beep.Ctrl

func (p playset) add(src SourceType, c *beep.Ctrl) {
	p[src] = append(p[src], c)
}

// remove убирает завершившийся экземпляр, не трогая остальные.
func (p playset) remove(src SourceType, c *beep.Ctrl) {
	ctrls := p[src]
	for i, cur := range ctrls {
		if cur == c {
			p[src] = append(ctrls[:i], ctrls[i+1:]...)
			break
		}
	}
	if len(p[src]) == 0 {
		delete(p, src)
	}
}

// take изымает все экземпляры источника и возвращает их для остановки.
func (p playset) take(src SourceType) []*beep.Ctrl {
	ctrls := p[src]
	delete(p, src)
	return ctrls
}

// Load декодирует файл целиком в память. Формат определяется расширением.
func (e *Engine) Load(src SourceType, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "wav":
		streamer, format, err = wav.Decode(f)
	case "mp3", "":
		streamer, format, err = mp3.Decode(f)
	default:
		return ErrUnsupportedFormat
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		e.rate = format.SampleRate
		e.ready = true
	}
	e.clips[src] = &clip{buf: buf}
	e.logger.Infow("Audio source loaded", "source", src, "path", path,
		"duration", format.SampleRate.D(buf.Len()).Round(time.Millisecond).String())
	return nil
}

// Loaded сообщает, загружен ли источник.
func (e *Engine) Loaded(src SourceType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.clips[src]
	return ok
}

// Play запускает воспроизведение источника с цепочкой эффектов и сразу
// возвращается, не дожидаясь окончания. Если эксклюзивный источник уже
// играет, предыдущий экземпляр останавливается (вытеснение, не очередь).
func (e *Engine) Play(src SourceType, chain EffectChain) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clips[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotLoaded, src)
	}
	if chain.Exclusive {
		e.stopLocked(src)
	}

	clipRate := c.buf.Format().SampleRate
	total := c.buf.Len()
	if chain.MaxDuration > 0 {
		if n := clipRate.N(chain.MaxDuration); n < total {
			total = n
		}
	}

	var s beep.Streamer = beep.Take(total, c.buf.Streamer(0, c.buf.Len()))
	s = &fader{
		s:       s,
		fadeIn:  clipRate.N(chain.FadeIn),
		fadeOut: clipRate.N(chain.FadeOut),
		total:   total,
	}
	s = &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeDB(chain.Volume),
		Silent:   chain.Volume <= 0,
	}
	if clipRate != e.rate {
		s = beep.Resample(4, clipRate, e.rate, s)
	}

	ctrl := &beep.Ctrl{Streamer: s}
	e.playing.add(src, ctrl)
	// Колбэк приходит из горутины микшера под его блокировкой,
	// поэтому уборка уходит в отдельную горутину.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		go e.finished(src, ctrl)
	})))
	return nil
}

func (e *Engine) finished(src SourceType, ctrl *beep.Ctrl) {
	e.mu.Lock()
	e.playing.remove(src, ctrl)
	e.mu.Unlock()
}

// Stop останавливает играющий экземпляр источника, если он есть.
func (e *Engine) Stop(src SourceType) {
	e.mu.Lock()
	e.stopLocked(src)
	e.mu.Unlock()
}

// StopAll останавливает все играющие источники.
func (e *Engine) StopAll() {
	e.mu.Lock()
	for src := range e.playing {
		e.stopLocked(src)
	}
	e.mu.Unlock()
}

func (e *Engine) stopLocked(src SourceType) {
	ctrls := e.playing.take(src)
	if len(ctrls) == 0 {
		return
	}
	speaker.Lock()
	for _, ctrl := range ctrls {
		ctrl.Streamer = nil
	}
	speaker.Unlock()
}

// volumeDB переводит громкость 0-100 в децибелы для effects.Volume:
// 100 — без изменения, каждый шаг вниз на 5 единиц — примерно -1 dB базы 2.
func volumeDB(v int) float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return float64(v-100) / 5.0
}
