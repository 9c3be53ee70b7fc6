// Package pipeline — рабочий цикл захват → препроцессинг → распознавание →
// детекция и автомат состояний процесса. Один выделенный поток владеет
// захватчиком и распознавателем; наружу уходят только события на шине.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"FMGoalMusic/internal/bus"
	"FMGoalMusic/internal/debounce"
	"FMGoalMusic/internal/detect"
	"FMGoalMusic/internal/latency"
	"FMGoalMusic/internal/lexicon"
	"FMGoalMusic/internal/ocr"
	"FMGoalMusic/internal/team"
	"FMGoalMusic/internal/vision"

	"go.uber.org/zap"
)

// FrameSource отдаёт кадр области экрана.
type FrameSource interface {
	Capture() (*image.RGBA, error)
}

// TextReader извлекает текст из бинаризованного кадра.
type TextReader interface {
	Recognize(frame *image.Gray, capturedAt time.Time) (ocr.RecognizedText, error)
	Close() error
}

// Options — неизменяемые на время сессии параметры конвейера.
type Options struct {
	Threshold      vision.Threshold
	MorphOpen      bool
	TickInterval   time.Duration // пауза между тиками в Running
	PausedInterval time.Duration // пауза, когда конвейер не в Running
	Cooldown       time.Duration // окно дебаунса на каждый вид события
	Lexicon        lexicon.Lexicon
	Matcher        *team.Matcher // nil — гол засчитывается любой команде
}

// Deps — коллабораторы конвейера. Фабрики источника и распознавателя
// позволяют подменять платформенные части в тестах и бенчмарке.
type Deps struct {
	Bus       *bus.Bus
	Machine   *Machine
	Registry  *detect.Registry
	Recorder  *latency.Recorder
	NewSource func() (FrameSource, error)
	NewReader func() (TextReader, error)
}

type Pipeline struct {
	opts    Options
	deps    Deps
	windows map[detect.Kind]*debounce.Window
	logger  *zap.SugaredLogger
}

func New(opts Options, deps Deps, logger *zap.SugaredLogger) *Pipeline {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 50 * time.Millisecond
	}
	if opts.PausedInterval <= 0 {
		opts.PausedInterval = 300 * time.Millisecond
	}
	return &Pipeline{
		opts: opts,
		deps: deps,
		windows: map[detect.Kind]*debounce.Window{
			detect.KindGoal:     debounce.New(opts.Cooldown),
			detect.KindKickoff:  debounce.New(opts.Cooldown),
			detect.KindMatchEnd: debounce.New(opts.Cooldown),
		},
		logger: logger,
	}
}

// Machine возвращает автомат состояний конвейера.
func (p *Pipeline) Machine() *Machine { return p.deps.Machine }

// Session — открытая сессия детекции: инициализированные источник кадров и
// распознаватель, переиспользуемые каждый тик.
type Session struct {
	p      *Pipeline
	source FrameSource
	reader TextReader

	// буферы препроцессинга, перезаписываемые каждый тик
	bin      *image.Gray
	morphTmp *image.Gray
	morphDst *image.Gray
}

// OpenSession инициализирует захватчик и движок распознавания.
func (p *Pipeline) OpenSession() (*Session, error) {
	source, err := p.deps.NewSource()
	if err != nil {
		return nil, fmt.Errorf("init capture: %w", err)
	}
	reader, err := p.deps.NewReader()
	if err != nil {
		return nil, fmt.Errorf("init recognizer: %w", err)
	}
	return &Session{p: p, source: source, reader: reader}, nil
}

func (s *Session) Close() error {
	return s.reader.Close()
}

// Tick выполняет одну итерацию: стадии строго последовательны, границы
// отмечаются в tt. Ошибки захвата и распознавания фатальны для сессии.
func (s *Session) Tick(tt *latency.TickTimer) error {
	capturedAt := time.Now()
	frame, err := s.source.Capture()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	tt.Mark(latency.StageCapture)

	s.bin = vision.BinarizeInto(s.bin, frame, s.p.opts.Threshold)
	bin := s.bin
	if s.p.opts.MorphOpen {
		if s.morphTmp == nil {
			s.morphTmp = image.NewGray(bin.Rect)
			s.morphDst = image.NewGray(bin.Rect)
		}
		s.morphDst = vision.MorphOpenInto(s.morphDst, s.morphTmp, bin)
		bin = s.morphDst
	}
	tt.Mark(latency.StagePreprocess)

	text, err := s.reader.Recognize(bin, capturedAt)
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}
	tt.Mark(latency.StageRecognize)

	dctx := detect.Context{Text: text, Lexicon: s.p.opts.Lexicon}
	if s.p.opts.Matcher != nil {
		dctx.Team = s.p.opts.Matcher.Team()
	}
	res, name := s.p.deps.Registry.Run(dctx)
	s.p.handleResult(res, name, capturedAt)
	tt.Mark(latency.StageDetect)
	tt.Done()
	return nil
}

// handleResult применяет матчер команды и дебаунс, затем публикует событие.
// Дебаунс проверяется ровно один раз на обнаружение, до публикации.
func (p *Pipeline) handleResult(res detect.Result, detector string, at time.Time) {
	switch res.Kind {
	case detect.KindGoal:
		if p.opts.Matcher != nil {
			if res.TeamName == "" || !p.opts.Matcher.Matches(res.TeamName) {
				p.logger.Debugw("Goal for another team, ignoring", "team", res.TeamName)
				return
			}
		}
		if !p.windows[detect.KindGoal].ShouldTrigger(at) {
			return
		}
		p.logger.Infow("Goal detected", "detector", detector, "team", res.TeamName, "confidence", res.Confidence)
		p.deps.Bus.Publish(bus.NewGoalDetected(res.TeamName, at))

	case detect.KindKickoff:
		if !p.windows[detect.KindKickoff].ShouldTrigger(at) {
			return
		}
		p.logger.Infow("Match started", "detector", detector, "confidence", res.Confidence)
		p.deps.Bus.Publish(bus.NewMatchStarted(at))

	case detect.KindMatchEnd:
		if !p.windows[detect.KindMatchEnd].ShouldTrigger(at) {
			return
		}
		p.logger.Infow("Match ended", "detector", detector,
			"home", res.HomeScore, "away", res.AwayScore, "confidence", res.Confidence)
		p.deps.Bus.Publish(bus.NewMatchEnded(at, res.HomeScore, res.AwayScore))
	}
}

// Run — тело рабочего потока: полный жизненный цикл сессии детекции.
// Возвращается после остановки по контексту либо по фатальной ошибке стадии.
// Повторов с бэкоффом нет намеренно: каждая фатальная ошибка здесь требует
// вмешательства пользователя.
func (p *Pipeline) Run(ctx context.Context) error {
	m := p.deps.Machine
	if err := m.Start(); err != nil {
		p.logger.Infow("Start request ignored", "error", err)
		return nil
	}

	sess, err := p.OpenSession()
	if err != nil {
		_ = m.Fail(err)
		return err
	}
	defer sess.Close()

	// Первый тик выполняется ещё в Starting: его успех и есть готовность.
	if err := sess.Tick(p.deps.Recorder.StartTick()); err != nil {
		_ = m.Fail(err)
		return err
	}
	if err := m.Ready(); err != nil {
		return err
	}
	p.logger.Infow("Detection running",
		"tickInterval", p.opts.TickInterval.String(), "cooldown", p.opts.Cooldown.String())

	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return nil
		default:
		}

		if snap := m.Current(); snap.State != StateRunning {
			if snap.State == StateStopping || snap.State == StateStopped {
				p.shutdown()
				return nil
			}
			time.Sleep(p.opts.PausedInterval)
			continue
		}

		if err := sess.Tick(p.deps.Recorder.StartTick()); err != nil {
			p.logger.Errorw("Tick failed, stopping detection", "error", err)
			p.shutdown()
			return err
		}

		select {
		case <-ctx.Done():
			p.shutdown()
			return nil
		case <-time.After(p.opts.TickInterval):
		}
	}
}

// shutdown проводит автомат через Stopping в Stopped, игнорируя
// недопустимые переходы (машина могла уже остановиться).
func (p *Pipeline) shutdown() {
	_ = p.deps.Machine.Stop()
	_ = p.deps.Machine.Done()
}
