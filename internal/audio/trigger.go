package audio

import (
	"context"
	"fmt"

	"FMGoalMusic/internal/bus"

	"go.uber.org/zap"
)

const triggerSubscriberID = "audio-trigger"

// Player — то, что умеет делать движок с точки зрения триггера.
// Выделено интерфейсом ради тестов без звукового устройства.
type Player interface {
	Play(src SourceType, chain EffectChain) error
	Stop(src SourceType)
}

// Trigger слушает события детекции и превращает их в аудио-команды.
// Ошибка воспроизведения логируется, но никогда не останавливает детекцию:
// сорвавшееся празднование не повод пропустить следующий гол.
type Trigger struct {
	b       *bus.Bus
	player  Player
	sources map[SourceType]SourceConfig
	logger  *zap.SugaredLogger
}

func NewTrigger(b *bus.Bus, player Player, sources map[SourceType]SourceConfig, logger *zap.SugaredLogger) *Trigger {
	return &Trigger{b: b, player: player, sources: sources, logger: logger}
}

// Register вешает обработчики аудио-команд на шину.
func (t *Trigger) Register() error {
	if err := t.b.Handle(bus.CmdPlayAudio, t.handlePlay); err != nil {
		return err
	}
	return t.b.Handle(bus.CmdStopAudio, t.handleStop)
}

func (t *Trigger) handlePlay(cmd bus.Command) error {
	src := SourceType(cmd.Source)
	sc, ok := t.sources[src]
	if !ok {
		return fmt.Errorf("unknown audio source %q", cmd.Source)
	}
	chain := sc.Chain()
	if cmd.Volume >= 0 {
		chain.Volume = cmd.Volume
	}
	return t.player.Play(src, chain)
}

func (t *Trigger) handleStop(cmd bus.Command) error {
	t.player.Stop(SourceType(cmd.Source))
	return nil
}

// Run подписывается на шину и обрабатывает события до отмены контекста.
// Блокирующий метод; запускается в отдельной горутине.
func (t *Trigger) Run(ctx context.Context) error {
	ch, err := t.b.Subscribe(triggerSubscriberID, 16)
	if err != nil {
		return err
	}
	defer t.b.Unsubscribe(triggerSubscriberID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			t.dispatch(ev)
		}
	}
}

func (t *Trigger) dispatch(ev bus.Event) {
	switch ev.Kind {
	case bus.EventGoalDetected:
		// Музыка и атмосфера трибун запускаются парой.
		t.fire(SourceGoalMusic, ev)
		t.fire(SourceGoalAmbiance, ev)
	case bus.EventMatchStarted:
		t.fire(SourceMatchStart, ev)
	case bus.EventMatchEnded:
		t.fire(SourceMatchEnd, ev)
	}
}

func (t *Trigger) fire(src SourceType, ev bus.Event) {
	sc, ok := t.sources[src]
	if !ok || !sc.Enabled {
		return
	}
	cmd := bus.Command{Kind: bus.CmdPlayAudio, Source: string(src), Volume: -1}
	if err := t.b.Execute(cmd); err != nil {
		t.logger.Warnw("Audio command failed", "source", src, "event", ev.Kind, "error", err)
	}
}
