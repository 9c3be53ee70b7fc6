package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"FMGoalMusic/internal/bus"

	"go.uber.org/zap"
)

// ErrInvalidTransition — запрошен недопустимый переход. Безобидная
// диагностика: состояние не меняется, вызывающий логирует и продолжает.
var ErrInvalidTransition = errors.New("invalid state transition")

// State — состояние процесса детекции.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Snapshot — согласованный срез состояния для читателей с других потоков.
type Snapshot struct {
	State State
	Since time.Time // момент входа в Running; нулевое время иначе
}

// Machine — строгий автомат Stopped → Starting → Running → Stopping → Stopped.
// Писатель один (поток конвейера), читателей много (UI): чтения идут через
// RWMutex, каждый успешный переход публикует ProcessStateChanged на шину.
type Machine struct {
	mu     sync.RWMutex
	state  State
	since  time.Time
	b      *bus.Bus
	logger *zap.SugaredLogger
}

func NewMachine(b *bus.Bus, logger *zap.SugaredLogger) *Machine {
	return &Machine{b: b, logger: logger}
}

// Current возвращает снимок состояния.
func (m *Machine) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.state, Since: m.since}
}

// Start: Stopped → Starting. Начало инициализации захвата и распознавания.
func (m *Machine) Start() error {
	return m.transition(StateStopped, StateStarting)
}

// Ready: Starting → Running. Первый успешный тик завершён.
func (m *Machine) Ready() error {
	return m.transition(StateStarting, StateRunning)
}

// Fail: Starting → Stopped. Ошибка инициализации; автоматических повторов нет.
func (m *Machine) Fail(err error) error {
	if terr := m.transition(StateStarting, StateStopped); terr != nil {
		return terr
	}
	m.logger.Errorw("Detection failed to start", "error", err)
	return nil
}

// Stop: Running → Stopping. Текущему тику дают завершиться.
func (m *Machine) Stop() error {
	return m.transition(StateRunning, StateStopping)
}

// Done: Stopping → Stopped. Ресурсы освобождены.
func (m *Machine) Done() error {
	return m.transition(StateStopping, StateStopped)
}

func (m *Machine) transition(from, to State) error {
	m.mu.Lock()
	if m.state != from {
		cur := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s (current %s)", ErrInvalidTransition, from, to, cur)
	}
	old := m.state
	m.state = to
	if to == StateRunning {
		m.since = time.Now()
	} else {
		m.since = time.Time{}
	}
	m.mu.Unlock()

	m.logger.Infow("Process state changed", "from", old.String(), "to", to.String())
	m.b.Publish(bus.NewProcessStateChanged(old.String(), to.String()))
	return nil
}
