// Package bus — шина событий и команд, развязывающая конвейер распознавания,
// аудио-подсистему и внешний интерфейс.
//
// События раздаются всем подписчикам без блокировки издателя: у каждого
// подписчика буферизованный канал, при переполнении событие для него
// отбрасывается. Задержка важнее полноты доставки. Порядок событий одного
// издателя для конкретного подписчика сохраняется (один канал — FIFO).
//
// Команды диспетчеризуются ровно одному зарегистрированному обработчику
// своего типа и исполняются синхронно в горутине вызывающего.
package bus

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrClosed           = errors.New("bus is closed")
	ErrSubscriberExists = errors.New("subscriber id already exists")
	ErrNoHandler        = errors.New("no handler registered for command")
	ErrHandlerExists    = errors.New("handler already registered for command")
)

// Stats — моментальный снимок счётчиков шины.
type Stats struct {
	Published  uint64
	Delivered  uint64
	Dropped    uint64
	Executed   uint64
	ExecFailed uint64
}

// Bus — потокобезопасная шина. Нулевое значение непригодно, создавать через New.
type Bus struct {
	mu       sync.RWMutex
	subs     map[string]chan Event
	handlers map[CommandKind]Handler
	closed   bool

	published  atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
	executed   atomic.Uint64
	execFailed atomic.Uint64
}

func New() *Bus {
	return &Bus{
		subs:     make(map[string]chan Event),
		handlers: make(map[CommandKind]Handler),
	}
}

// Subscribe регистрирует подписчика с собственным буфером и возвращает
// приёмный конец канала. id должен быть уникален.
func (b *Bus) Subscribe(id string, buffer int) (<-chan Event, error) {
	if buffer <= 0 {
		buffer = 16
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if _, ok := b.subs[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSubscriberExists, id)
	}
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	return ch, nil
}

// Unsubscribe снимает подписку и закрывает канал подписчика.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish раздаёт событие всем текущим подписчикам. Никогда не блокируется:
// полный канал подписчика означает потерю события для него.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.published.Add(1)
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			b.delivered.Add(1)
		default:
			b.dropped.Add(1)
		}
	}
}

// Handle регистрирует обработчик команды данного типа. Повторная регистрация —
// ошибка: у команды ровно один исполнитель.
func (b *Bus) Handle(kind CommandKind, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.handlers[kind]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, kind)
	}
	b.handlers[kind] = h
	return nil
}

// Execute передаёт команду её обработчику и возвращает результат исполнения.
func (b *Bus) Execute(cmd Command) error {
	b.mu.RLock()
	h, ok := b.handlers[cmd.Kind]
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, cmd.Kind)
	}
	b.executed.Add(1)
	if err := h(cmd); err != nil {
		b.execFailed.Add(1)
		return fmt.Errorf("execute %s: %w", cmd.Kind, err)
	}
	return nil
}

// Stats возвращает снимок счётчиков.
func (b *Bus) Stats() Stats {
	return Stats{
		Published:  b.published.Load(),
		Delivered:  b.delivered.Load(),
		Dropped:    b.dropped.Load(),
		Executed:   b.executed.Load(),
		ExecFailed: b.execFailed.Load(),
	}
}

// Close останавливает шину и закрывает каналы всех подписчиков.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
