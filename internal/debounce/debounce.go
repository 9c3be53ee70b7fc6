package debounce

import (
	"sync"
	"time"
)

// Window подавляет повторные срабатывания в пределах окна cooldown.
// Пока распознанный текст остаётся на экране, детектор срабатывает каждый тик;
// окно гарантирует не более одного события за период.
type Window struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     time.Time // нулевое значение — срабатываний ещё не было
}

func New(cooldown time.Duration) *Window {
	return &Window{cooldown: cooldown}
}

// ShouldTrigger атомарно принимает решение и фиксирует момент срабатывания.
// Возвращает true ровно один раз за окно cooldown; при false состояние не меняется.
func (w *Window) ShouldTrigger(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.last.IsZero() && now.Sub(w.last) < w.cooldown {
		return false
	}
	w.last = now
	return true
}

// Reset сбрасывает окно, следующий вызов ShouldTrigger сработает безусловно.
func (w *Window) Reset() {
	w.mu.Lock()
	w.last = time.Time{}
	w.mu.Unlock()
}

func (w *Window) Cooldown() time.Duration { return w.cooldown }
