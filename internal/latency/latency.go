package latency

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Имена стадий тика в порядке исполнения.
const (
	StageCapture    = "capture"
	StagePreprocess = "preprocess"
	StageRecognize  = "recognize"
	StageDetect     = "detect"
	StageTotal      = "total"
)

// DefaultBudget — целевой бюджет p95 на полный тик.
const DefaultBudget = 100 * time.Millisecond

// Recorder накапливает замеры длительности по стадиям тика.
// Замер не вмешивается в поток управления: стадии лишь отмечают моменты времени.
type Recorder struct {
	mu      sync.Mutex
	samples map[string][]time.Duration
	order   []string
	budget  time.Duration
}

func NewRecorder(budget time.Duration) *Recorder {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Recorder{
		samples: make(map[string][]time.Duration),
		budget:  budget,
	}
}

func (r *Recorder) observe(stage string, d time.Duration) {
	r.mu.Lock()
	if _, ok := r.samples[stage]; !ok {
		r.order = append(r.order, stage)
	}
	r.samples[stage] = append(r.samples[stage], d)
	r.mu.Unlock()
}

// Reset очищает накопленные замеры (используется после прогрева бенчмарка).
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.samples = make(map[string][]time.Duration)
	r.order = nil
	r.mu.Unlock()
}

// StartTick начинает замер одного тика.
func (r *Recorder) StartTick() *TickTimer {
	now := time.Now()
	return &TickTimer{r: r, start: now, last: now}
}

// TickTimer отмечает границы стадий внутри одного тика.
// Mark фиксирует длительность стадии от предыдущей отметки, Done — полный тик.
type TickTimer struct {
	r     *Recorder
	start time.Time
	last  time.Time
}

func (t *TickTimer) Mark(stage string) {
	now := time.Now()
	t.r.observe(stage, now.Sub(t.last))
	t.last = now
}

func (t *TickTimer) Done() {
	t.r.observe(StageTotal, time.Since(t.start))
}

// StageStats — сводная статистика по одной стадии.
type StageStats struct {
	Stage string
	Count int
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Report — итоговый отчёт по всем стадиям с вердиктом относительно бюджета.
type Report struct {
	Stages  []StageStats
	Total   StageStats
	Budget  time.Duration
	Pass    bool
	Slowest string
}

// Report строит отчёт по накопленным замерам.
func (r *Recorder) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := Report{Budget: r.budget}
	var slowest time.Duration
	for _, stage := range r.order {
		st := computeStats(stage, r.samples[stage])
		if stage == StageTotal {
			rep.Total = st
			continue
		}
		rep.Stages = append(rep.Stages, st)
		if st.P95 > slowest {
			slowest = st.P95
			rep.Slowest = stage
		}
	}
	rep.Pass = rep.Total.Count > 0 && rep.Total.P95 < r.budget
	return rep
}

func computeStats(stage string, samples []time.Duration) StageStats {
	st := StageStats{Stage: stage, Count: len(samples)}
	if len(samples) == 0 {
		return st
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	st.Mean = sum / time.Duration(len(sorted))
	st.P50 = percentile(sorted, 0.50)
	st.P95 = percentile(sorted, 0.95)
	st.P99 = percentile(sorted, 0.99)
	st.Max = sorted[len(sorted)-1]
	return st
}

// percentile возвращает q-квантиль отсортированной выборки (метод ближайшего ранга).
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Render форматирует отчёт в таблицу для вывода в лог или консоль.
func (rep Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %6s %10s %10s %10s %10s %10s\n",
		"stage", "n", "mean", "p50", "p95", "p99", "max")
	row := func(st StageStats) {
		fmt.Fprintf(&b, "%-12s %6d %10s %10s %10s %10s %10s\n",
			st.Stage, st.Count,
			round(st.Mean), round(st.P50), round(st.P95), round(st.P99), round(st.Max))
	}
	for _, st := range rep.Stages {
		row(st)
	}
	row(rep.Total)
	verdict := "FAIL"
	if rep.Pass {
		verdict = "PASS"
	}
	fmt.Fprintf(&b, "budget: total p95 < %s — %s", rep.Budget, verdict)
	if rep.Slowest != "" {
		fmt.Fprintf(&b, " (slowest stage: %s)", rep.Slowest)
	}
	b.WriteString("\n")
	return b.String()
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Microsecond)
}
