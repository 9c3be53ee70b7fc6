package pipeline

import (
	"context"
	"image"
	"testing"
	"time"

	"FMGoalMusic/internal/bus"
	"FMGoalMusic/internal/capture"
	"FMGoalMusic/internal/detect"
	"FMGoalMusic/internal/latency"
	"FMGoalMusic/internal/lexicon"
	"FMGoalMusic/internal/ocr"
	"FMGoalMusic/internal/team"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	err   error
	calls int
}

func (f *fakeSource) Capture() (*image.RGBA, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

// fakeReader отдаёт заранее заданные строки; после исчерпания повторяет последнюю.
type fakeReader struct {
	texts  []string
	calls  int
	closed bool
}

func (f *fakeReader) Recognize(_ *image.Gray, at time.Time) (ocr.RecognizedText, error) {
	i := f.calls
	f.calls++
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	return ocr.RecognizedText{Text: f.texts[i], CapturedAt: at}, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

var testLexicon = lexicon.Lexicon{
	Goal:     []string{"GOAL FOR"},
	Kickoff:  []string{"KICK OFF"},
	MatchEnd: []string{"FULL TIME"},
}

func arsenalMatcher() *team.Matcher {
	return team.NewMatcher(&team.Team{
		League:      "premier-league",
		Key:         "arsenal",
		DisplayName: "Arsenal",
		Variations:  []string{"Arsenal", "Arsenal FC"},
	})
}

type testRig struct {
	p      *Pipeline
	bus    *bus.Bus
	events <-chan bus.Event
	source *fakeSource
	reader *fakeReader
	rec    *latency.Recorder
}

func newTestRig(t *testing.T, opts Options, source *fakeSource, reader *fakeReader) *testRig {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)
	ch, err := b.Subscribe("pipeline-test", 64)
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	rec := latency.NewRecorder(0)
	opts.Lexicon = testLexicon
	deps := Deps{
		Bus:      b,
		Machine:  NewMachine(b, logger),
		Registry: detect.NewRegistry(detect.NewGoalDetector(true), detect.NewKickoffDetector(true), detect.NewMatchEndDetector(true)),
		Recorder: rec,
		NewSource: func() (FrameSource, error) {
			return source, nil
		},
		NewReader: func() (TextReader, error) {
			return reader, nil
		},
	}
	return &testRig{
		p:      New(opts, deps, logger),
		bus:    b,
		events: ch,
		source: source,
		reader: reader,
		rec:    rec,
	}
}

// waitEvent ждёт событие заданного типа, пропуская смены состояния процесса.
func waitEvent(t *testing.T, ch <-chan bus.Event, kind bus.EventKind) bus.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func TestSessionTickPublishesGoal(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: time.Hour, Matcher: arsenalMatcher()},
		&fakeSource{},
		&fakeReader{texts: []string{"GOAL FOR ARSENAL"}},
	)
	sess, err := rig.p.OpenSession()
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Tick(rig.rec.StartTick()))

	ev := waitEvent(t, rig.events, bus.EventGoalDetected)
	assert.Equal(t, "ARSENAL", ev.Team)

	rep := rig.rec.Report()
	assert.Equal(t, 1, rep.Total.Count)
	assert.Len(t, rep.Stages, 4, "every stage of the tick is measured")
}

func TestSessionReusesPreprocessBuffers(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: time.Hour, MorphOpen: true},
		&fakeSource{},
		&fakeReader{texts: []string{"NOTHING HERE"}},
	)
	sess, err := rig.p.OpenSession()
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Tick(rig.rec.StartTick()))
	bin, morphTmp, morphDst := sess.bin, sess.morphTmp, sess.morphDst
	require.NotNil(t, bin)
	require.NotNil(t, morphDst)

	// последующие тики перезаписывают те же буферы
	require.NoError(t, sess.Tick(rig.rec.StartTick()))
	assert.Same(t, bin, sess.bin)
	assert.Same(t, morphTmp, sess.morphTmp)
	assert.Same(t, morphDst, sess.morphDst)
}

func TestHandleResultDebouncesPerKind(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: 100 * time.Millisecond},
		&fakeSource{},
		&fakeReader{texts: []string{""}},
	)

	goal := detect.Result{Kind: detect.KindGoal, TeamName: "ARSENAL", Confidence: 0.9}
	now := time.Now()
	rig.p.handleResult(goal, "goal", now)
	rig.p.handleResult(goal, "goal", now.Add(10*time.Millisecond))
	rig.p.handleResult(goal, "goal", now.Add(50*time.Millisecond))
	rig.p.handleResult(goal, "goal", now.Add(150*time.Millisecond))

	// дебаунс гола не глушит другие виды событий
	rig.p.handleResult(detect.Result{Kind: detect.KindKickoff, Confidence: 0.9}, "kickoff", now.Add(20*time.Millisecond))

	var goals, kickoffs int
	for done := false; !done; {
		select {
		case ev := <-rig.events:
			switch ev.Kind {
			case bus.EventGoalDetected:
				goals++
			case bus.EventMatchStarted:
				kickoffs++
			}
		default:
			done = true
		}
	}
	assert.Equal(t, 2, goals, "one event per cooldown window")
	assert.Equal(t, 1, kickoffs)
}

func TestHandleResultIgnoresOtherTeam(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: time.Hour, Matcher: arsenalMatcher()},
		&fakeSource{},
		&fakeReader{texts: []string{""}},
	)

	now := time.Now()
	rig.p.handleResult(detect.Result{Kind: detect.KindGoal, TeamName: "LIVERPOOL", Confidence: 0.9}, "goal", now)
	// пустое имя при настроенном матчере тоже не засчитывается
	rig.p.handleResult(detect.Result{Kind: detect.KindGoal, TeamName: "", Confidence: 0.7}, "goal", now)

	select {
	case ev := <-rig.events:
		t.Fatalf("unexpected event published: %s", ev.Kind)
	default:
	}
}

func TestHandleResultAnyTeamWithoutMatcher(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: time.Hour},
		&fakeSource{},
		&fakeReader{texts: []string{""}},
	)

	rig.p.handleResult(detect.Result{Kind: detect.KindGoal, TeamName: "GALATASARAY", Confidence: 0.9}, "goal", time.Now())

	ev := waitEvent(t, rig.events, bus.EventGoalDetected)
	assert.Equal(t, "GALATASARAY", ev.Team)
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: time.Hour, TickInterval: time.Millisecond, Matcher: arsenalMatcher()},
		&fakeSource{},
		&fakeReader{texts: []string{"NOTHING HERE", "GOAL FOR ARSENAL"}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- rig.p.Run(ctx) }()

	ev := waitEvent(t, rig.events, bus.EventGoalDetected)
	assert.Equal(t, "ARSENAL", ev.Team)

	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, StateStopped, rig.p.Machine().Current().State)
	assert.True(t, rig.reader.closed, "session must release the recognizer")
}

func TestRunPermissionDenied(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: time.Hour, TickInterval: time.Millisecond},
		&fakeSource{err: capture.ErrPermissionDenied},
		&fakeReader{texts: []string{""}},
	)

	err := rig.p.Run(context.Background())
	require.ErrorIs(t, err, capture.ErrPermissionDenied)

	// отказ на первом тике: Starting → Stopped, без повторных попыток
	assert.Equal(t, StateStopped, rig.p.Machine().Current().State)
	assert.Equal(t, 1, rig.source.calls)

	got := waitEvent(t, rig.events, bus.EventProcessStateChanged)
	assert.Equal(t, "stopped", got.OldState)
	assert.Equal(t, "starting", got.NewState)
	got = waitEvent(t, rig.events, bus.EventProcessStateChanged)
	assert.Equal(t, "starting", got.OldState)
	assert.Equal(t, "stopped", got.NewState)
}

func TestRunIgnoredUnlessStopped(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	rig := newTestRig(t,
		Options{Cooldown: time.Hour},
		source,
		&fakeReader{texts: []string{""}},
	)
	require.NoError(t, rig.p.Machine().Start())

	require.NoError(t, rig.p.Run(context.Background()))
	assert.Equal(t, 0, source.calls, "no session is opened on an ignored start")
	assert.Equal(t, StateStarting, rig.p.Machine().Current().State)
}

func TestRunStopsWhenMachineStopped(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		Options{Cooldown: time.Hour, TickInterval: time.Millisecond, PausedInterval: time.Millisecond},
		&fakeSource{},
		&fakeReader{texts: []string{"NOTHING HERE"}},
	)

	ctx := context.Background()
	errCh := make(chan error, 1)
	go func() { errCh <- rig.p.Run(ctx) }()

	// дождаться Running и запросить остановку через автомат
	require.Eventually(t, func() bool {
		return rig.p.Machine().Current().State == StateRunning
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, rig.p.Machine().Stop())

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after Stop request")
	}
	assert.Equal(t, StateStopped, rig.p.Machine().Current().State)
}
