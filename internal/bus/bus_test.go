package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	ch1, err := b.Subscribe("one", 4)
	require.NoError(t, err)
	ch2, err := b.Subscribe("two", 4)
	require.NoError(t, err)

	ev := NewMatchStarted(time.Now())
	b.Publish(ev)

	got1 := <-ch1
	got2 := <-ch2
	assert.Equal(t, ev.ID, got1.ID)
	assert.Equal(t, ev.ID, got2.ID)

	stats := b.Stats()
	assert.EqualValues(t, 1, stats.Published)
	assert.EqualValues(t, 2, stats.Delivered)
	assert.EqualValues(t, 0, stats.Dropped)
}

func TestPublishPreservesOrderPerSubscriber(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	ch, err := b.Subscribe("ordered", 16)
	require.NoError(t, err)

	events := []Event{
		NewMatchStarted(time.Now()),
		NewGoalDetected("ARSENAL", time.Now()),
		NewMatchEnded(time.Now(), 1, 0),
	}
	for _, ev := range events {
		b.Publish(ev)
	}
	for _, want := range events {
		got := <-ch
		assert.Equal(t, want.ID, got.ID, "single-publisher order must be preserved")
	}
}

func TestPublishDropsOnFullSubscriber(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	_, err := b.Subscribe("slow", 1)
	require.NoError(t, err)

	// буфер на один элемент: второе событие отбрасывается, издатель не блокируется
	done := make(chan struct{})
	go func() {
		b.Publish(NewMatchStarted(time.Now()))
		b.Publish(NewMatchStarted(time.Now()))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish must never block")
	}

	stats := b.Stats()
	assert.EqualValues(t, 1, stats.Delivered)
	assert.EqualValues(t, 1, stats.Dropped)
}

func TestSubscribeDuplicateID(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	_, err := b.Subscribe("dup", 1)
	require.NoError(t, err)
	_, err = b.Subscribe("dup", 1)
	assert.ErrorIs(t, err, ErrSubscriberExists)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	ch, err := b.Subscribe("gone", 1)
	require.NoError(t, err)
	b.Unsubscribe("gone")

	_, open := <-ch
	assert.False(t, open, "channel must be closed after unsubscribe")
}

func TestExecuteDispatchesToSingleHandler(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	var got Command
	require.NoError(t, b.Handle(CmdPlayAudio, func(cmd Command) error {
		got = cmd
		return nil
	}))

	err := b.Execute(Command{Kind: CmdPlayAudio, Source: "goal_music", Volume: 80})
	require.NoError(t, err)
	assert.Equal(t, "goal_music", got.Source)
	assert.Equal(t, 80, got.Volume)

	// второго обработчика того же типа быть не может
	assert.ErrorIs(t, b.Handle(CmdPlayAudio, func(Command) error { return nil }), ErrHandlerExists)
}

func TestExecuteNoHandler(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	err := b.Execute(Command{Kind: CmdStopAudio})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestExecuteWrapsHandlerError(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Close()

	sentinel := errors.New("speaker gone")
	require.NoError(t, b.Handle(CmdPlayAudio, func(Command) error { return sentinel }))

	err := b.Execute(Command{Kind: CmdPlayAudio})
	assert.ErrorIs(t, err, sentinel)
	assert.EqualValues(t, 1, b.Stats().ExecFailed)
}

func TestClosedBusRejectsOperations(t *testing.T) {
	t.Parallel()

	b := New()
	ch, err := b.Subscribe("s", 1)
	require.NoError(t, err)
	b.Close()

	_, open := <-ch
	assert.False(t, open)

	_, err = b.Subscribe("late", 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Execute(Command{Kind: CmdPlayAudio}), ErrClosed)

	// публикация после Close — тихий no-op
	b.Publish(NewMatchStarted(time.Now()))
	assert.EqualValues(t, 0, b.Stats().Published)
}
