package bus

import (
	"time"

	"github.com/google/uuid"
)

// EventKind — тип события на шине.
type EventKind string

const (
	EventGoalDetected        EventKind = "goal_detected"
	EventMatchStarted        EventKind = "match_started"
	EventMatchEnded          EventKind = "match_ended"
	EventProcessStateChanged EventKind = "process_state_changed"
)

// Event — неизменяемое уведомление о свершившемся факте.
// Поля-полезная нагрузка заполняются в зависимости от Kind; остальные пустые.
type Event struct {
	ID   uuid.UUID
	Kind EventKind
	At   time.Time

	// GoalDetected
	Team string

	// MatchEnded
	HomeScore int
	AwayScore int

	// ProcessStateChanged
	OldState string
	NewState string
}

func NewGoalDetected(team string, at time.Time) Event {
	return Event{ID: uuid.New(), Kind: EventGoalDetected, At: at, Team: team}
}

func NewMatchStarted(at time.Time) Event {
	return Event{ID: uuid.New(), Kind: EventMatchStarted, At: at}
}

func NewMatchEnded(at time.Time, home, away int) Event {
	return Event{ID: uuid.New(), Kind: EventMatchEnded, At: at, HomeScore: home, AwayScore: away}
}

func NewProcessStateChanged(oldState, newState string) Event {
	return Event{ID: uuid.New(), Kind: EventProcessStateChanged, At: time.Now(), OldState: oldState, NewState: newState}
}
