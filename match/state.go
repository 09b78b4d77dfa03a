// Package match is the per-match state machine wrapping the physics
// kernel: it consumes input intents, emits snapshot/event frames, and ends
// a match at the score cap or on forfeit. match.Actor ticks it on the
// actor runtime; Simulation itself is plain, synchronous state.
package match

import (
	"time"

	"github.com/Talkashi1111/ft-transcendence-sub000/physics"
)

// Phase is one of the six mutually exclusive match phases.
type Phase int

const (
	Waiting Phase = iota
	Countdown
	Playing
	Paused
	Finished
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Countdown:
		return "countdown"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase is one from which the match can never
// resume.
func (p Phase) Terminal() bool { return p == Finished || p == Cancelled }

// PlayerSlot is one stable seat in a match: a side, a player identity, and
// a live-or-absent connection flag. The slot holds no socket: the live
// connection is registered with the match's broadcaster, and the endpoint
// owns the socket's lifetime, not the match.
type PlayerSlot struct {
	Side      physics.Side
	PlayerID  string
	Username  string
	Connected bool
}

func (s *PlayerSlot) Empty() bool { return s.PlayerID == "" }

// MatchState is the full authoritative state of one live match: the ball,
// both paddles, both scores, the phase, the countdown counter, the serve
// direction for the next reset, and the winner once Finished.
type MatchState struct {
	Phase Phase

	Ball     *physics.Ball
	LeftPad  *physics.Paddle
	RightPad *physics.Paddle

	Score1, Score2 int

	Countdown      int
	ServeDirection physics.Side

	WinnerID string
	PauseReason string
}

// NewMatchState builds the initial MatchState for a fresh match: ball at
// center, paddles vertically centered on their respective sides.
func NewMatchState(width, height, paddleWidth, paddleHeight, ballRadius float64) *MatchState {
	ball := physics.NewBall(ballRadius)
	ball.X, ball.Y = width/2, height/2
	return &MatchState{
		Phase: Waiting,
		Ball:  ball,
		LeftPad: &physics.Paddle{
			X: 0, Y: (height - paddleHeight) / 2,
			Width: paddleWidth, Height: paddleHeight, Side: physics.Left,
		},
		RightPad: &physics.Paddle{
			X: width - paddleWidth, Y: (height - paddleHeight) / 2,
			Width: paddleWidth, Height: paddleHeight, Side: physics.Right,
		},
	}
}

// Match is one match's full identity: id, mode, the two player slots (the
// right slot is empty while Waiting), its MatchState, and its lifecycle
// timestamps. The Match Manager owns every Match exclusively.
type Match struct {
	ID   string
	Mode string

	Slot1, Slot2 *PlayerSlot
	State        *MatchState

	CreatedAt time.Time
	StartedAt time.Time
}

// Slot2PlayerID returns the second slot's player id, or "" if the match is
// still Waiting for an opponent.
func (m *Match) Slot2PlayerID() string {
	if m.Slot2 == nil {
		return ""
	}
	return m.Slot2.PlayerID
}
