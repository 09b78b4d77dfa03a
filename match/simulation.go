package match

import (
	"time"

	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/physics"
)

// FrameCallback is invoked by the simulation for every observable event;
// together with EndCallback it is the only side effect channel the
// simulation has. The match actor translates these into wire frames.
type FrameCallback func(event string, payload interface{})

// EndCallback is invoked exactly once, when the match transitions to
// Finished.
type EndCallback func(winnerID string, score1, score2 int)

// Frame event kinds emitted by the Simulation (TickCountdown, TickPhysics,
// Pause, Resume, ForceEnd). These are
// simulation-level concerns only (countdown/start/state/pause/resume/end);
// lobby-level events like match:joined are assembled by the caller, which
// has the player projections the simulation does not.
const (
	FrameCountdown = "countdown"
	FrameStart     = "start"
	FrameState     = "state"
	FramePaused    = "paused"
	FrameResumed   = "resumed"
	FrameEnd       = "end"
)

// Simulation is the per-match state machine: it wraps a
// Match's MatchState and the two player slots, and advances them one tick
// at a time. It performs no I/O and blocks on nothing; a caller (match.Actor)
// owns scheduling.
type Simulation struct {
	cfg    config.Config
	kernel *physics.Kernel
	match  *Match

	onFrame FrameCallback
	onEnd   EndCallback

	countdownRemaining int

	leftInput, rightInput physics.Direction
}

// NewSimulation builds a Waiting match for a single creator slot.
func NewSimulation(cfg config.Config, kernel *physics.Kernel, m *Match, onFrame FrameCallback, onEnd EndCallback) *Simulation {
	return &Simulation{cfg: cfg, kernel: kernel, match: m, onFrame: onFrame, onEnd: onEnd}
}

func (s *Simulation) Match() *Match { return s.match }

func (s *Simulation) Phase() Phase { return s.match.State.Phase }

// AttachSecondPlayer transitions Waiting → Countdown once a second player
// joins. No-op (returns false) if the match isn't Waiting.
func (s *Simulation) AttachSecondPlayer(slot2 *PlayerSlot) bool {
	if s.match.State.Phase != Waiting {
		return false
	}
	s.match.Slot2 = slot2
	s.kernel.ResetBall(s.match.State.Ball, s.match.State.ServeDirection)
	s.beginCountdown(s.cfg.CountdownSeconds)
	return true
}

func (s *Simulation) beginCountdown(seconds int) {
	s.match.State.Phase = Countdown
	s.countdownRemaining = seconds
	s.match.State.Countdown = seconds
	s.emitCountdown()
}

func (s *Simulation) emitCountdown() {
	s.onFrame(FrameCountdown, s.countdownRemaining)
}

// TickCountdown advances the countdown by one second. Called once per
// second by the actor, not once per physics tick. The final second emits
// the start frame instead of a zero count.
func (s *Simulation) TickCountdown() {
	if s.match.State.Phase != Countdown {
		return
	}
	s.countdownRemaining--
	s.match.State.Countdown = max(s.countdownRemaining, 0)
	if s.countdownRemaining > 0 {
		s.emitCountdown()
		return
	}
	s.match.State.Phase = Playing
	if s.match.StartedAt.IsZero() {
		s.match.StartedAt = time.Now()
	}
	s.onFrame(FrameStart, nil)
}

// SetPlayerInput stores the latest movement intent for whichever side the
// given player id occupies; it is last-write-wins until the next call.
// direction=None halts the paddle. No-op if the player isn't seated.
func (s *Simulation) SetPlayerInput(playerID string, dir physics.Direction) {
	switch playerID {
	case s.match.Slot1.PlayerID:
		s.leftInput = dir
	case s.match.Slot2PlayerID():
		s.rightInput = dir
	}
}

// TickPhysics runs exactly one physics step: apply paddle movement, advance
// the ball, resolve wall/paddle collisions, and check for a score. During
// Countdown only the paddles move; outside Countdown/Playing it is a no-op.
// Per-tick order: advance → wall → paddle(left, right) → score.
func (s *Simulation) TickPhysics() {
	st := s.match.State
	if st.Phase == Countdown {
		// Paddles may be repositioned during the countdown; the ball stays put.
		s.kernel.MovePaddle(st.LeftPad, s.leftInput)
		s.kernel.MovePaddle(st.RightPad, s.rightInput)
		return
	}
	if st.Phase != Playing {
		return
	}

	s.kernel.MovePaddle(st.LeftPad, s.leftInput)
	s.kernel.MovePaddle(st.RightPad, s.rightInput)

	s.kernel.Advance(st.Ball)
	s.kernel.WallCollide(st.Ball)
	s.kernel.PaddleCollide(st.Ball, st.LeftPad)
	s.kernel.PaddleCollide(st.Ball, st.RightPad)

	switch s.kernel.DetectScore(st.Ball) {
	case physics.LeftScored:
		st.Score1++
		s.afterScore(physics.Right)
	case physics.RightScored:
		st.Score2++
		s.afterScore(physics.Left)
	default:
		s.onFrame(FrameState, nil)
	}
}

// afterScore handles the score-cap check and loser-serves reset that
// follows every point. loserSide is the side that
// just conceded and therefore serves next.
func (s *Simulation) afterScore(loserSide physics.Side) {
	st := s.match.State
	if st.Score1 >= s.cfg.MaxScore || st.Score2 >= s.cfg.MaxScore {
		winner := s.match.Slot1.PlayerID
		if st.Score2 > st.Score1 {
			winner = s.match.Slot2.PlayerID
		}
		s.finish(winner)
		return
	}
	st.ServeDirection = loserSide
	s.kernel.ResetBall(st.Ball, loserSide)
	s.beginCountdown(s.cfg.CountdownSeconds)
}

func (s *Simulation) finish(winnerID string) {
	st := s.match.State
	st.Phase = Finished
	st.WinnerID = winnerID
	s.onFrame(FrameEnd, nil)
	if s.onEnd != nil {
		s.onEnd(winnerID, st.Score1, st.Score2)
	}
}

// Pause suspends ticking with a reason code. No-op
// outside Playing/Countdown.
func (s *Simulation) Pause(reason string) bool {
	st := s.match.State
	if st.Phase != Playing && st.Phase != Countdown {
		return false
	}
	st.Phase = Paused
	st.PauseReason = reason
	s.onFrame(FramePaused, reason)
	return true
}

// Resume exits Paused back into a fresh Countdown. No-op outside Paused.
func (s *Simulation) Resume() bool {
	if s.match.State.Phase != Paused {
		return false
	}
	s.onFrame(FrameResumed, nil)
	s.beginCountdown(s.cfg.CountdownSeconds)
	return true
}

// ForceEnd transitions directly to Finished regardless of score, used for
// forfeits and timeouts. No-op on an already-terminal
// match.
func (s *Simulation) ForceEnd(winnerID string) bool {
	if s.match.State.Phase.Terminal() {
		return false
	}
	s.finish(winnerID)
	return true
}

// Cancel transitions directly to Cancelled. No-op on an already-terminal
// match.
func (s *Simulation) Cancel() bool {
	st := s.match.State
	if st.Phase.Terminal() {
		return false
	}
	st.Phase = Cancelled
	return true
}
