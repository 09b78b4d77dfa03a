package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/physics"
)

func newTestSim(t *testing.T, onFrame FrameCallback, onEnd EndCallback) *Simulation {
	cfg := config.Fast()
	k := physics.NewKernel(cfg.FieldWidth, cfg.FieldHeight, cfg.PaddleStep, cfg.InitialSpeed, cfg.MaxSpeed, cfg.SpeedRamp)
	m := &Match{
		ID:   "m1",
		Mode: "1v1",
		Slot1: &PlayerSlot{Side: physics.Left, PlayerID: "a", Username: "Alice", Connected: true},
		State: NewMatchState(cfg.FieldWidth, cfg.FieldHeight, cfg.PaddleWidth, cfg.PaddleHeight, cfg.BallRadius),
	}
	if onFrame == nil {
		onFrame = func(string, interface{}) {}
	}
	return NewSimulation(cfg, k, m, onFrame, onEnd)
}

func TestAttachSecondPlayerEntersCountdown(t *testing.T) {
	sim := newTestSim(t, nil, nil)
	assert.Equal(t, Waiting, sim.Phase())

	ok := sim.AttachSecondPlayer(&PlayerSlot{Side: physics.Right, PlayerID: "b", Username: "Bob", Connected: true})
	require.True(t, ok)
	assert.Equal(t, Countdown, sim.Phase())
}

func TestAttachSecondPlayerServesTheBall(t *testing.T) {
	sim := newTestSim(t, nil, nil)
	require.True(t, sim.AttachSecondPlayer(&PlayerSlot{Side: physics.Right, PlayerID: "b", Connected: true}))

	b := sim.match.State.Ball
	assert.Equal(t, sim.cfg.FieldWidth/2, b.X)
	assert.Equal(t, sim.cfg.FieldHeight/2, b.Y)
	assert.Equal(t, sim.cfg.InitialSpeed, b.Speed)
	assert.NotZero(t, b.Vx)
}

func TestAttachSecondPlayerTwiceFails(t *testing.T) {
	sim := newTestSim(t, nil, nil)
	require.True(t, sim.AttachSecondPlayer(&PlayerSlot{PlayerID: "b"}))
	ok := sim.AttachSecondPlayer(&PlayerSlot{PlayerID: "c"})
	assert.False(t, ok)
}

func TestCountdownReachesZeroAndStartsPlaying(t *testing.T) {
	var events []string
	sim := newTestSim(t, func(event string, _ interface{}) { events = append(events, event) }, nil)
	sim.match.State.Phase = Waiting
	sim.cfg.CountdownSeconds = 2
	sim.AttachSecondPlayer(&PlayerSlot{PlayerID: "b"})

	sim.TickCountdown()
	assert.Equal(t, Countdown, sim.Phase())
	sim.TickCountdown()
	assert.Equal(t, Playing, sim.Phase())
	assert.Contains(t, events, FrameStart)
}

func TestTickPhysicsNoopOutsidePlaying(t *testing.T) {
	sim := newTestSim(t, nil, nil)
	before := *sim.match.State.Ball
	sim.TickPhysics()
	assert.Equal(t, before, *sim.match.State.Ball)
}

func TestScoreCapEndsMatchExactlyOnce(t *testing.T) {
	endCalls := 0
	var winnerID string
	sim := newTestSim(t, func(string, interface{}) {}, func(w string, s1, s2 int) {
		endCalls++
		winnerID = w
	})
	sim.match.Slot2 = &PlayerSlot{Side: physics.Right, PlayerID: "b", Connected: true}
	sim.match.State.Phase = Playing
	sim.match.State.Score1 = sim.cfg.MaxScore - 1

	sim.match.State.Ball.X = sim.cfg.FieldWidth + 100 // force a left score next detect
	sim.TickPhysics()

	assert.Equal(t, Finished, sim.Phase())
	assert.Equal(t, 1, endCalls)
	assert.Equal(t, "a", winnerID)

	// Further ticks must not re-finish or move state.
	sim.TickPhysics()
	assert.Equal(t, 1, endCalls)
}

func TestPauseAndResumeReenterCountdown(t *testing.T) {
	sim := newTestSim(t, func(string, interface{}) {}, nil)
	sim.match.Slot2 = &PlayerSlot{PlayerID: "b"}
	sim.match.State.Phase = Playing

	ok := sim.Pause("opponent_disconnected")
	require.True(t, ok)
	assert.Equal(t, Paused, sim.Phase())
	assert.Equal(t, "opponent_disconnected", sim.match.State.PauseReason)

	ok = sim.Resume()
	require.True(t, ok)
	assert.Equal(t, Countdown, sim.Phase())
}

func TestForceEndFromAnyNonTerminalPhase(t *testing.T) {
	sim := newTestSim(t, func(string, interface{}) {}, nil)
	sim.match.Slot2 = &PlayerSlot{PlayerID: "b"}
	sim.match.State.Phase = Paused

	ok := sim.ForceEnd("a")
	require.True(t, ok)
	assert.Equal(t, Finished, sim.Phase())
	assert.Equal(t, "a", sim.match.State.WinnerID)

	assert.False(t, sim.ForceEnd("b"))
}

func TestCancelFromWaiting(t *testing.T) {
	sim := newTestSim(t, nil, nil)
	ok := sim.Cancel()
	require.True(t, ok)
	assert.Equal(t, Cancelled, sim.Phase())
	assert.False(t, sim.Cancel())
}

func TestSetPlayerInputIgnoresUnseatedPlayer(t *testing.T) {
	sim := newTestSim(t, nil, nil)
	sim.match.Slot2 = &PlayerSlot{PlayerID: "b"}
	sim.SetPlayerInput("stranger", physics.Up)
	assert.Equal(t, physics.None, sim.leftInput)
	assert.Equal(t, physics.None, sim.rightInput)

	sim.SetPlayerInput("a", physics.Up)
	assert.Equal(t, physics.Up, sim.leftInput)
}
