// File: match/actor.go
package match

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/broadcaster"
	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/physics"
	"github.com/Talkashi1111/ft-transcendence-sub000/recorder"
	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

// Actor ticks a Simulation on the actor runtime and translates its frame
// callbacks into wire frames fanned out through a per-match broadcaster. It
// owns reconnect-grace and post-terminal cleanup timers.
type Actor struct {
	cfg        config.Config
	engine     *actor.Engine
	selfPID    *actor.PID
	managerPID *actor.PID
	recorder   recorder.Recorder

	sim            *Simulation
	broadcasterPID *actor.PID

	physicsTicker   *time.Ticker
	countdownTicker *time.Ticker
	tickerMu        sync.Mutex
	stopTickersCh   chan struct{}

	reconnectTimers map[string]*time.Timer
	cleanupTimer    *time.Timer

	tickCount       uint64
	tickDurationSum time.Duration

	cleanupOnce sync.Once
}

// NewProducer builds a Producer for a freshly created match. m must already
// carry Slot1; Slot2 is attached later via JoinRequest. rec may be nil, in
// which case finished outcomes are simply not recorded.
func NewProducer(cfg config.Config, managerPID *actor.PID, m *Match, rec recorder.Recorder) actor.Producer {
	return func() actor.Receiver {
		a := &Actor{
			cfg:             cfg,
			managerPID:      managerPID,
			recorder:        rec,
			reconnectTimers: make(map[string]*time.Timer),
			stopTickersCh:   make(chan struct{}),
		}
		kernel := physics.NewKernel(cfg.FieldWidth, cfg.FieldHeight, cfg.PaddleStep, cfg.InitialSpeed, cfg.MaxSpeed, cfg.SpeedRamp)
		a.sim = NewSimulation(cfg, kernel, m, a.onFrame, a.onEnd)
		return a
	}
}

func (a *Actor) Receive(ctx *actor.Context) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in match.Actor %s: %v\n%s\n", a.selfPID, r, debug.Stack())
			a.cancelAfterPanic()
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
		a.handleStarted(ctx)
	case JoinRequest:
		a.handleJoin(ctx, msg)
	case InputMessage:
		a.sim.SetPlayerInput(msg.PlayerID, msg.Direction)
	case DisconnectMessage:
		a.handleDisconnect(ctx, msg.PlayerID)
	case ReconnectMessage:
		a.handleReconnect(ctx, msg.PlayerID)
	case LeaveMessage:
		a.handleLeave(ctx, msg.PlayerID)
	case DescriptorQuery:
		ctx.Reply(a.descriptor())
	case AttachConnection:
		a.attachConnection(msg.PlayerID, msg.Conn)
	case DetachConnection:
		if a.broadcasterPID != nil {
			a.engine.Send(a.broadcasterPID, broadcaster.RemoveConnection{PlayerID: msg.PlayerID}, a.selfPID)
		}
	case ListChanged:
		a.broadcast(wire.EventMatchesUpdated, wire.MatchesUpdatedPayload{Matches: msg.Matches})
	case broadcaster.WriteFailed:
		a.handleDisconnect(ctx, msg.PlayerID)
	case physicsTickMsg:
		start := time.Now()
		a.sim.TickPhysics()
		a.tickDurationSum += time.Since(start)
		a.tickCount++
	case countdownTickMsg:
		a.sim.TickCountdown()
	case reconnectTimeoutMsg:
		a.handleReconnectTimeout(ctx, msg.playerID)
	case cleanupTimeoutMsg:
		a.notifyCleanup(ctx)
	case actor.Stopping:
		a.performCleanup()
	case actor.Stopped:
	}
}

func (a *Actor) handleStarted(ctx *actor.Context) {
	props := &actor.Props{Produce: broadcaster.NewProducer(a.selfPID, a.cfg.OutboundQueueDepth)}
	a.broadcasterPID = ctx.Engine().Spawn(props)
	a.engine = ctx.Engine()
	a.startTickers()
}

func (a *Actor) startTickers() {
	a.tickerMu.Lock()
	defer a.tickerMu.Unlock()
	if a.physicsTicker != nil {
		return
	}
	a.physicsTicker = time.NewTicker(a.cfg.TickRate)
	countdownTick := a.cfg.CountdownTick
	if countdownTick <= 0 {
		countdownTick = time.Second
	}
	a.countdownTicker = time.NewTicker(countdownTick)
	stopCh := a.stopTickersCh
	physicsCh := a.physicsTicker.C
	countdownCh := a.countdownTicker.C
	engine := a.engine
	selfPID := a.selfPID

	go func() {
		for {
			select {
			case <-stopCh:
				return
			case _, ok := <-physicsCh:
				if !ok {
					return
				}
				engine.Send(selfPID, physicsTickMsg{}, nil)
			}
		}
	}()
	go func() {
		for {
			select {
			case <-stopCh:
				return
			case _, ok := <-countdownCh:
				if !ok {
					return
				}
				engine.Send(selfPID, countdownTickMsg{}, nil)
			}
		}
	}()
}

func (a *Actor) stopTickers() {
	a.tickerMu.Lock()
	defer a.tickerMu.Unlock()
	if a.physicsTicker != nil {
		a.physicsTicker.Stop()
		a.countdownTicker.Stop()
		close(a.stopTickersCh)
		a.physicsTicker = nil
	}
}

func (a *Actor) handleJoin(ctx *actor.Context, msg JoinRequest) {
	m := a.sim.Match()
	if msg.Slot != nil && m.Slot1 != nil && msg.Slot.PlayerID == m.Slot1.PlayerID {
		ctx.Reply(JoinResult{OK: false, Reason: "own", Match: m})
		return
	}
	if a.sim.Phase() != Waiting {
		ctx.Reply(JoinResult{OK: false, Reason: "full", Match: m})
		return
	}
	ok := a.sim.AttachSecondPlayer(msg.Slot)
	if ok {
		a.sendTo(m.Slot1.PlayerID, wire.EventMatchOpponentJoined, wire.OpponentJoinedPayload{Opponent: msg.Slot.Username})
	}
	ctx.Reply(JoinResult{OK: ok, Match: a.sim.Match()})
}

// handleDisconnect marks the slot disconnected; a Waiting match is
// cancelled outright, a live one pauses and arms a reconnect-grace timer.
func (a *Actor) handleDisconnect(ctx *actor.Context, playerID string) {
	m := a.sim.Match()
	var slot *PlayerSlot
	switch playerID {
	case m.Slot1.PlayerID:
		slot = m.Slot1
	default:
		if m.Slot2 != nil && m.Slot2.PlayerID == playerID {
			slot = m.Slot2
		}
	}
	if slot == nil || !slot.Connected {
		return
	}
	slot.Connected = false

	switch a.sim.Phase() {
	case Waiting:
		a.sim.Cancel()
		a.armCleanup()
	case Playing, Countdown, Paused:
		a.sim.Pause("opponent_disconnected")
		a.broadcast(wire.EventMatchOpponentDisconnect, wire.OpponentDisconnectedPayload{
			ReconnectTimeout: int(a.cfg.ReconnectGrace.Seconds()),
		})
		timer := time.AfterFunc(a.cfg.ReconnectGrace, func() {
			a.engine.Send(a.selfPID, reconnectTimeoutMsg{playerID: playerID}, nil)
		})
		a.reconnectTimers[playerID] = timer
	}
}

func (a *Actor) handleReconnect(ctx *actor.Context, playerID string) {
	m := a.sim.Match()
	var slot *PlayerSlot
	switch playerID {
	case m.Slot1.PlayerID:
		slot = m.Slot1
	default:
		if m.Slot2 != nil && m.Slot2.PlayerID == playerID {
			slot = m.Slot2
		}
	}
	if slot == nil || slot.Connected {
		return
	}
	if timer, ok := a.reconnectTimers[playerID]; ok {
		timer.Stop()
		delete(a.reconnectTimers, playerID)
	}
	slot.Connected = true
	a.broadcast(wire.EventMatchOpponentReconnect, struct{}{})
	if a.bothConnected() && a.sim.Phase() == Paused {
		a.sim.Resume()
	}
}

func (a *Actor) bothConnected() bool {
	m := a.sim.Match()
	if m.Slot2 == nil {
		return false
	}
	return m.Slot1.Connected && m.Slot2.Connected
}

func (a *Actor) handleReconnectTimeout(ctx *actor.Context, playerID string) {
	delete(a.reconnectTimers, playerID)
	m := a.sim.Match()
	if a.sim.Phase().Terminal() {
		return
	}
	var slot *PlayerSlot
	switch playerID {
	case m.Slot1.PlayerID:
		slot = m.Slot1
	default:
		if m.Slot2 != nil && m.Slot2.PlayerID == playerID {
			slot = m.Slot2
		}
	}
	if slot == nil || slot.Connected {
		return
	}
	var opponent *PlayerSlot
	if playerID == m.Slot1.PlayerID {
		opponent = m.Slot2
	} else {
		opponent = m.Slot1
	}
	if opponent != nil && opponent.Connected {
		a.sim.ForceEnd(opponent.PlayerID)
		return
	}
	// Both sides gone: nobody to award the win to.
	a.sim.Cancel()
	a.armCleanup()
}

func (a *Actor) handleLeave(ctx *actor.Context, playerID string) {
	m := a.sim.Match()
	switch a.sim.Phase() {
	case Waiting:
		a.sim.Cancel()
		a.armCleanup()
	case Countdown, Playing, Paused:
		opponent := m.Slot2PlayerID()
		if playerID == opponent {
			opponent = m.Slot1.PlayerID
		}
		if opponent != "" {
			a.sendTo(opponent, wire.EventMatchOpponentLeft, struct{}{})
			a.sim.ForceEnd(opponent)
		} else {
			a.sim.Cancel()
			a.armCleanup()
		}
	}
}

// attachConnection registers a newly-live socket with the broadcaster and
// sends the introductory frame(s) that establish the "match:created
// precedes any game:state" invariant for that recipient: match:created
// always first, then match:waiting for the creator while still seated
// alone, or the enriched match:joined for the second seat.
func (a *Actor) attachConnection(playerID string, conn *websocket.Conn) {
	if a.broadcasterPID == nil || playerID == "" {
		return
	}
	m := a.sim.Match()
	a.engine.Send(a.broadcasterPID, broadcaster.AddConnection{PlayerID: playerID, Conn: conn}, a.selfPID)

	a.sendTo(playerID, wire.EventMatchCreated, wire.MatchCreatedPayload{MatchID: m.ID})
	switch {
	case m.Slot1 != nil && playerID == m.Slot1.PlayerID:
		if a.sim.Phase() == Waiting {
			a.sendTo(playerID, wire.EventMatchWaiting, wire.MatchWaitingPayload{MatchID: m.ID})
		}
	case m.Slot2 != nil && playerID == m.Slot2.PlayerID:
		a.sendTo(playerID, wire.EventMatchJoined, wire.MatchJoinedPayload{MatchID: m.ID, Opponent: m.Slot1.Username, PlayerNumber: 2})
	}
}

// sendTo delivers one frame to a single seated player through the
// broadcaster, best-effort: dropped silently if that player isn't
// currently registered with a live socket.
func (a *Actor) sendTo(playerID, event string, payload interface{}) {
	if a.broadcasterPID == nil || playerID == "" {
		return
	}
	frame, err := wire.Encode(event, payload)
	if err != nil {
		return
	}
	a.engine.Send(a.broadcasterPID, broadcaster.SendTo{PlayerID: playerID, Frame: frame}, a.selfPID)
}

func (a *Actor) descriptor() wire.MatchDescriptor {
	m := a.sim.Match()
	st := m.State
	p1 := projection(m.Slot1)
	d := wire.MatchDescriptor{
		ID:        m.ID,
		Mode:      m.Mode,
		Status:    st.Phase.String(),
		Player1:   &p1,
		Score1:    st.Score1,
		Score2:    st.Score2,
		WinnerID:  st.WinnerID,
		CreatedAt: m.CreatedAt.Unix(),
	}
	if !m.StartedAt.IsZero() {
		d.StartedAt = m.StartedAt.Unix()
	}
	if m.Slot2 != nil {
		p2 := projection(m.Slot2)
		d.Player2 = &p2
	}
	return d
}

func projection(s *PlayerSlot) wire.PlayerProjection {
	return wire.PlayerProjection{ID: s.PlayerID, Username: s.Username, Connected: s.Connected}
}

func (a *Actor) broadcast(event string, payload interface{}) {
	frame, err := wire.Encode(event, payload)
	if err != nil {
		return
	}
	if a.broadcasterPID != nil {
		a.engine.Send(a.broadcasterPID, broadcaster.Broadcast{Frame: frame}, a.selfPID)
	}
}

// onFrame translates simulation-level frame kinds into wire frames.
func (a *Actor) onFrame(kind string, payload interface{}) {
	st := a.sim.Match().State
	switch kind {
	case FrameCountdown:
		a.broadcast(wire.EventGameCountdown, wire.GameCountdownPayload{Count: payload.(int)})
	case FrameStart:
		a.broadcast(wire.EventGameStart, struct{}{})
	case FrameState:
		a.broadcast(wire.EventGameState, a.snapshot())
	case FramePaused:
		reason, _ := payload.(string)
		a.broadcast(wire.EventGamePaused, wire.GamePausedPayload{Reason: reason})
	case FrameResumed:
		a.broadcast(wire.EventGameResumed, struct{}{})
	case FrameEnd:
		a.broadcast(wire.EventGameEnd, wire.GameEndPayload{Winner: a.usernameOf(st.WinnerID), WinnerID: st.WinnerID, Score1: st.Score1, Score2: st.Score2})
	}
}

func (a *Actor) snapshot() wire.GameStateSnapshot {
	m := a.sim.Match()
	st := m.State
	return wire.GameStateSnapshot{
		MatchID: m.ID,
		Phase:   st.Phase.String(),
		Ball:    wire.BallView{X: st.Ball.GetX(), Y: st.Ball.GetY(), Radius: st.Ball.GetRadius()},
		Paddles: [2]wire.PaddleView{
			{X: st.LeftPad.GetX(), Y: st.LeftPad.GetY(), Width: st.LeftPad.GetWidth(), Height: st.LeftPad.GetHeight()},
			{X: st.RightPad.GetX(), Y: st.RightPad.GetY(), Width: st.RightPad.GetWidth(), Height: st.RightPad.GetHeight()},
		},
		Score1:  st.Score1,
		Score2:  st.Score2,
		Player1: projection(m.Slot1),
		Player2: a.slot2Projection(),
	}
}

func (a *Actor) usernameOf(playerID string) string {
	m := a.sim.Match()
	if m.Slot1 != nil && m.Slot1.PlayerID == playerID {
		return m.Slot1.Username
	}
	if m.Slot2 != nil && m.Slot2.PlayerID == playerID {
		return m.Slot2.Username
	}
	return playerID
}

func (a *Actor) slot2Projection() wire.PlayerProjection {
	m := a.sim.Match()
	if m.Slot2 == nil {
		return wire.PlayerProjection{}
	}
	return projection(m.Slot2)
}

// onEnd arms the post-terminal cleanup timer, notifies the manager, and
// hands the outcome to the tournament recorder (best-effort, fire-and-forget).
func (a *Actor) onEnd(winnerID string, score1, score2 int) {
	m := a.sim.Match()
	if a.managerPID != nil && a.engine != nil {
		a.engine.Send(a.managerPID, MatchFinished{MatchID: m.ID, WinnerID: winnerID, Score1: score1, Score2: score2}, a.selfPID)
	}
	if a.recorder != nil {
		var startedAt, endedAt int64
		if !m.StartedAt.IsZero() {
			startedAt = m.StartedAt.Unix()
		}
		endedAt = time.Now().Unix()
		a.recorder.Record(wire.RecorderOutcome{
			Player1:   m.Slot1.PlayerID,
			Player2:   m.Slot2PlayerID(),
			Score1:    score1,
			Score2:    score2,
			WinnerID:  winnerID,
			StartedAt: startedAt,
			EndedAt:   endedAt,
		})
	}
	a.armCleanup()
}

// cancelAfterPanic restores invariants after a recovered panic: the match
// can no longer be trusted to be in a consistent phase, so it is
// force-cancelled and scheduled for cleanup. The process continues.
func (a *Actor) cancelAfterPanic() {
	if a.sim == nil || a.sim.Phase().Terminal() {
		return
	}
	fmt.Printf("match.Actor %s: force-cancelling match %s after panic\n", a.selfPID, a.sim.Match().ID)
	a.sim.Cancel()
	if a.engine != nil {
		a.armCleanup()
	}
}

func (a *Actor) armCleanup() {
	if a.cleanupTimer != nil {
		return
	}
	a.cleanupTimer = time.AfterFunc(a.cfg.CleanupDelay, func() {
		a.engine.Send(a.selfPID, cleanupTimeoutMsg{}, nil)
	})
}

func (a *Actor) notifyCleanup(ctx *actor.Context) {
	m := a.sim.Match()
	if a.managerPID != nil {
		ctx.Engine().Send(a.managerPID, Cleanup{MatchID: m.ID}, a.selfPID)
	}
	ctx.Engine().Stop(a.selfPID)
}

func (a *Actor) performCleanup() {
	a.cleanupOnce.Do(func() {
		a.stopTickers()
		a.logPerformanceMetrics()
		for _, t := range a.reconnectTimers {
			t.Stop()
		}
		if a.cleanupTimer != nil {
			a.cleanupTimer.Stop()
		}
		if a.broadcasterPID != nil && a.engine != nil {
			a.engine.Stop(a.broadcasterPID)
		}
	})
}

// logPerformanceMetrics prints the average physics-tick duration observed
// over the match's lifetime.
func (a *Actor) logPerformanceMetrics() {
	if a.tickCount == 0 {
		return
	}
	avg := a.tickDurationSum / time.Duration(a.tickCount)
	fmt.Printf("match.Actor %s: %d ticks, avg tick duration %s\n", a.selfPID, a.tickCount, avg)
}
