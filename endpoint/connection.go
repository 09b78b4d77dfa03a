// Package endpoint is the connection endpoint: one actor per
// persistent WebSocket connection, speaking the wire.Frame protocol and
// forwarding validated events to the Match Manager.
package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/identity"
	"github.com/Talkashi1111/ft-transcendence-sub000/manager"
	"github.com/Talkashi1111/ft-transcendence-sub000/matcherr"
	"github.com/Talkashi1111/ft-transcendence-sub000/physics"
	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

var errReadLoopExited = errors.New("endpoint: read loop exited")

// rawFrame carries one inbound frame's bytes from the read loop back to the
// connection's own mailbox, so parsing and dispatch happen on the actor.
type rawFrame struct{ data []byte }

// ReplaceSession tells an existing connection actor that a newer session
// for the same identity has taken over; it closes with code 4001.
type ReplaceSession struct{}

// ConnectionArgs bundles everything needed to spawn a Connection.
type ConnectionArgs struct {
	Conn       *websocket.Conn
	Engine     *actor.Engine
	ManagerPID *actor.PID
	Identity   identity.Identity
	Cfg        config.Config
	Done       chan struct{}
	OnClosed   func(playerID string, self *actor.PID)
}

// Connection owns one player's socket lifecycle: reading, heartbeat,
// dispatch, and cleanup-on-loss.
type Connection struct {
	args ConnectionArgs

	selfPID        *actor.PID
	stopReadLoop   chan struct{}
	readLoopExited chan struct{}
	closeOnce      sync.Once
	lastActivity   time.Time
	idleTimer      *time.Timer
	replaced       bool
}

func NewProducer(args ConnectionArgs) actor.Producer {
	return func() actor.Receiver {
		return &Connection{
			args:           args,
			stopReadLoop:   make(chan struct{}),
			readLoopExited: make(chan struct{}),
		}
	}
}

func (c *Connection) Receive(ctx *actor.Context) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in endpoint.Connection %s: %v\n%s\n", c.selfPID, r, debug.Stack())
			c.cleanup(ctx)
		}
	}()

	if c.selfPID == nil {
		c.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
		c.lastActivity = time.Now()
		c.armIdleTimer(ctx)
		c.attachToCurrentMatch(ctx)
		go c.readLoop(ctx.Engine(), c.selfPID)
	case rawFrame:
		c.lastActivity = time.Now()
		c.dispatch(ctx, msg.data)
	case ReplaceSession:
		c.replaced = true
		c.closeWithCode(wire.CloseSessionReplaced)
		ctx.Engine().Stop(c.selfPID)
	case idleCheckMsg:
		c.checkIdle(ctx)
	case error:
		c.cleanup(ctx)
	case actor.Stopping:
		c.signalAndWaitForReadLoop()
		if !c.replaced {
			c.notifyDisconnect(ctx)
		}
	case actor.Stopped:
		c.closeOnce.Do(func() {
			if c.args.Done != nil {
				close(c.args.Done)
			}
		})
		if c.args.OnClosed != nil {
			c.args.OnClosed(c.args.Identity.PlayerID, c.selfPID)
		}
	}
}

type idleCheckMsg struct{}

func (c *Connection) armIdleTimer(ctx *actor.Context) {
	if c.args.Cfg.IdleConnectionTTL <= 0 {
		return
	}
	engine := ctx.Engine()
	self := c.selfPID
	c.idleTimer = time.AfterFunc(c.args.Cfg.IdleConnectionTTL, func() {
		engine.Send(self, idleCheckMsg{}, nil)
	})
}

func (c *Connection) checkIdle(ctx *actor.Context) {
	if time.Since(c.lastActivity) >= c.args.Cfg.IdleConnectionTTL {
		c.cleanup(ctx)
		return
	}
	c.armIdleTimer(ctx)
}

func (c *Connection) dispatch(ctx *actor.Context, raw []byte) {
	var frame wire.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.sendError(matcherr.CodeBadFrame, "malformed frame")
		return
	}

	switch frame.Event {
	case wire.EventPing:
		c.send(wire.EventPong, struct{}{})
	case wire.EventPlayerInput:
		var p wire.PlayerInputPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.sendError(matcherr.CodeBadFrame, "malformed frame")
			return
		}
		ctx.Engine().Send(c.args.ManagerPID, manager.InputRequest{
			PlayerID:  c.args.Identity.PlayerID,
			Direction: parseDirection(p.Direction),
		}, c.selfPID)
	case wire.EventMatchJoin:
		var p wire.MatchJoinPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			c.sendError(matcherr.CodeBadFrame, "malformed frame")
			return
		}
		result, err := ctx.Engine().Ask(c.args.ManagerPID, manager.JoinByIDRequest{
			MatchID:  p.MatchID,
			PlayerID: c.args.Identity.PlayerID,
			Username: c.args.Identity.Username,
		}, c.args.Cfg.AskTimeout)
		c.replyJoinResult(ctx, result, err)
	case wire.EventMatchLeave:
		ctx.Engine().Send(c.args.ManagerPID, manager.LeaveRequest{PlayerID: c.args.Identity.PlayerID}, c.selfPID)
	case wire.EventMatchReconnect:
		ctx.Engine().Send(c.args.ManagerPID, manager.ReconnectRequest{PlayerID: c.args.Identity.PlayerID}, c.selfPID)
		c.attachToCurrentMatch(ctx)
	case wire.EventPlayerReady:
		// No-op placeholder: readiness beyond "connected" isn't modeled
		// separately from seating in this service.
	default:
		c.sendError(matcherr.CodeUnknownEvent, fmt.Sprintf("unknown event %q", frame.Event))
	}
}

func (c *Connection) replyJoinResult(ctx *actor.Context, result interface{}, err error) {
	if err != nil {
		c.sendError(matcherr.CodeOf(err), err.Error())
		return
	}
	jr, ok := result.(manager.JoinResult)
	if !ok || jr.Err != nil {
		if ok && jr.Err != nil {
			c.sendError(matcherr.CodeOf(jr.Err), jr.Err.Error())
		}
		return
	}
	// The enriched match:joined frame (opponent, playerNumber) is sent by the
	// match actor itself once this socket registers with its broadcaster.
	c.attachToCurrentMatch(ctx)
}

// attachToCurrentMatch asks the manager which match (if any) this
// connection's player is currently bound to, and if found registers this
// socket with that match's broadcaster.
func (c *Connection) attachToCurrentMatch(ctx *actor.Context) {
	result, err := ctx.Engine().Ask(c.args.ManagerPID, manager.CurrentMatchRequest{PlayerID: c.args.Identity.PlayerID}, c.args.Cfg.AskTimeout)
	if err != nil {
		return
	}
	matchID, _ := result.(string)
	if matchID == "" {
		return
	}
	ctx.Engine().Send(c.args.ManagerPID, manager.AttachConnectionRequest{
		PlayerID: c.args.Identity.PlayerID,
		Conn:     c.args.Conn,
	}, c.selfPID)
}

func parseDirection(s string) physics.Direction {
	switch s {
	case "up":
		return physics.Up
	case "down":
		return physics.Down
	default:
		return physics.None
	}
}

func (c *Connection) sendError(code, message string) {
	c.send(wire.EventError, wire.ErrorPayload{Code: code, Message: message})
}

func (c *Connection) send(event string, payload interface{}) {
	frame, err := wire.Encode(event, payload)
	if err != nil {
		return
	}
	_ = websocket.JSON.Send(c.args.Conn, frame)
}

func (c *Connection) closeWithCode(code int) {
	if c.args.Conn == nil {
		return
	}
	if err := c.args.Conn.WriteClose(code); err != nil {
		_ = c.args.Conn.Close()
	}
}

// readLoop reads raw frames until the socket closes or stopReadLoop fires,
// sending each back to the actor's own mailbox for serial processing. JSON
// parsing happens in dispatch, so a malformed frame does not end the loop.
func (c *Connection) readLoop(engine *actor.Engine, self *actor.PID) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in endpoint.Connection %s readLoop: %v\n%s\n", self, r, debug.Stack())
		}
		close(c.readLoopExited)
		engine.Send(self, errReadLoopExited, nil)
	}()

	for {
		select {
		case <-c.stopReadLoop:
			return
		default:
		}

		var raw []byte
		if err := websocket.Message.Receive(c.args.Conn, &raw); err != nil {
			return
		}
		engine.Send(self, rawFrame{data: raw}, nil)
	}
}

func (c *Connection) signalAndWaitForReadLoop() {
	select {
	case <-c.stopReadLoop:
	default:
		close(c.stopReadLoop)
	}
	if c.args.Conn != nil {
		_ = c.args.Conn.Close()
	}
	select {
	case <-c.readLoopExited:
	case <-time.After(2 * time.Second):
	}
}

func (c *Connection) notifyDisconnect(ctx *actor.Context) {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	if c.args.ManagerPID != nil {
		ctx.Engine().Send(c.args.ManagerPID, manager.DetachConnectionRequest{PlayerID: c.args.Identity.PlayerID}, c.selfPID)
		ctx.Engine().Send(c.args.ManagerPID, manager.DisconnectRequest{PlayerID: c.args.Identity.PlayerID}, c.selfPID)
	}
}

func (c *Connection) cleanup(ctx *actor.Context) {
	c.signalAndWaitForReadLoop()
	ctx.Engine().Stop(c.selfPID)
}
