// Package broadcaster fans a match's outbound frames out to its connected
// players. One Actor instance per match; each player gets its own bounded
// queue and writer goroutine so one slow socket cannot stall the others.
package broadcaster

import (
	"fmt"
	"runtime/debug"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

// AddConnection registers a player's live socket with the broadcaster.
type AddConnection struct {
	PlayerID string
	Conn     *websocket.Conn
}

// RemoveConnection drops a player's socket, e.g. on disconnect or session
// replacement. It does not close the connection; the caller owns that.
type RemoveConnection struct {
	PlayerID string
}

// Broadcast fans a frame out to every connected player in the match.
type Broadcast struct {
	Frame wire.Frame
}

// SendTo delivers a frame to a single player only.
type SendTo struct {
	PlayerID string
	Frame    wire.Frame
}

// WriteFailed is sent back to the owner the first time a write to a
// player's socket fails with a closed-connection error (other write errors
// are logged and the writer keeps going); the owner (match.Actor) treats it
// like a disconnect.
type WriteFailed struct {
	PlayerID string
}

type conn struct {
	playerID string
	ws       *websocket.Conn
	queue    *connQueue
	done     chan struct{}
}

// Actor owns one outbound queue+writer per connected player.
type Actor struct {
	owner      *actor.PID
	queueDepth int
	conns      map[string]*conn
	selfPID    *actor.PID
}

func NewProducer(owner *actor.PID, queueDepth int) actor.Producer {
	return func() actor.Receiver {
		return &Actor{owner: owner, queueDepth: queueDepth, conns: make(map[string]*conn)}
	}
}

func (a *Actor) Receive(ctx *actor.Context) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in broadcaster.Actor %s: %v\n%s\n", a.selfPID, r, debug.Stack())
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
	case AddConnection:
		a.addConnection(ctx, msg)
	case RemoveConnection:
		a.removeConnection(msg.PlayerID)
	case Broadcast:
		for _, c := range a.conns {
			c.queue.push(msg.Frame)
		}
	case SendTo:
		if c, ok := a.conns[msg.PlayerID]; ok {
			c.queue.push(msg.Frame)
		}
	case actor.Stopping:
		for id := range a.conns {
			a.removeConnection(id)
		}
	case actor.Stopped:
	}
}

func (a *Actor) addConnection(ctx *actor.Context, msg AddConnection) {
	if msg.Conn == nil || msg.PlayerID == "" {
		return
	}
	a.removeConnection(msg.PlayerID)

	c := &conn{
		playerID: msg.PlayerID,
		ws:       msg.Conn,
		queue:    newConnQueue(a.queueDepth),
		done:     make(chan struct{}),
	}
	a.conns[msg.PlayerID] = c
	engine := ctx.Engine()
	go a.writeLoop(engine, c)
}

func (a *Actor) removeConnection(playerID string) {
	c, ok := a.conns[playerID]
	if !ok {
		return
	}
	delete(a.conns, playerID)
	c.queue.close()
}

// writeLoop drains one connection's queue and writes JSON frames until the
// queue is closed or the socket fails hard.
func (a *Actor) writeLoop(engine *actor.Engine, c *conn) {
	for {
		frame, ok := c.queue.pop()
		if !ok {
			return
		}
		if err := websocket.JSON.Send(c.ws, frame); err != nil {
			if isClosedConnErr(err) {
				if a.owner != nil {
					engine.Send(a.owner, WriteFailed{PlayerID: c.playerID}, a.selfPID)
				}
				return
			}
			fmt.Printf("broadcaster: write error to %s: %v\n", c.playerID, err)
		}
	}
}

func isClosedConnErr(err error) bool {
	s := err.Error()
	return strings.Contains(s, "use of closed network connection") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "connection reset by peer") ||
		strings.Contains(s, "EOF") ||
		strings.Contains(s, "write: connection timed out")
}
