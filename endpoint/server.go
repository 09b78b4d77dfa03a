package endpoint

import (
	"fmt"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/identity"
)

// Server is the process-wide WebSocket upgrade point: it resolves
// the opaque identity token, tracks the one active connection per player
// identity, and supersedes an older session with close code 4001 when a
// newer one for the same identity arrives. The token is checked inside the
// websocket handler, after the handshake has completed; an unverified
// socket is closed at once, before any connection actor is spawned, but
// the upgrade itself is not refused.
// The handler blocks on a done channel until the spawned connection
// actor fully exits, keeping the socket alive for exactly that long.
type Server struct {
	engine     *actor.Engine
	managerPID *actor.PID
	verifier   identity.Verifier
	cfg        config.Config

	mu       sync.Mutex
	sessions map[string]*actor.PID // playerId -> current connection PID
}

func NewServer(engine *actor.Engine, managerPID *actor.PID, verifier identity.Verifier, cfg config.Config) *Server {
	return &Server{
		engine:     engine,
		managerPID: managerPID,
		verifier:   verifier,
		cfg:        cfg,
		sessions:   make(map[string]*actor.PID),
	}
}

// Handler returns the websocket.Handler-compatible function to register on
// the match stream route.
func (s *Server) Handler() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		token := ws.Request().URL.Query().Get("token")
		id, err := s.verifier.Verify(token)
		if err != nil {
			fmt.Printf("endpoint.Server: rejecting upgrade from %s: %v\n", ws.Request().RemoteAddr, err)
			_ = ws.Close()
			return
		}

		done := make(chan struct{})
		s.supersede(id.PlayerID)

		args := ConnectionArgs{
			Conn:       ws,
			Engine:     s.engine,
			ManagerPID: s.managerPID,
			Identity:   id,
			Cfg:        s.cfg,
			Done:       done,
			OnClosed:   s.onClosed,
		}
		pid := s.engine.Spawn(&actor.Props{Produce: NewProducer(args)})
		if pid == nil {
			_ = ws.Close()
			close(done)
			return
		}

		s.mu.Lock()
		s.sessions[id.PlayerID] = pid
		s.mu.Unlock()

		<-done
	}
}

// supersede closes any existing connection for playerID with code 4001
// before the new one is spawned.
func (s *Server) supersede(playerID string) {
	s.mu.Lock()
	old, ok := s.sessions[playerID]
	s.mu.Unlock()
	if ok {
		s.engine.Send(old, ReplaceSession{}, nil)
	}
}

// onClosed drops a player's session entry once its connection actor fully
// stops, but only if no newer session has already replaced it.
func (s *Server) onClosed(playerID string, self *actor.PID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[playerID]; ok && cur == self {
		delete(s.sessions, playerID)
	}
}
