// Package manager is the Match Manager: the authoritative
// MatchRegistry and PlayerIndex, exposed as a single serialized actor so
// registry edits and match-phase transitions are observed atomically.
package manager

import (
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/net/websocket"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/match"
	"github.com/Talkashi1111/ft-transcendence-sub000/matcherr"
	"github.com/Talkashi1111/ft-transcendence-sub000/physics"
	"github.com/Talkashi1111/ft-transcendence-sub000/recorder"
	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

// CreateRequest asks the manager to create a Waiting match for playerId.
// Sent via Ask; the reply is CreateResult.
type CreateRequest struct {
	PlayerID string
	Username string
	Mode     string
}

type CreateResult struct {
	Match *match.Match
	Err   error
}

// JoinByIDRequest asks the manager to join playerId into an existing match.
type JoinByIDRequest struct {
	MatchID  string
	PlayerID string
	Username string
}

type JoinResult struct {
	Match *match.Match
	Err   error
}

// QuickmatchRequest finds or creates a Waiting match of the given mode.
type QuickmatchRequest struct {
	PlayerID string
	Username string
	Mode     string
}

// LeaveRequest asks the manager to remove a player from their current match.
type LeaveRequest struct {
	PlayerID string
}

// DisconnectRequest/ReconnectRequest relay socket lifecycle from the
// endpoint to whichever match owns this player.
type DisconnectRequest struct {
	PlayerID string
}

type ReconnectRequest struct {
	PlayerID string
}

// InputRequest forwards a player's movement intent to their match.
type InputRequest struct {
	PlayerID  string
	Direction physics.Direction
}

// ListAvailableRequest asks for a snapshot of Waiting matches, optionally
// filtered by mode. Sent via Ask; the reply is []wire.MatchDescriptor.
type ListAvailableRequest struct {
	Mode string
}

// AttachConnectionRequest registers a player's live socket with whichever
// match currently owns them, so that match's broadcaster can deliver
// frames to it.
type AttachConnectionRequest struct {
	PlayerID string
	Conn     *websocket.Conn
}

// DetachConnectionRequest drops a player's socket from its match's
// broadcaster without otherwise touching match/player-index state.
type DetachConnectionRequest struct {
	PlayerID string
}

// CurrentMatchRequest asks which match (if any) a player is currently
// bound to. Sent via Ask; the reply is a matchId string, "" if none.
type CurrentMatchRequest struct {
	PlayerID string
}

// entry is the registry's bookkeeping record for one match.
type entry struct {
	pid  *actor.PID
	mode string
}

// Actor is the Match Manager. One instance owns every match in the process.
type Actor struct {
	engine   *actor.Engine
	cfg      config.Config
	recorder recorder.Recorder
	selfPID  *actor.PID

	matches    map[string]*entry // matchId -> entry
	matchOrder []string          // matchIds in creation order
	playerToID map[string]string // playerId -> matchId; released on leave, on MatchFinished, or at Cleanup (a Cancelled match keeps its entries until then)
	nextID     uint64
}

// NewProducer builds a Producer for the single Match Manager instance. rec
// may be nil, in which case spawned matches simply don't record outcomes.
func NewProducer(cfg config.Config, rec recorder.Recorder) actor.Producer {
	return func() actor.Receiver {
		return &Actor{
			cfg:        cfg,
			recorder:   rec,
			matches:    make(map[string]*entry),
			playerToID: make(map[string]string),
		}
	}
}

func (a *Actor) Receive(ctx *actor.Context) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in manager.Actor %s: %v\n%s\n", a.selfPID, r, debug.Stack())
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
		a.engine = ctx.Engine()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
	case CreateRequest:
		m, err := a.create(msg.PlayerID, msg.Username, msg.Mode)
		ctx.Reply(CreateResult{Match: m, Err: err})
	case JoinByIDRequest:
		m, err := a.join(msg.MatchID, msg.PlayerID, msg.Username)
		ctx.Reply(JoinResult{Match: m, Err: err})
	case QuickmatchRequest:
		m, err := a.quickmatch(msg.PlayerID, msg.Username, msg.Mode)
		ctx.Reply(JoinResult{Match: m, Err: err})
	case LeaveRequest:
		a.leave(msg.PlayerID)
	case DisconnectRequest:
		a.handleDisconnect(msg.PlayerID)
	case ReconnectRequest:
		a.handleReconnect(msg.PlayerID)
	case InputRequest:
		a.input(msg.PlayerID, msg.Direction)
	case ListAvailableRequest:
		ctx.Reply(a.listAvailable(msg.Mode))
	case AttachConnectionRequest:
		a.attachConnection(msg.PlayerID, msg.Conn)
	case DetachConnectionRequest:
		a.detachConnection(msg.PlayerID)
	case CurrentMatchRequest:
		ctx.Reply(a.playerToID[msg.PlayerID])
	case match.MatchFinished:
		// Release both players immediately so they can create or join again
		// without waiting out the cleanup delay; the match itself stays in
		// the registry until its Cleanup fires so descriptors keep serving.
		a.releasePlayers(msg.MatchID)
	case match.Cleanup:
		a.removeMatch(msg.MatchID)
	case actor.Stopping:
		for _, e := range a.matches {
			a.engine.Stop(e.pid)
		}
	case actor.Stopped:
	}
}

func (a *Actor) nextMatchID() string {
	a.nextID++
	return fmt.Sprintf("match-%d", a.nextID)
}

func (a *Actor) create(playerID, username, mode string) (*match.Match, error) {
	if _, bound := a.playerToID[playerID]; bound {
		return nil, matcherr.NewConflict(matcherr.CodeAlreadyInMatch, "player already in a match")
	}
	m := &match.Match{
		ID:   a.nextMatchID(),
		Mode: mode,
		Slot1: &match.PlayerSlot{Side: physics.Left, PlayerID: playerID, Username: username, Connected: true},
		State: match.NewMatchState(a.cfg.FieldWidth, a.cfg.FieldHeight, a.cfg.PaddleWidth, a.cfg.PaddleHeight, a.cfg.BallRadius),
	}
	m.CreatedAt = now()

	props := &actor.Props{Produce: match.NewProducer(a.cfg, a.selfPID, m, a.recorder)}
	pid := a.engine.Spawn(props)
	a.matches[m.ID] = &entry{pid: pid, mode: mode}
	a.matchOrder = append(a.matchOrder, m.ID)
	a.playerToID[playerID] = m.ID
	a.notifyListChanged()
	return m, nil
}

func (a *Actor) join(matchID, playerID, username string) (*match.Match, error) {
	e, ok := a.matches[matchID]
	if !ok {
		return nil, matcherr.NewNotFound(matcherr.CodeMatchNotFound, "match not found")
	}
	if _, bound := a.playerToID[playerID]; bound {
		return nil, matcherr.NewConflict(matcherr.CodeAlreadyInMatch, "player already in a match")
	}
	slot2 := &match.PlayerSlot{Side: physics.Right, PlayerID: playerID, Username: username, Connected: true}
	result, err := a.engine.Ask(e.pid, match.JoinRequest{Slot: slot2}, a.cfg.AskTimeout)
	if err != nil {
		return nil, err
	}
	jr := result.(match.JoinResult)
	if !jr.OK {
		switch jr.Reason {
		case "own":
			return nil, matcherr.NewConflict(matcherr.CodeOwnMatch, "cannot join your own match")
		case "full":
			if jr.Match != nil && jr.Match.State.Phase.Terminal() {
				return nil, matcherr.NewNotJoinable(matcherr.CodeNotJoinable, "match is no longer joinable")
			}
			return nil, matcherr.NewConflict(matcherr.CodeMatchFull, "match is already full")
		default:
			return nil, matcherr.NewNotJoinable(matcherr.CodeNotJoinable, "match is not joinable")
		}
	}
	a.playerToID[playerID] = matchID
	a.notifyListChanged()
	return jr.Match, nil
}

// quickmatch implements findAvailable followed by join-or-create.
func (a *Actor) quickmatch(playerID, username, mode string) (*match.Match, error) {
	if _, bound := a.playerToID[playerID]; bound {
		return nil, matcherr.NewConflict(matcherr.CodeAlreadyInMatch, "player already in a match")
	}
	if matchID := a.findAvailable(mode, playerID); matchID != "" {
		return a.join(matchID, playerID, username)
	}
	return a.create(playerID, username, mode)
}

// findAvailable scans Waiting matches of the requested mode in creation
// order, skipping the caller's own match, and returns the oldest
// candidate's id. Creation order makes repeated scans deterministic;
// ranging the registry map directly would not be.
func (a *Actor) findAvailable(mode, excludePlayerID string) string {
	for _, matchID := range a.matchOrder {
		e, ok := a.matches[matchID]
		if !ok {
			continue
		}
		if mode != "" && e.mode != mode {
			continue
		}
		result, err := a.engine.Ask(e.pid, match.DescriptorQuery{}, a.cfg.AskTimeout)
		if err != nil {
			continue
		}
		d := result.(wire.MatchDescriptor)
		if d.Status != "waiting" {
			continue
		}
		if d.Player1 != nil && d.Player1.ID == excludePlayerID {
			continue
		}
		return matchID
	}
	return ""
}

func (a *Actor) leave(playerID string) {
	matchID, ok := a.playerToID[playerID]
	if !ok {
		return
	}
	e, ok := a.matches[matchID]
	if !ok {
		delete(a.playerToID, playerID)
		return
	}
	a.engine.Send(e.pid, match.LeaveMessage{PlayerID: playerID}, a.selfPID)
	delete(a.playerToID, playerID)
	a.notifyListChanged()
}

func (a *Actor) handleDisconnect(playerID string) {
	matchID, ok := a.playerToID[playerID]
	if !ok {
		return
	}
	e, ok := a.matches[matchID]
	if !ok {
		return
	}
	a.engine.Send(e.pid, match.DisconnectMessage{PlayerID: playerID}, a.selfPID)
}

func (a *Actor) handleReconnect(playerID string) {
	matchID, ok := a.playerToID[playerID]
	if !ok {
		return
	}
	e, ok := a.matches[matchID]
	if !ok {
		return
	}
	a.engine.Send(e.pid, match.ReconnectMessage{PlayerID: playerID}, a.selfPID)
}

func (a *Actor) attachConnection(playerID string, conn *websocket.Conn) {
	matchID, ok := a.playerToID[playerID]
	if !ok {
		return
	}
	e, ok := a.matches[matchID]
	if !ok {
		return
	}
	a.engine.Send(e.pid, match.AttachConnection{PlayerID: playerID, Conn: conn}, a.selfPID)
}

func (a *Actor) detachConnection(playerID string) {
	matchID, ok := a.playerToID[playerID]
	if !ok {
		return
	}
	e, ok := a.matches[matchID]
	if !ok {
		return
	}
	a.engine.Send(e.pid, match.DetachConnection{PlayerID: playerID}, a.selfPID)
}

// notifyListChanged relays the current Waiting-match snapshot to every
// live match so a match still in the lobby can fan matches:updated out to
// its own seated-but-waiting player.
func (a *Actor) notifyListChanged() {
	snapshot := a.listAvailable("")
	for _, matchID := range a.matchOrder {
		if e, ok := a.matches[matchID]; ok {
			a.engine.Send(e.pid, match.ListChanged{Matches: snapshot}, a.selfPID)
		}
	}
}

func (a *Actor) input(playerID string, dir physics.Direction) {
	matchID, ok := a.playerToID[playerID]
	if !ok {
		return
	}
	e, ok := a.matches[matchID]
	if !ok {
		return
	}
	a.engine.Send(e.pid, match.InputMessage{PlayerID: playerID, Direction: dir}, a.selfPID)
}

func (a *Actor) listAvailable(mode string) []wire.MatchDescriptor {
	var out []wire.MatchDescriptor
	for _, matchID := range a.matchOrder {
		e, ok := a.matches[matchID]
		if !ok {
			continue
		}
		if mode != "" && e.mode != mode {
			continue
		}
		result, err := a.engine.Ask(e.pid, match.DescriptorQuery{}, a.cfg.AskTimeout)
		if err != nil {
			continue
		}
		d := result.(wire.MatchDescriptor)
		if d.Status == "waiting" {
			out = append(out, d)
		}
	}
	return out
}

// removeMatch drops a finished match from both maps and releases its
// players, once the match's own cleanup delay has elapsed.
func (a *Actor) removeMatch(matchID string) {
	if _, ok := a.matches[matchID]; !ok {
		return
	}
	delete(a.matches, matchID)
	for i, id := range a.matchOrder {
		if id == matchID {
			a.matchOrder = append(a.matchOrder[:i], a.matchOrder[i+1:]...)
			break
		}
	}
	a.releasePlayers(matchID)
	a.notifyListChanged()
}

func (a *Actor) releasePlayers(matchID string) {
	for playerID, mID := range a.playerToID {
		if mID == matchID {
			delete(a.playerToID, playerID)
		}
	}
}

// now is a seam so tests can stub wall-clock time if ever needed; production
// always uses the real clock.
var now = func() (t time.Time) { return time.Now() }
