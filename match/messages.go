package match

import (
	"golang.org/x/net/websocket"

	"github.com/Talkashi1111/ft-transcendence-sub000/physics"
	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

// Messages sent TO a match.Actor. All of them are processed serially on
// the match's own worker, so within-match ordering is trivial: anything
// observed before tick T is applied to tick T.

// JoinRequest asks the match to attach a second player. The actor replies
// (via Ask) with a JoinResult.
type JoinRequest struct {
	Slot *PlayerSlot
}

type JoinResult struct {
	OK     bool
	Reason string // "own" | "full" | "" (OK)
	Match  *Match
}

// InputMessage carries one player's latest movement intent.
type InputMessage struct {
	PlayerID  string
	Direction physics.Direction
}

// DisconnectMessage notifies the match that a seated player's channel was
// lost.
type DisconnectMessage struct {
	PlayerID string
}

// ReconnectMessage notifies the match that a seated player's channel is
// back.
type ReconnectMessage struct {
	PlayerID string
}

// LeaveMessage notifies the match that a seated player asked to leave.
type LeaveMessage struct {
	PlayerID string
}

// DescriptorQuery asks the match for its current wire.MatchDescriptor
// projection (Ask).
type DescriptorQuery struct{}

// AttachConnection registers a seated player's live socket with this
// match's broadcaster, forwarded here by the manager once it resolves
// which match owns the connecting player.
type AttachConnection struct {
	PlayerID string
	Conn     *websocket.Conn
}

// DetachConnection drops a player's socket from the broadcaster without
// otherwise touching the match (the endpoint still separately notifies the
// manager of the disconnect itself).
type DetachConnection struct {
	PlayerID string
}

// ListChanged is relayed from the manager whenever the set of available
// (Waiting) matches changes, so a match still in the lobby can fan out
// matches:updated to its own seated-but-waiting player.
type ListChanged struct {
	Matches []wire.MatchDescriptor
}

// internal-only messages driving the tick loop and timers.
type physicsTickMsg struct{}
type countdownTickMsg struct{}
type reconnectTimeoutMsg struct{ playerID string }
type cleanupTimeoutMsg struct{}

// MatchFinished is sent by the actor to whoever is notified of match lifecycle
// completion (the manager), so the registry/player index can be updated
// and the match eventually removed.
type MatchFinished struct {
	MatchID  string
	WinnerID string
	Score1   int
	Score2   int
}

// Cleanup is sent by the actor once its post-terminal cleanup delay has
// elapsed; the recipient (the manager) removes the match from the
// registry. The actor stops itself right after sending it.
type Cleanup struct {
	MatchID string
}
