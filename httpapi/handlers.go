// Package httpapi is the REST surface that sits alongside the
// persistent connection: creating, joining, quickmatching, listing and
// leaving matches, all as Ask/Send calls against the single Match Manager
// actor.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/identity"
	"github.com/Talkashi1111/ft-transcendence-sub000/manager"
	"github.com/Talkashi1111/ft-transcendence-sub000/matcherr"
	"github.com/Talkashi1111/ft-transcendence-sub000/wire"
)

// defaultMode is the service's one supported match mode; Quickmatch has
// no mode in its request body so it always uses this.
const defaultMode = "1v1"

// API wires the REST handlers to the shared actor engine and manager.
type API struct {
	engine     *actor.Engine
	managerPID *actor.PID
	verifier   identity.Verifier
	cfg        config.Config
	wsPath     string
}

func NewAPI(engine *actor.Engine, managerPID *actor.PID, verifier identity.Verifier, cfg config.Config, wsPath string) *API {
	return &API{engine: engine, managerPID: managerPID, verifier: verifier, cfg: cfg, wsPath: wsPath}
}

// Mux builds the http.Handler serving every route this package owns.
// Registered as exact paths ahead of the "/matches/" prefix so ServeMux's
// longest-match rule picks the specific handler over the generic one.
func (a *API) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/matches", a.handleMatchesRoot)
	mux.HandleFunc("/matches/quickmatch", a.wrap(a.handleQuickmatch))
	mux.HandleFunc("/matches/leave", a.wrap(a.handleLeave))
	mux.HandleFunc("/matches/", a.wrap(a.handleJoin))
	return mux
}

func (a *API) handleMatchesRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.wrap(a.handleCreate)(w, r)
	case http.MethodGet:
		a.wrap(a.handleList)(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// wrap adds the panic recovery every handler in this package shares.
func (a *API) wrap(h func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				fmt.Printf("PANIC recovered in httpapi handler %s %s: %v\n%s\n", r.Method, r.URL.Path, rec, debug.Stack())
				writeError(w, matcherr.NewValidation(matcherr.CodeInternal, "internal error"))
			}
		}()
		h(w, r)
	}
}

// authenticate resolves the caller's identity from the bearer token, the
// same opaque token the WebSocket upgrade consumes, so a REST
// client and its eventual connection agree on one playerId.
func (a *API) authenticate(r *http.Request) (identity.Identity, string, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	id, err := a.verifier.Verify(token)
	return id, token, err
}

func (a *API) websocketURL(token string) string {
	return fmt.Sprintf("%s?token=%s", a.wsPath, token)
}

type createRequestBody struct {
	Mode string `json:"mode"`
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, token, err := a.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body createRequestBody
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Mode == "" {
		writeError(w, matcherr.NewValidation(matcherr.CodeMissingMode, "mode is required"))
		return
	}
	if body.Mode != defaultMode {
		writeError(w, matcherr.NewValidation(matcherr.CodeUnknownMode, fmt.Sprintf("unknown mode %q", body.Mode)))
		return
	}

	reply, err := a.engine.Ask(a.managerPID, manager.CreateRequest{PlayerID: id.PlayerID, Username: id.Username, Mode: body.Mode}, a.cfg.AskTimeout)
	if err != nil {
		writeError(w, err)
		return
	}
	res := reply.(manager.CreateResult)
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"matchId":      res.Match.ID,
		"mode":         res.Match.Mode,
		"creatorAlias": res.Match.Slot1.Username,
		"websocketUrl": a.websocketURL(token),
	})
}

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	matchID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/matches/"), "/join")
	if matchID == "" || !strings.HasSuffix(r.URL.Path, "/join") {
		http.NotFound(w, r)
		return
	}

	id, token, err := a.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := a.engine.Ask(a.managerPID, manager.JoinByIDRequest{MatchID: matchID, PlayerID: id.PlayerID, Username: id.Username}, a.cfg.AskTimeout)
	if err != nil {
		writeError(w, err)
		return
	}
	res := reply.(manager.JoinResult)
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matchId":      res.Match.ID,
		"mode":         res.Match.Mode,
		"creatorAlias": res.Match.Slot1.Username,
		"joinerAlias":  id.Username,
		"websocketUrl": a.websocketURL(token),
	})
}

func (a *API) handleQuickmatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	id, token, err := a.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := a.engine.Ask(a.managerPID, manager.QuickmatchRequest{PlayerID: id.PlayerID, Username: id.Username, Mode: defaultMode}, a.cfg.AskTimeout)
	if err != nil {
		writeError(w, err)
		return
	}
	res := reply.(manager.JoinResult)
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}

	opponentAlias := ""
	if res.Match.Slot2 != nil && res.Match.Slot2.PlayerID != id.PlayerID {
		opponentAlias = res.Match.Slot2.Username
	}
	playerAlias := id.Username
	if res.Match.Slot1.PlayerID == id.PlayerID {
		playerAlias = res.Match.Slot1.Username
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matchId":       res.Match.ID,
		"mode":          res.Match.Mode,
		"playerAlias":   playerAlias,
		"opponentAlias": opponentAlias,
		"websocketUrl":  a.websocketURL(token),
	})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	mode := r.URL.Query().Get("mode")

	reply, err := a.engine.Ask(a.managerPID, manager.ListAvailableRequest{Mode: mode}, a.cfg.AskTimeout)
	if err != nil {
		writeError(w, err)
		return
	}
	descriptors, _ := reply.([]wire.MatchDescriptor)
	if descriptors == nil {
		descriptors = []wire.MatchDescriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": descriptors})
}

func (a *API) handleLeave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	id, _, err := a.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	a.engine.Send(a.managerPID, manager.LeaveRequest{PlayerID: id.PlayerID}, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the matcherr taxonomy onto HTTP status codes;
// anything unrecognized falls back to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := matcherr.CodeInternal
	switch e := err.(type) {
	case *matcherr.ValidationError:
		status, code = http.StatusBadRequest, e.Code
	case *matcherr.ConflictError:
		status, code = http.StatusConflict, e.Code
	case *matcherr.NotFoundError:
		status, code = http.StatusNotFound, e.Code
	case *matcherr.NotJoinableError:
		status, code = http.StatusGone, e.Code
	case *matcherr.AuthError:
		status, code = http.StatusUnauthorized, e.Code
	}
	writeJSON(w, status, map[string]string{"code": code, "message": err.Error()})
}
