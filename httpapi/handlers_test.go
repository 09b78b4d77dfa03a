package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Talkashi1111/ft-transcendence-sub000/actor"
	"github.com/Talkashi1111/ft-transcendence-sub000/config"
	"github.com/Talkashi1111/ft-transcendence-sub000/identity"
	"github.com/Talkashi1111/ft-transcendence-sub000/manager"
	"github.com/Talkashi1111/ft-transcendence-sub000/matcherr"
)

// stubVerifier treats the raw token string as the player id, so tests don't
// need real JWTs.
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (identity.Identity, error) {
	if token == "" {
		return identity.Identity{}, matcherr.NewAuth(matcherr.CodeNoIdentity, "missing identity token")
	}
	return identity.Identity{PlayerID: token, Username: "user-" + token}, nil
}

func newTestAPI(t *testing.T) *API {
	cfg := config.Fast()
	engine := actor.NewEngine()
	managerPID := engine.Spawn(&actor.Props{Produce: manager.NewProducer(cfg, nil)})
	require.NotNil(t, managerPID)
	return NewAPI(engine, managerPID, stubVerifier{}, cfg, "/match/stream")
}

func authedRequest(t *testing.T, method, path, token string, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestHandleCreateRequiresMode(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.Mux().ServeHTTP(w, authedRequest(t, http.MethodPost, "/matches", "alice", "{}"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateSucceeds(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.Mux().ServeHTTP(w, authedRequest(t, http.MethodPost, "/matches", "alice", `{"mode":"1v1"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"matchId"`)
	assert.Contains(t, w.Body.String(), `"websocketUrl":"/match/stream?token=alice"`)
}

func TestHandleJoinUnknownMatch(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.Mux().ServeHTTP(w, authedRequest(t, http.MethodPost, "/matches/nope/join", "bob", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleJoinOwnMatchConflicts(t *testing.T) {
	api := newTestAPI(t)

	createW := httptest.NewRecorder()
	api.Mux().ServeHTTP(createW, authedRequest(t, http.MethodPost, "/matches", "alice", `{"mode":"1v1"}`))
	require.Equal(t, http.StatusCreated, createW.Code)

	joinW := httptest.NewRecorder()
	api.Mux().ServeHTTP(joinW, authedRequest(t, http.MethodPost, "/matches/match-1/join", "alice", ""))
	assert.Equal(t, http.StatusConflict, joinW.Code)
}

func TestHandleJoinSucceeds(t *testing.T) {
	api := newTestAPI(t)

	createW := httptest.NewRecorder()
	api.Mux().ServeHTTP(createW, authedRequest(t, http.MethodPost, "/matches", "alice", `{"mode":"1v1"}`))
	require.Equal(t, http.StatusCreated, createW.Code)

	joinW := httptest.NewRecorder()
	api.Mux().ServeHTTP(joinW, authedRequest(t, http.MethodPost, "/matches/match-1/join", "bob", ""))
	assert.Equal(t, http.StatusOK, joinW.Code)
	assert.Contains(t, joinW.Body.String(), `"joinerAlias":"user-bob"`)
}

func TestHandleListFiltersByMode(t *testing.T) {
	api := newTestAPI(t)
	createW := httptest.NewRecorder()
	api.Mux().ServeHTTP(createW, authedRequest(t, http.MethodPost, "/matches", "alice", `{"mode":"1v1"}`))
	require.Equal(t, http.StatusCreated, createW.Code)

	listW := httptest.NewRecorder()
	api.Mux().ServeHTTP(listW, authedRequest(t, http.MethodGet, "/matches?mode=1v1", "alice", ""))
	assert.Equal(t, http.StatusOK, listW.Code)
	assert.Contains(t, listW.Body.String(), "match-1")

	otherW := httptest.NewRecorder()
	api.Mux().ServeHTTP(otherW, authedRequest(t, http.MethodGet, "/matches?mode=2v2", "alice", ""))
	assert.Equal(t, http.StatusOK, otherW.Code)
	assert.NotContains(t, otherW.Body.String(), "match-1")
}

func TestHandleLeaveAlwaysSucceeds(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.Mux().ServeHTTP(w, authedRequest(t, http.MethodPost, "/matches/leave", "alice", ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleCreateWithoutTokenUnauthorized(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/matches", strings.NewReader(`{"mode":"1v1"}`))
	api.Mux().ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
