package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/robalobadob/wordle/engine/assets"
	"github.com/robalobadob/wordle/engine/internal/config"
	"github.com/robalobadob/wordle/engine/internal/daily"
	"github.com/robalobadob/wordle/engine/internal/game"
	"github.com/robalobadob/wordle/engine/internal/history"
	"github.com/robalobadob/wordle/engine/internal/store"
	"github.com/robalobadob/wordle/engine/internal/words"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	t       *testing.T
	cookies []*http.Cookie
	clock   *time.Time
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "wordle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, history.Migrate(db, assets.Migrations()))

	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	for _, fn := range mutate {
		fn(cfg)
	}
	list, err := words.New("HAPPY", "TIGER", "CRANE")
	require.NoError(t, err)

	clock := testNow
	srv := New(Options{
		Config: cfg,
		Store:  store.NewMemoryStore(),
		DB:     db,
		Words:  list,
		Now:    func() time.Time { return clock },
	})
	return &testServer{Server: srv, t: t, clock: &clock}
}

// stranger is a second client of the same server with no cookies.
func (ts *testServer) stranger() *testServer {
	return &testServer{Server: ts.Server, t: ts.t, clock: ts.clock}
}

func (ts *testServer) cookieHeader() http.Header {
	pairs := make([]string, 0, len(ts.cookies))
	for _, c := range ts.cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return http.Header{"Cookie": {strings.Join(pairs, "; ")}}
}

// do sends a request carrying the cookies collected so far and keeps any new ones.
func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range ts.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		ts.setCookie(c)
	}
	return rec
}

func (ts *testServer) setCookie(c *http.Cookie) {
	for i, old := range ts.cookies {
		if old.Name == c.Name {
			ts.cookies[i] = c
			return
		}
	}
	ts.cookies = append(ts.cookies, c)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) newGame(answer string) newGameRes {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/game/new", newGameReq{Answer: answer})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[newGameRes](ts.t, rec)
}

func (ts *testServer) guess(id, word string) guessRes {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/game/guess", guessReq{GameID: id, Guess: word})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[guessRes](ts.t, rec)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayToWin(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("happy")
	assert.Equal(t, game.DefaultMaxAttempts, g.MaxAttempts)
	assert.Equal(t, game.WordLength, g.WordLength)

	res := ts.guess(g.GameID, "abc")
	assert.Equal(t, "invalid", res.Status)
	assert.Equal(t, 0, res.Attempt)
	assert.Equal(t, "playing", res.State)

	res = ts.guess(g.GameID, " tiger ")
	want := guessRes{
		Status:    "scored",
		Guess:     "TIGER",
		Marks:     []game.Mark{game.MarkAbsent, game.MarkAbsent, game.MarkAbsent, game.MarkAbsent, game.MarkAbsent},
		Feedback:  "TIGER:XXXXX",
		State:     "playing",
		Attempt:   1,
		Remaining: 5,
		Message:   "Keep guessing! Attempts left: 5",
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("guess mismatch (-want +got):\n%s", diff)
	}

	res = ts.guess(g.GameID, "HAPPY")
	assert.Equal(t, "won", res.State)
	assert.Equal(t, "HAPPY:GGGGG", res.Feedback)
	assert.Contains(t, res.Message, "2 attempts")
	assert.Empty(t, res.Answer)
}

func TestPlayToLoss(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("TIGER")

	var res guessRes
	for i := 0; i < game.DefaultMaxAttempts; i++ {
		res = ts.guess(g.GameID, "CLOUD")
	}
	assert.Equal(t, "lost", res.State)
	assert.Equal(t, "TIGER", res.Answer)
	assert.Contains(t, res.Message, "TIGER")
	assert.Equal(t, 0, res.Remaining)

	res = ts.guess(g.GameID, "TIGER")
	assert.Equal(t, "invalid", res.Status)
	assert.Equal(t, "lost", res.State)
	assert.Equal(t, game.DefaultMaxAttempts, res.Attempt)
}

func TestStrictWords(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.StrictWords = true })
	g := ts.newGame("HAPPY")

	res := ts.guess(g.GameID, "ZZZZZ")
	assert.Equal(t, statusNotInList, res.Status)
	assert.Equal(t, 0, res.Attempt)

	res = ts.guess(g.GameID, "crane")
	assert.Equal(t, "scored", res.Status)
	assert.Equal(t, "CRANE:XXYXX", res.Feedback)
}

func TestLenientWordsScoresAnyWord(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("HAPPY")
	res := ts.guess(g.GameID, "ZZZZZ")
	assert.Equal(t, "scored", res.Status)
	assert.Equal(t, 1, res.Attempt)
}

func TestConfiguredMaxAttempts(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.MaxAttempts = 2 })
	g := ts.newGame("HAPPY")
	assert.Equal(t, 2, g.MaxAttempts)
	ts.guess(g.GameID, "TIGER")
	assert.Equal(t, "lost", ts.guess(g.GameID, "TIGER").State)
}

func TestNewGameErrors(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/game/new", newGameReq{Answer: "toolong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/game/new", newGameReq{Mode: "blitz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/game/guess", guessReq{GameID: "missing", Guess: "HAPPY"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/game/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductionIgnoresFixedAnswer(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Production = true })
	g := ts.newGame("ZZZZZ")
	sess, err := ts.store.Get(context.Background(), g.GameID)
	require.NoError(t, err)
	sess.With(func(e *game.Engine) {
		assert.NotEqual(t, "ZZZZZ", e.Secret())
	})
}

func TestSnapshotAndReset(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("HAPPY")
	ts.guess(g.GameID, "TIGER")
	ts.guess(g.GameID, "HAPPY")

	snap := decode[gameSnapshot](t, ts.do(http.MethodGet, "/game/"+g.GameID, nil))
	assert.Equal(t, "won", snap.State)
	assert.False(t, snap.Active)
	assert.Equal(t, 2, snap.Attempt)
	require.Len(t, snap.Board, 2)
	assert.Equal(t, "TIGER:XXXXX", snap.Board[0].Feedback)
	assert.Equal(t, "HAPPY:GGGGG", snap.Board[1].Feedback)

	rec := ts.do(http.MethodPost, "/game/"+g.GameID+"/reset", resetReq{})
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode[gameSnapshot](t, rec)
	assert.Equal(t, "playing", snap.State)
	assert.True(t, snap.Active)
	assert.Equal(t, 0, snap.Attempt)
	assert.Empty(t, snap.Board)

	// the secret survives a bookkeeping reset
	assert.Equal(t, "won", ts.guess(g.GameID, "HAPPY").State)

	rec = ts.do(http.MethodPost, "/game/"+g.GameID+"/reset", resetReq{NewWord: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[gameSnapshot](t, rec).Attempt)
}

func TestWordLookup(t *testing.T) {
	ts := newTestServer(t)
	got := decode[map[string]any](t, ts.do(http.MethodGet, "/words/happy", nil))
	assert.Equal(t, map[string]any{"word": "HAPPY", "valid": true, "inList": true}, got)

	got = decode[map[string]any](t, ts.do(http.MethodGet, "/words/zzzzz", nil))
	assert.Equal(t, false, got["inList"])
	assert.Equal(t, true, got["valid"])
}

func TestAccountsAndStats(t *testing.T) {
	ts := newTestServer(t)

	// an anonymous game played before signing up is claimed
	anon := ts.newGame("HAPPY")
	ts.guess(anon.GameID, "HAPPY")

	rec := ts.do(http.MethodPost, "/auth/signup", credentials{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/auth/signup", credentials{Username: "ALICE", Password: "password1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	me := decode[authUser](t, ts.do(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, "alice", me.Username)

	g := ts.newGame("TIGER")
	for i := 0; i < game.DefaultMaxAttempts; i++ {
		ts.guess(g.GameID, "CLOUD")
	}

	st := decode[map[string]any](t, ts.do(http.MethodGet, "/stats/me", nil))
	assert.EqualValues(t, 1, st["gamesPlayed"])
	assert.EqualValues(t, 0, st["wins"])

	games := decode[[]history.GameRow](t, ts.do(http.MethodGet, "/games/mine", nil))
	require.Len(t, games, 2)
	statuses := []string{games[0].Status, games[1].Status}
	assert.ElementsMatch(t, []string{"won", "lost"}, statuses)

	rec = ts.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/auth/login", credentials{Username: "alice", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = ts.do(http.MethodPost, "/auth/login", credentials{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	ts := newTestServer(t)
	u, err := ts.accts.Signup(context.Background(), "bob_1", "password1")
	require.NoError(t, err)
	tok, _, err := ts.accts.SignToken(u)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob_1", decode[authUser](t, rec).Username)
}

func TestDailyChallenge(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/game/new", newGameReq{Mode: "daily"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[newGameRes](t, rec)
	assert.Equal(t, "2026-10-19", first.Date)
	assert.Equal(t, store.ModeDaily, first.Mode)
	require.NotEmpty(t, first.GameID)

	// resumes the same session
	again := decode[newGameRes](t, ts.do(http.MethodPost, "/game/new", newGameReq{Mode: "daily"}))
	assert.Equal(t, first.GameID, again.GameID)

	rec = ts.do(http.MethodPost, "/game/"+first.GameID+"/reset", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	secret := ts.list.At(daily.WordIndex(testNow, ts.cfg.DailySalt, ts.list.Len()))
	res := ts.guess(first.GameID, strings.ToLower(secret))
	require.Equal(t, "won", res.State)

	lb := decode[lbRes](t, ts.do(http.MethodGet, "/daily/leaderboard", nil))
	assert.Equal(t, "2026-10-19", lb.Date)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 1, lb.Top[0].Guesses)

	played := decode[newGameRes](t, ts.do(http.MethodPost, "/game/new", newGameReq{Mode: "daily"}))
	assert.True(t, played.Played)
	assert.Empty(t, played.GameID)

	// another player gets the same word
	other := newTestServer(t)
	g := decode[newGameRes](t, other.do(http.MethodPost, "/game/new", newGameReq{Mode: "daily"}))
	sess, err := other.store.Get(context.Background(), g.GameID)
	require.NoError(t, err)
	sess.With(func(e *game.Engine) { assert.Equal(t, secret, e.Secret()) })
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodOptions, "/game/new", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLeaderboardLimitIsBounded(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/daily/leaderboard?limit=4611686018427387904", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lb := decode[lbRes](t, rec)
	assert.NotNil(t, lb.Top)
	assert.Empty(t, lb.Top)
}

func TestSessionsBelongToTheirOwner(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("HAPPY")
	intruder := ts.stranger()

	rec := intruder.do(http.MethodPost, "/game/guess", guessReq{GameID: g.GameID, Guess: "TIGER"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = intruder.do(http.MethodPost, "/game/"+g.GameID+"/reset", resetReq{NewWord: true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = intruder.do(http.MethodGet, "/game/"+g.GameID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	snap := decode[gameSnapshot](t, ts.do(http.MethodGet, "/game/"+g.GameID, nil))
	assert.Equal(t, 0, snap.Attempt)
	assert.Equal(t, "won", ts.guess(g.GameID, "HAPPY").State)
}

func TestSignedInOwnerKeepsAnonymousGame(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("HAPPY")
	rec := ts.do(http.MethodPost, "/auth/signup", credentials{Username: "carol", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "scored", ts.guess(g.GameID, "TIGER").Status)

	mine := ts.newGame("TIGER")
	intruder := ts.stranger()
	rec = intruder.do(http.MethodPost, "/game/guess", guessReq{GameID: mine.GameID, Guess: "TIGER"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	ts := newTestServer(t)
	idle := ts.newGame("HAPPY")

	rec := ts.do(http.MethodPost, "/game/new", newGameReq{Mode: "daily"})
	require.Equal(t, http.StatusOK, rec.Code)
	dailyGame := decode[newGameRes](t, rec)

	*ts.clock = testNow.Add(30 * time.Minute)
	busy := ts.newGame("TIGER")

	*ts.clock = testNow.Add(90 * time.Minute)
	ts.guess(busy.GameID, "CLOUD")

	assert.Equal(t, 2, ts.Sweep(context.Background(), time.Hour))

	rec = ts.do(http.MethodGet, "/game/"+idle.GameID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(http.MethodGet, "/game/"+busy.GameID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.mu.Lock()
	assert.Empty(t, ts.dailySessions)
	ts.mu.Unlock()

	// an unfinished daily game starts over once its session is gone
	again := decode[newGameRes](t, ts.do(http.MethodPost, "/game/new", newGameReq{Mode: "daily"}))
	assert.NotEqual(t, dailyGame.GameID, again.GameID)
	assert.False(t, again.Played)

	assert.Zero(t, ts.Sweep(context.Background(), time.Hour))
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ts.RunSweeper(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
