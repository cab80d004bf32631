package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebsocketGuesses(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("CRANE")

	hs := httptest.NewServer(ts.Handler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/game/ws?gameId=" + g.GameID
	conn, resp, err := websocket.DefaultDialer.Dial(url, ts.cookieHeader())
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	send := func(guess string) guessRes {
		t.Helper()
		require.NoError(t, conn.SetWriteDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.WriteJSON(wsGuess{Guess: guess}))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var res guessRes
		require.NoError(t, conn.ReadJSON(&res))
		return res
	}

	res := send("eerie")
	assert.Equal(t, "EERIE:XXYXG", res.Feedback)
	assert.Equal(t, 1, res.Attempt)

	res = send("no")
	assert.Equal(t, "invalid", res.Status)
	assert.Equal(t, 1, res.Attempt)

	res = send("crane")
	assert.Equal(t, "won", res.State)

	// the REST view sees the same session
	snap := decode[gameSnapshot](t, ts.do(http.MethodGet, "/game/"+g.GameID, nil))
	assert.Len(t, snap.Board, 2)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestWebsocketUnknownGame(t *testing.T) {
	ts := newTestServer(t)
	hs := httptest.NewServer(ts.Handler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/game/ws?gameId=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocketRejectsStranger(t *testing.T) {
	ts := newTestServer(t)
	g := ts.newGame("CRANE")
	hs := httptest.NewServer(ts.Handler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/game/ws?gameId=" + g.GameID
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	snap := decode[gameSnapshot](t, ts.do(http.MethodGet, "/game/"+g.GameID, nil))
	assert.Equal(t, 0, snap.Attempt)
}
