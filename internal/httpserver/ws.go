package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next message (or pong) from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// wsGuess is a client message on the play channel.
type wsGuess struct {
	Guess string `json:"guess"`
}

// handleWS upgrades to a websocket bound to one session the caller owns. Each {"guess": "..."}
// message is answered with the same payload POST /game/guess returns.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r, r.URL.Query().Get("gameId"))
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	// the request context ends with the hijacked connection's handler
	ctx := context.WithoutCancel(r.Context())

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		var msg wsGuess
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("gameId", sess.ID).Msg("websocket read")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		res := s.applyGuess(ctx, sess, msg.Guess)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(res); err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("websocket write")
			return
		}
	}
}
