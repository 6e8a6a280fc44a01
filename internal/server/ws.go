package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API has no cookie-based auth; cross-origin browser clients are allowed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket streams response fragments over a WebSocket. The client
// sends one Query as JSON; the server answers with a sequence of Response
// messages and closes the connection after the final one.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var query models.Query
	if err := conn.ReadJSON(&query); err != nil {
		s.writeWSClose(conn, websocket.CloseInvalidFramePayloadData, "invalid query")
		return
	}
	query.Streaming = true

	fragments, err := s.orch.ProcessRequestStream(r.Context(), &query)
	if err != nil {
		resp := models.NewErrorResponse(&query, err.Error())
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		_ = conn.WriteJSON(resp)
		s.writeWSClose(conn, websocket.CloseNormalClosure, "")
		return
	}

	for frag := range fragments {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(frag); err != nil {
			s.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
		if frag.IsFinal {
			break
		}
	}
	s.writeWSClose(conn, websocket.CloseNormalClosure, "")
}

func (s *Server) writeWSClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
