package server

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// handleWatch streams the topology over a websocket. The current
// topology is sent on connect, then again after every rebuild, until
// the client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	// CloseRead cancels the context when the client goes away.
	ctx := c.CloseRead(r.Context())

	ch, cancel := s.poller.Watch()
	defer cancel()

	if t := s.poller.Current(); t != nil {
		if err := wsjson.Write(ctx, c, t); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case <-ch:
			t := s.poller.Current()
			if t == nil {
				continue
			}
			if err := wsjson.Write(ctx, c, t); err != nil {
				s.logger.Debug("watch write failed", zap.Error(err))
				return
			}
		}
	}
}
