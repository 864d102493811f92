package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
)

const writeDeadline = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "adapters.ws").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "adapters.ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, id domain.UserID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("user", string(id)).Msg("readPump closing")
		ctl.Relay.Disconnect(id, c)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "adapters.ws").Str("user", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "adapters.ws").Str("user", string(id)).Msg("readPump read error")
				return
			}
			ctl.dispatch(id, c, data)
		}
	}
}

// dispatch routes one inbound frame: messages with a type are
// signaling, the rest are microphone audio. Undecodable frames are
// dropped; the connection stays up.
func (ctl *Controller) dispatch(id domain.UserID, c *wsConn, data []byte) {
	var env struct {
		Type     string `json:"type"`
		Audio    string `json:"audio"`
		Terminal *bool  `json:"terminal"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("user", string(id)).Msg("malformed frame dropped")
		return
	}

	switch env.Type {
	case "":
		if env.Audio == "" && env.Terminal == nil {
			log.Warn().Str("module", "adapters.ws").Str("user", string(id)).Msg("frame with no type or audio dropped")
			return
		}
		frame := core.AudioFrame{Audio: env.Audio}
		if env.Terminal != nil {
			frame.Terminal = *env.Terminal
		}
		ctl.Relay.HandleAudio(id, frame)
	case "ping":
		ctl.sendJSON(c, map[string]string{"type": "pong"})
	default:
		var msg core.SignalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Str("module", "adapters.ws").Str("user", string(id)).Msg("malformed signal dropped")
			return
		}
		ctl.Relay.HandleSignal(id, msg)
	}
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
