package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/domain"
)

func (ctl *ChatWSController) writePump(ctx context.Context, c *WsChatConn) {
	ping := time.NewTicker(ctl.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *ChatWSController) readPump(ctx context.Context, token domain.ConnToken, c *WsChatConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("token", string(token)).Msg("readPump closing")
		ctl.dropConn(token, c)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("token", string(token)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("token", string(token)).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(token, data)
		}
	}
}

// wireFrame is the inbound and outbound wire shape.
type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// handleFrame decodes one inbound frame, applies it through the engine's
// dispatch table, and delivers whatever came out. A malformed frame never
// closes the connection.
func (ctl *ChatWSController) handleFrame(token domain.ConnToken, data []byte) {
	var f wireFrame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("token", string(token)).Msg("bad frame dropped")
		return
	}
	ctl.Deliver(ctl.Engine.Dispatch(token, f.Event, f.Data))
}
