package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/app"
)

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Deliver fans envelopes out to their recipients. Fire and forget: a full
// send buffer drops the frame for that one recipient and never delays or
// rolls back delivery to the others.
func (ctl *ChatWSController) Deliver(envs []app.Envelope) {
	for _, env := range envs {
		b, err := json.Marshal(outFrame{Event: env.Event, Data: env.Payload})
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Str("event", env.Event).Msg("marshal envelope")
			continue
		}
		for _, c := range ctl.recipients(env.To) {
			if err := c.TrySend(b); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("event", env.Event).Msg("frame dropped")
			}
		}
	}
}

func (ctl *ChatWSController) recipients(to app.Address) []*WsChatConn {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	if to.All {
		out := make([]*WsChatConn, 0, len(ctl.conns))
		for _, c := range ctl.conns {
			out = append(out, c)
		}
		return out
	}
	out := make([]*WsChatConn, 0, len(to.Conns))
	for _, t := range to.Conns {
		if c, ok := ctl.conns[t]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ConnCount reports live transport connections for the health endpoint.
func (ctl *ChatWSController) ConnCount() int {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	return len(ctl.conns)
}
