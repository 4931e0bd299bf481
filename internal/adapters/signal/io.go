package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/core"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ping := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
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

func (ctl *Controller) readPump(ctx context.Context, sid domain.SessionID, role domain.Role, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").
			Str("session", string(sid)).
			Str("role", role.String()).
			Str("conn", string(c.ID())).
			Msg("readPump closing")
		ctl.Relay.Detach(sid, role, c)
		c.Close(core.CloseNormal, "")
	}()

	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("session", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("session", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(sid, role, c, data)
		}
	}
}

// handleFrame decodes one inbound frame and feeds it to the relay.
// Protocol violations get a single error reply; the connection stays open.
func (ctl *Controller) handleFrame(sid domain.SessionID, role domain.Role, c *wsConn, data []byte) {
	env, err := core.DecodeFrame(data)
	if err == nil {
		err = ctl.Relay.HandleFrame(sid, role, env)
	}
	if err == nil {
		return
	}

	var perr *core.ProtocolError
	if !errors.As(err, &perr) {
		log.Error().Err(err).Str("module", "signal").Str("session", string(sid)).Msg("handle frame")
		return
	}
	log.Warn().Str("module", "signal").
		Str("session", string(sid)).
		Str("role", role.String()).
		Str("reason", perr.Reason).
		Msg("protocol violation")
	if frame, encErr := core.NewErrorFrame(perr.Reason).Encode(); encErr == nil {
		_ = c.TrySend(frame)
	}
}
