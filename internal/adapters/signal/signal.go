package signal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/app"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/config"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/core"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/metrics"
)

// Controller terminates signaling websockets: it runs the authorization
// pipeline once per connection attempt, then hands registered connections
// to the relay.
type Controller struct {
	Relay     *app.Relay
	Verifier  core.CredentialVerifier
	Directory core.SessionDirectory
	Cfg       *config.Config
}

func NewController(relay *app.Relay, verifier core.CredentialVerifier, dir core.SessionDirectory, cfg *config.Config) *Controller {
	return &Controller{Relay: relay, Verifier: verifier, Directory: dir, Cfg: cfg}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades GET /signal/:sessionId?token=... and walks the
// connection through authenticate, authorize, register.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(c.Param("sessionId"))
	token := c.Query("token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	// Collaborator lookups are the only blocking-capable calls here;
	// fail closed once the budget is spent.
	authCtx, cancel := context.WithTimeout(ctx, ctl.Cfg.AuthTimeout)
	role, reason, err := ctl.authorize(authCtx, sid, token)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").
			Str("session", string(sid)).
			Str("reason", reason).
			Msg("connection rejected")
		rejectUpgrade(ws, reason)
		metrics.ConnectionsTotal.WithLabelValues("rejected").Inc()
		return
	}

	conn := newWSConn(ws, ctl.Cfg.SendBuffer)
	ctl.Relay.Attach(sid, role, conn)
	metrics.ConnectionsTotal.WithLabelValues("accepted").Inc()

	log.Info().Str("module", "signal").
		Str("session", string(sid)).
		Str("role", role.String()).
		Str("conn", string(conn.ID())).
		Msg("connection registered")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, role, conn)
}

// authorize resolves the credential and session handle and derives the
// role once; the returned reason doubles as the close reason on failure.
func (ctl *Controller) authorize(ctx context.Context, sid domain.SessionID, token string) (domain.Role, string, error) {
	pid, err := ctl.Verifier.VerifyCredential(ctx, token)
	if err != nil {
		return "", core.ReasonBadCredential, core.ErrInvalidCredential
	}

	sess, err := ctl.Directory.GetSession(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return "", core.ReasonNoSession, err
		}
		return "", "authorization failed", err
	}
	if !sess.Open {
		return "", core.ReasonSessionEnded, domain.ErrSessionEnded
	}

	role, err := sess.RoleOf(pid)
	if err != nil {
		return "", core.ReasonNotAuthorized, err
	}
	return role, "", nil
}

// rejectUpgrade sends a single typed error frame, then closes with a
// policy-violation close reason. Pumps never start for rejected attempts.
func rejectUpgrade(ws *websocket.Conn, reason string) {
	if frame, err := core.NewErrorFrame(reason).Encode(); err == nil {
		_ = ws.WriteMessage(websocket.TextMessage, frame)
	}
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(core.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = ws.Close()
}
