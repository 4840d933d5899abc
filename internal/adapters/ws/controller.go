package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/app"
	"github.com/studyhive/studyhive/internal/core"
	"github.com/studyhive/studyhive/internal/domain"
	"github.com/studyhive/studyhive/internal/ratelimit"
)

const (
	messagesPerSecond = 50
	messageBurst      = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Controller upgrades websocket connections and dispatches inbound events to
// the orchestrator. Events from a single connection are handled in arrival
// order on that connection's read loop.
type Controller struct {
	Orch       *app.Orchestrator
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(orch *app.Orchestrator, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{Orch: orch, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("upgrade failed")
		return
	}

	connID := core.ConnID(uuid.NewString())
	conn := newWSConn(sock)
	sess := ctl.Orch.Connect(connID, conn)
	log.Info().Str("module", "adapters.ws").Str("conn", string(connID)).
		Str("client", c.GetString("client_token")).Msg("websocket connected")

	ctx, cancel := context.WithCancel(ctx)
	go conn.writePump(ctx, ctl.PingPeriod)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sess, conn)
	}()
}

func (ctl *Controller) readPump(ctx context.Context, sess app.Session, conn *wsConn) {
	defer func() {
		ctl.Orch.Disconnect(sess.ConnID)
		conn.Close()
	}()

	conn.conn.SetReadLimit(ctl.ReadLimit)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := ratelimit.NewLimiter(messagesPerSecond, messageBurst)
	warnings := 0

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("module", "adapters.ws").
					Str("conn", string(sess.ConnID)).Msg("read error")
			}
			return
		}

		if !limiter.Allow() {
			warnings++
			if warnings%100 == 1 {
				log.Warn().Str("module", "adapters.ws").Str("conn", string(sess.ConnID)).
					Int("warnings", warnings).Msg("rate limit exceeded")
			}
			if warnings > 1000 {
				log.Warn().Str("module", "adapters.ws").Str("conn", string(sess.ConnID)).
					Msg("closing connection for excessive rate limit violations")
				return
			}
			continue
		}

		ctl.handleEvent(ctx, sess, conn, data)
	}
}

func (ctl *Controller) handleEvent(ctx context.Context, sess app.Session, conn *wsConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "adapters.ws").Msg("bad envelope")
		ctl.sendEvent(conn, core.EvError, "malformed event")
		return
	}

	switch env.Event {
	case core.EvGetRooms:
		ctl.Orch.ListRooms(ctx, conn)
	case core.EvCreateRoom:
		ctl.handleCreateRoom(ctx, conn, env.Data)
	case core.EvJoinRoom:
		ctl.handleJoinRoom(ctx, sess, conn, env.Data)
	case core.EvJoinRequestResponse:
		ctl.handleJoinResponse(ctx, sess, conn, env.Data)
	case core.EvSignal:
		ctl.handleSignal(sess, conn, env.Data)
	case core.EvNotesUpdate:
		ctl.handleNotesUpdate(ctx, sess, conn, env.Data)
	case core.EvTimerUpdate:
		ctl.handleTimerUpdate(ctx, sess, conn, env.Data)
	case core.EvTargetsUpdate:
		ctl.handleTargetsUpdate(ctx, sess, conn, env.Data)
	default:
		log.Debug().Str("module", "adapters.ws").Str("event", env.Event).Msg("unknown event")
	}
}

func (ctl *Controller) handleCreateRoom(ctx context.Context, conn *wsConn, data json.RawMessage) {
	var p struct {
		Name  string `json:"name"`
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Name == "" {
		ctl.sendEvent(conn, core.EvError, "missing or invalid room name")
		return
	}
	if _, err := ctl.Orch.CreateRoom(ctx, p.Name, p.Topic); err != nil {
		ctl.sendEvent(conn, core.EvError, "could not create room")
	}
}

func (ctl *Controller) handleJoinRoom(ctx context.Context, sess app.Session, conn *wsConn, data json.RawMessage) {
	var p struct {
		RoomID   string `json:"roomId"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendEvent(conn, core.EvError, "missing room id")
		return
	}
	ctl.Orch.RequestJoin(ctx, sess.ConnID, domain.RoomID(p.RoomID), p.Username)
}

func (ctl *Controller) handleJoinResponse(ctx context.Context, sess app.Session, conn *wsConn, data json.RawMessage) {
	var p struct {
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" || p.UserID == "" {
		ctl.sendEvent(conn, core.EvError, "missing room or user id")
		return
	}
	ctl.Orch.RespondToJoin(ctx, sess.ConnID, domain.RoomID(p.RoomID), domain.UserID(p.UserID), p.Action)
}

func (ctl *Controller) handleSignal(sess app.Session, conn *wsConn, data json.RawMessage) {
	var p struct {
		TargetUserID string          `json:"targetUserId"`
		Signal       json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TargetUserID == "" {
		ctl.sendEvent(conn, core.EvError, "missing signal target")
		return
	}
	ctl.Orch.Relay(sess.UserID, domain.UserID(p.TargetUserID), p.Signal)
}

func (ctl *Controller) handleNotesUpdate(ctx context.Context, sess app.Session, conn *wsConn, data json.RawMessage) {
	var p struct {
		RoomID string `json:"roomId"`
		Notes  string `json:"notes"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendEvent(conn, core.EvError, "missing room id")
		return
	}
	ctl.Orch.UpdateNotes(ctx, sess.UserID, domain.RoomID(p.RoomID), p.Notes)
}

func (ctl *Controller) handleTimerUpdate(ctx context.Context, sess app.Session, conn *wsConn, data json.RawMessage) {
	var p struct {
		RoomID string `json:"roomId"`
		Timer  int    `json:"timer"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendEvent(conn, core.EvError, "missing room id")
		return
	}
	ctl.Orch.UpdateTimer(ctx, sess.UserID, domain.RoomID(p.RoomID), p.Timer)
}

func (ctl *Controller) handleTargetsUpdate(ctx context.Context, sess app.Session, conn *wsConn, data json.RawMessage) {
	var p struct {
		RoomID  string   `json:"roomId"`
		Targets []string `json:"targets"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendEvent(conn, core.EvError, "missing room id")
		return
	}
	ctl.Orch.UpdateTargets(ctx, sess.UserID, domain.RoomID(p.RoomID), p.Targets)
}

func (ctl *Controller) sendEvent(conn *wsConn, event string, data any) {
	frame, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Str("event", event).Msg("encode")
		return
	}
	_ = conn.TrySend(frame)
}
