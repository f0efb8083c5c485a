package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swaggyasy/tff-socket-server/internal/converter"
	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/internal/service/relay"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

type RelayService interface {
	Join(ctx context.Context, conn relay.Conn, groupID string)
	JoinAdmin(ctx context.Context, conn relay.Conn)
	PublishStatusUpdate(ctx context.Context, event model.StatusUpdateEvent)
	Disconnect(ctx context.Context, conn relay.Conn)
}

type Config struct {
	AllowedOrigins []string
	SendBufferSize int
	ReadLimit      int64
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

type handler struct {
	relay    RelayService
	upgrader websocket.Upgrader
	cfg      Config
}

func NewHandler(relaySvc RelayService, cfg Config) *handler {
	return &handler{
		relay: relaySvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		cfg: cfg,
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop in
// the handler goroutine. The connection leaves every group before its
// writer is torn down.
func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(ctx, "websocket upgrade failed", logger.ErrorF(err))
		return
	}

	conn := newConnection(wsConn, h.cfg.SendBufferSize, h.cfg.WriteTimeout, h.cfg.PingInterval)

	logger.Info(ctx, "client connected", logger.String("conn_id", conn.ID()))

	go conn.writePump()

	defer func() {
		h.relay.Disconnect(ctx, conn)
		conn.close()
	}()

	h.readLoop(ctx, conn)
}

func (h *handler) readLoop(ctx context.Context, conn *connection) {
	if h.cfg.ReadLimit > 0 {
		conn.ws.SetReadLimit(h.cfg.ReadLimit)
	}

	readTimeout := 2 * h.cfg.PingInterval
	_ = conn.ws.SetReadDeadline(time.Now().Add(readTimeout))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, frame, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn(ctx, "websocket read error",
					logger.String("conn_id", conn.ID()),
					logger.ErrorF(err),
				)
			}
			return
		}

		h.dispatch(ctx, conn, frame)
	}
}

// dispatch handles one inbound envelope. Malformed frames are logged
// and skipped; they never tear the connection down.
func (h *handler) dispatch(ctx context.Context, conn *connection, frame []byte) {
	var envelope converter.SocketEnvelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		logger.Warn(ctx, "malformed socket frame",
			logger.String("conn_id", conn.ID()),
			logger.ErrorF(err),
		)
		return
	}

	switch envelope.Event {
	case converter.EventJoinAdminRoom:
		h.relay.JoinAdmin(ctx, conn)

	case converter.EventJoinUserRoom:
		userID, err := converter.JoinUserRoomToUserID(envelope.Data)
		if err != nil {
			logger.Warn(ctx, "malformed join-user-room payload",
				logger.String("conn_id", conn.ID()),
				logger.ErrorF(err),
			)
			return
		}
		h.relay.Join(ctx, conn, userID)

	case converter.EventOrderStatusUpdate:
		event, err := converter.StatusUpdateToModel(envelope.Data)
		if err != nil {
			logger.Warn(ctx, "malformed order-status-update payload",
				logger.String("conn_id", conn.ID()),
				logger.ErrorF(err),
			)
			return
		}
		h.relay.PublishStatusUpdate(ctx, event)

	default:
		logger.Debug(ctx, "unknown socket event ignored",
			logger.String("event", envelope.Event),
		)
	}
}

// originChecker allows requests with no Origin header (non-browser
// clients) and any origin on the allow-list.
func originChecker(allowed []string) func(r *http.Request) bool {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allowedSet[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowedSet[origin]
		return ok
	}
}
