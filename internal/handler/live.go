package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"retroprofile-api/internal/config"
	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/metrics"
	"retroprofile-api/internal/service"
	"retroprofile-api/pkg/apierror"
	"retroprofile-api/pkg/response"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const liveWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveMessage is a client-to-server websocket message.
type LiveMessage struct {
	Type     string `json:"type"`
	Value    string `json:"value,omitempty"`
	GameID   int    `json:"gameId,omitempty"`
	Hardcore bool   `json:"hardcore,omitempty"`
}

// LiveEvent is a server-to-client websocket message.
type LiveEvent struct {
	Type    string                `json:"type"`
	State   *service.SessionState `json:"state,omitempty"`
	Message string                `json:"message,omitempty"`
}

// LiveHandler runs one profile session per websocket connection.
type LiveHandler struct {
	cfg      *config.RetroAchievementsConfig
	profiles *service.ProfileService
	quiet    time.Duration
}

// NewLiveHandler creates a new live handler.
func NewLiveHandler(cfg *config.RetroAchievementsConfig, profiles *service.ProfileService, quiet time.Duration) *LiveHandler {
	return &LiveHandler{cfg: cfg, profiles: profiles, quiet: quiet}
}

// liveConn serializes writes to a websocket connection.
type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *liveConn) send(ev LiveEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Serve handles GET /api/v1/live
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Validate(); err != nil {
		response.Error(w, apierror.ConfigError(err.Error()))
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("[Live] failed to upgrade connection")
		return
	}
	defer ws.Close()

	metrics.LiveSessions.Inc()
	defer metrics.LiveSessions.Dec()

	conn := &liveConn{conn: ws}
	log := logging.Ctx(r.Context())

	// The request context ends when the handler returns; hijacked
	// connections do not cancel it on disconnect.
	ctx, cancel := context.WithCancel(logging.WithRequestID(context.Background(), logging.RequestID(r.Context())))
	defer cancel()

	session := service.NewSession(ctx, h.profiles, h.quiet, func(st service.SessionState) {
		if err := conn.send(LiveEvent{Type: "state", State: &st}); err != nil {
			log.Debug().Err(err).Msg("[Live] failed to push state")
		}
	})

	var fetches sync.WaitGroup
	defer func() {
		cancel()
		session.Close()
		fetches.Wait()
	}()

	log.Info().Msg("[Live] session started")
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("[Live] connection closed unexpectedly")
			}
			return
		}

		var msg LiveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.send(LiveEvent{Type: "error", Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case "username":
			session.SetUsername(msg.Value)
		case "submit":
			session.SubmitUsername(msg.Value)
		case "gameInfo":
			fetches.Add(1)
			go func() {
				defer fetches.Done()
				session.FetchGameInfo(ctx, msg.GameID)
			}()
		case "gameHashes":
			fetches.Add(1)
			go func() {
				defer fetches.Done()
				session.FetchGameHashes(ctx, msg.GameID)
			}()
		case "distribution":
			fetches.Add(1)
			go func() {
				defer fetches.Done()
				session.FetchAchievementDistribution(ctx, msg.GameID, msg.Hardcore)
			}()
		default:
			_ = conn.send(LiveEvent{Type: "error", Message: "unknown message type: " + msg.Type})
		}
	}
}
