package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/service"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/store"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Gateway authenticates inbound WebSocket connections and dispatches their
// events to the presence, chat and call services. One read loop per
// connection processes that connection's events sequentially; loops of
// different connections run concurrently.
type Gateway struct {
	users      store.UserStore
	presence   *service.PresenceManager
	chat       *service.ChatService
	calls      *service.CallCoordinator
	jwtSecret  []byte
	sendBuf    int
	maxMsgSize int64
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// GatewayConfig carries the tunables the gateway needs from config.
type GatewayConfig struct {
	JWTSecret       string
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	SendBufferSize  int
}

func NewGateway(users store.UserStore, presence *service.PresenceManager, chat *service.ChatService, calls *service.CallCoordinator, cfg GatewayConfig, log *zap.Logger) *Gateway {
	return &Gateway{
		users:      users,
		presence:   presence,
		chat:       chat,
		calls:      calls,
		jwtSecret:  []byte(cfg.JWTSecret),
		sendBuf:    cfg.SendBufferSize,
		maxMsgSize: cfg.MaxMessageSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
		log: log,
	}
}

// Authenticate verifies the connection token and resolves it to an active
// user. A rejected connection must re-authenticate from scratch; there are
// no retries with the same credentials.
func (g *Gateway) Authenticate(tokenString string) (*model.User, error) {
	if tokenString == "" {
		return nil, errs.ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errs.ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, errs.ErrInvalidToken
	}
	user, err := g.users.Get(claims.Subject)
	if err != nil {
		return nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, errs.ErrUserInactive
	}
	return user, nil
}

// ServeWS upgrades the request and runs the connection's event loop.
// Path: GET /ws?token=<jwt> (Authorization: Bearer also accepted).
func (g *Gateway) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	user, err := g.Authenticate(token)
	if err != nil {
		g.log.Warn("connection refused", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	profile := model.Profile{UserID: user.ID, Nickname: user.Nickname, AvatarURL: user.AvatarURL}
	client := service.NewClient(user.ID, profile, conn, g.sendBuf)

	rooms, err := g.presence.Connect(client)
	if err != nil {
		g.log.Error("presence connect failed", zap.String("user_id", user.ID), zap.Error(err))
		client.Close()
		_ = conn.Close()
		return
	}

	g.sendEvent(client, model.EventConnected, model.ConnectedPayload{
		ConnID:  client.ID,
		Profile: profile,
		Rooms:   rooms,
	})

	go g.writePump(client)
	g.readPump(client)
}

// readPump processes inbound frames until the connection dies, then runs
// full cleanup: the silent-timeout path and the explicit-disconnect path
// are identical.
func (g *Gateway) readPump(client *service.Client) {
	conn := client.Conn
	defer func() {
		g.calls.Disconnect(client)
		g.presence.Disconnect(client)
		client.Close()
		_ = conn.Close()
	}()

	if g.maxMsgSize > 0 {
		conn.SetReadLimit(g.maxMsgSize)
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Debug("read error", zap.String("conn_id", client.ID), zap.Error(err))
			}
			return
		}
		g.dispatch(client, raw)
	}
}

func (g *Gateway) writePump(client *service.Client) {
	conn := client.Conn
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case data, ok := <-client.Outbox():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame. A failure is reported to this
// connection only; it never affects other connections or rooms.
func (g *Gateway) dispatch(client *service.Client, raw []byte) {
	event := gjson.GetBytes(raw, "event").String()
	data := []byte(gjson.GetBytes(raw, "data").Raw)

	switch event {
	case model.EventJoinRoom:
		var p model.RoomPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		members, err := g.presence.JoinRoom(client, p.RoomID)
		if err != nil {
			g.sendError(client, event, err)
			return
		}
		g.sendEvent(client, model.EventRoomMembers, members)

	case model.EventLeaveRoom:
		var p model.RoomPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		g.presence.LeaveRoom(client, p.RoomID)

	case model.EventSendMessage:
		var p model.SendMessagePayload
		if !g.bind(client, event, data, &p) {
			return
		}
		if _, err := g.chat.Send(client, p.RoomID, p.Content, p.FileURL); err != nil {
			g.sendError(client, event, err)
		}

	case model.EventMarkRead:
		var p model.MarkReadPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		if err := g.chat.MarkRead(client, p.MessageID); err != nil {
			g.sendError(client, event, err)
		}

	case model.EventSetTyping:
		var p model.TypingPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		if err := g.chat.SetTyping(client, p.RoomID, p.IsTyping); err != nil {
			g.sendError(client, event, err)
		}

	case model.EventJoinCall:
		var p model.RoomPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		roster := g.calls.Join(client, p.RoomID)
		g.sendEvent(client, model.EventCallParticipants, roster)

	case model.EventLeaveCall:
		var p model.RoomPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		g.calls.Leave(client, p.RoomID)

	case model.EventOffer, model.EventAnswer, model.EventICECandidate:
		var p model.SignalPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		if err := g.calls.Relay(client, event, p.To, p.Payload); err != nil {
			g.sendError(client, event, err)
		}

	case model.EventScreenShareStart:
		var p model.RoomPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		if err := g.calls.StartScreenShare(client, p.RoomID); err != nil {
			if errors.Is(err, errs.ErrScreenShareHeld) {
				g.sendEvent(client, model.EventScreenShareDenied, model.RoomPayload{RoomID: p.RoomID})
				return
			}
			g.sendError(client, event, err)
		}

	case model.EventScreenShareStop:
		var p model.RoomPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		g.calls.StopScreenShare(client, p.RoomID)

	case model.EventSpeaking:
		var p model.SpeakingPayload
		if !g.bind(client, event, data, &p) {
			return
		}
		g.calls.SetSpeaking(client, p.RoomID, p.IsSpeaking)

	case model.EventMediaState:
		var p model.MediaStatePayload
		if !g.bind(client, event, data, &p) {
			return
		}
		g.calls.SetMediaState(client, p.RoomID, p.Muted, p.VideoOff)

	default:
		g.sendError(client, event, errors.New("unknown event"))
	}
}

func (g *Gateway) bind(client *service.Client, event string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		g.sendError(client, event, errors.New("malformed payload"))
		return false
	}
	return true
}

func (g *Gateway) sendEvent(client *service.Client, event string, payload any) {
	data, err := model.NewEvent(event, payload)
	if err != nil {
		g.log.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	client.Enqueue(data)
}

func (g *Gateway) sendError(client *service.Client, event string, err error) {
	g.sendEvent(client, model.EventError, model.ErrorPayload{
		Event:   event,
		Code:    errorCode(err),
		Message: err.Error(),
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotAMember):
		return "not_a_member"
	case errors.Is(err, errs.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, errs.ErrMessageNotFound):
		return "message_not_found"
	case errors.Is(err, errs.ErrPeerUnreachable):
		return "peer_unreachable"
	case errors.Is(err, errs.ErrScreenShareHeld):
		return "screen_share_held"
	default:
		return "internal"
	}
}
