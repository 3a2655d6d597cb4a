package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"potability/water"
)

// MessageType websocket 消息类型
type MessageType string

const (
	MsgChange   MessageType = "change"
	MsgClassify MessageType = "classify"
	MsgState    MessageType = "state"
	MsgResult   MessageType = "result"
	MsgWarning  MessageType = "warning"
	MsgError    MessageType = "error"
)

const (
	maxMessageSize = 4096
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
)

// ClientMessage 客户端消息
type ClientMessage struct {
	Type  MessageType `json:"type"`
	Field string      `json:"field,omitempty"`
	Value *float64    `json:"value,omitempty"`
}

// ServerMessage 服务端消息
type ServerMessage struct {
	Type    MessageType      `json:"type"`
	State   *water.Snapshot  `json:"state,omitempty"`
	Result  *resultResponse  `json:"result,omitempty"`
	Warning *warningResponse `json:"warning,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// handleWebSocket 每个连接拥有一个会话，连接关闭即丢弃会话。
// 消息在读循环中逐条处理，同一会话的事件天然串行。
func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(conn, done)

	session := water.NewSession()
	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()

	logger := h.logger.With(zap.String("request_id", GetRequestID(r.Context())))
	logger.Debug("websocket session opened")
	defer logger.Debug("websocket session closed")

	if err := h.send(conn, stateMessage(session)); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.pongWait))
		reply := ServerMessage{Type: MsgError, Error: "invalid message"}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			reply = h.dispatch(session, msg, logger)
		}
		if err := h.send(conn, reply); err != nil {
			return
		}
	}
}

// pingLoop 定期发送 ping，客户端失联时读超时结束会话
func (h *Handlers) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) dispatch(session *water.Session, msg ClientMessage, logger *zap.Logger) (reply ServerMessage) {
	// 连接已被劫持，RecoveryMiddleware 无法响应，这里按消息恢复
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic recovered", zap.Any("panic", p), zap.String("type", string(msg.Type)))
			reply = ServerMessage{Type: MsgError, Error: "internal server error"}
		}
	}()

	switch msg.Type {
	case MsgChange:
		field, err := water.ParseField(msg.Field)
		if err != nil {
			return ServerMessage{Type: MsgError, Error: err.Error()}
		}
		if msg.Value == nil {
			return ServerMessage{Type: MsgError, Error: "value is required"}
		}
		if err := session.SetValue(field, *msg.Value); err != nil {
			return ServerMessage{Type: MsgError, Error: err.Error()}
		}
		h.metrics.FieldEvent(field.String())
		return stateMessage(session)

	case MsgClassify:
		result, err := h.classify(session)
		switch {
		case errors.Is(err, water.ErrIncompleteInput):
			warning := newWarningResponse(session.Missing())
			return ServerMessage{Type: MsgWarning, Warning: &warning}
		case err != nil:
			return ServerMessage{Type: MsgError, Error: "classification failed"}
		}
		res := newResultResponse(result, session.Advisories())
		return ServerMessage{Type: MsgResult, Result: &res}

	case MsgState:
		return stateMessage(session)

	default:
		logger.Debug("unknown websocket message", zap.String("type", string(msg.Type)))
		return ServerMessage{Type: MsgError, Error: "unknown message type"}
	}
}

func stateMessage(s *water.Session) ServerMessage {
	snap := s.Snapshot()
	return ServerMessage{Type: MsgState, State: &snap}
}

func (h *Handlers) send(conn *websocket.Conn, msg ServerMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func sameHost(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
