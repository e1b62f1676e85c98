package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"qanoon-go/internal/model"
	"qanoon-go/internal/service"
	"qanoon-go/pkg/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin checks are left to the deployment proxy
	},
}

// ChatHandler serves the WebSocket chat surface. Each inbound question
// streams the same RAG answer as the consult endpoint, wrapped in JSON
// frames; a {"type":"stop"} frame halts forwarding of the current answer.
type ChatHandler struct {
	chatService service.ChatService
	// Per-connection stop flags, keyed by connection pointer.
	stopFlags sync.Map
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Handle upgrades the connection and processes messages until the client
// disconnects.
func (h *ChatHandler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()
	defer h.stopFlags.Delete(sessionKey(conn))

	log.Infof("WebSocket connection established from %s", c.ClientIP())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("failed to read WebSocket message: %v", err)
			break
		}

		var inbound model.ChatInbound
		if err := json.Unmarshal(message, &inbound); err != nil {
			// Tolerate bare-text questions from older clients.
			inbound = model.ChatInbound{Text: string(message)}
		}

		if inbound.Type == "stop" {
			h.stopFlags.Store(sessionKey(conn), true)
			h.writeNotification(conn, "stop", "response stopped")
			continue
		}
		if inbound.Text == "" {
			continue
		}

		// New question: clear any stale stop flag from the last answer.
		h.stopFlags.Delete(sessionKey(conn))
		shouldStop := func() bool {
			v, ok := h.stopFlags.Load(sessionKey(conn))
			return ok && v.(bool)
		}

		req := model.ConsultRequest{Text: inbound.Text, Lang: inbound.Lang, Session: inbound.Session}
		writer := &wsStreamWriter{conn: conn}
		if err := h.chatService.StreamAnswer(c.Request.Context(), req, writer, shouldStop); err != nil {
			log.Errorf("failed to stream chat response: %v", err)
			errFrame, _ := json.Marshal(map[string]string{"error": userMessage(err)})
			_ = conn.WriteMessage(websocket.TextMessage, errFrame)
			h.writeNotification(conn, "completion", "response finished")
			break
		}
		h.writeNotification(conn, "completion", "response finished")
	}
}

func (h *ChatHandler) writeNotification(conn *websocket.Conn, kind, message string) {
	notif := map[string]interface{}{
		"type":      kind,
		"status":    "finished",
		"message":   message,
		"timestamp": time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(notif)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// wsStreamWriter wraps answer fragments as {"chunk":"..."} frames.
type wsStreamWriter struct {
	conn *websocket.Conn
}

// WriteChunk satisfies llm.StreamWriter.
func (w *wsStreamWriter) WriteChunk(data []byte) error {
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

func sessionKey(conn *websocket.Conn) string {
	return fmt.Sprintf("%p", conn)
}
