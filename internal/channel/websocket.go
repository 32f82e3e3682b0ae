package channel

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"conduit/internal/message"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn serializes writes to a *websocket.Conn, which is not safe for
// concurrent use from multiple goroutines.
type safeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *safeConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("websocket: marshal: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteMessage(websocket.TextMessage, data)
}

// wsIncoming is the JSON envelope a browser client sends over the socket.
type wsIncoming struct {
	Text   string `json:"text"`
	NodeID string `json:"node_id"`
	Images []struct {
		Name string `json:"name"`
		Mime string `json:"mime"`
		Data string `json:"data"`
	} `json:"images"`
}

// WebSocket is the in-browser technician console channel adapter: one
// connection per user, JSON frames in, JSON frames out.
type WebSocket struct {
	port int

	server *http.Server

	mu          sync.RWMutex
	connections map[string]*safeConn
}

// NewWebSocket constructs a WebSocket adapter listening on port.
func NewWebSocket(port int) *WebSocket {
	return &WebSocket{port: port, connections: map[string]*safeConn{}}
}

func (w *WebSocket) ID() string                   { return "websocket" }
func (w *WebSocket) channelKind() message.Channel { return message.ChannelWebSocket }

func (w *WebSocket) Start(ctx context.Context, handler Handler) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(rw http.ResponseWriter, r *http.Request) {
		w.handle(ctx, rw, r, handler)
	})

	w.server = &http.Server{Addr: fmt.Sprintf(":%d", w.port), Handler: mux}
	slog.Info("websocket channel listening", "port", w.port)

	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("websocket server error", "error", err)
		}
	}()
	return nil
}

func (w *WebSocket) Stop(ctx context.Context) error {
	if w.server == nil {
		return nil
	}
	return w.server.Close()
}

func (w *WebSocket) handle(ctx context.Context, rw http.ResponseWriter, r *http.Request, handler Handler) {
	raw, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Error("websocket: upgrade failed", "error", err)
		return
	}
	conn := &safeConn{Conn: raw}
	userID := r.RemoteAddr

	w.mu.Lock()
	w.connections[userID] = conn
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.connections, userID)
		w.mu.Unlock()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming wsIncoming
		text := string(raw)
		var attachments []message.Attachment
		if err := json.Unmarshal(raw, &incoming); err == nil && incoming.Text != "" {
			text = incoming.Text
			for _, img := range incoming.Images {
				data, err := base64.StdEncoding.DecodeString(img.Data)
				if err != nil {
					slog.Error("websocket: decode image failed", "name", img.Name, "error", err)
					continue
				}
				attachments = append(attachments, message.Attachment{
					Type:     message.AttachmentImage,
					Data:     data,
					MimeType: img.Mime,
					Filename: img.Name,
				})
			}
		}

		in := &message.Inbound{
			ID:          fmt.Sprintf("%s-%d", userID, time.Now().UnixNano()),
			Channel:     message.ChannelWebSocket,
			UserID:      userID,
			DisplayName: userID,
			Text:        text,
			NodeID:      incoming.NodeID,
			Attachments: attachments,
			ArrivedAt:   time.Now(),
		}
		out := handler.Dispatch(ctx, in)
		if err := w.Send(ctx, out); err != nil {
			slog.Error("websocket: send reply failed", "error", err)
		}
	}
}

// Send delivers out as a single JSON frame to its originating connection.
func (w *WebSocket) Send(ctx context.Context, out message.Outbound) error {
	w.mu.RLock()
	conn, ok := w.connections[out.UserID]
	w.mu.RUnlock()
	if !ok {
		return fmt.Errorf("websocket: user %s not connected", out.UserID)
	}

	frame := map[string]any{"type": "message", "text": out.Text}
	if len(out.Attachments) > 0 {
		images := make([]map[string]string, 0, len(out.Attachments))
		for _, a := range out.Attachments {
			if a.Type != message.AttachmentImage {
				continue
			}
			images = append(images, map[string]string{
				"data": base64.StdEncoding.EncodeToString(a.Data),
				"mime": a.MimeType,
			})
		}
		frame["images"] = images
	}
	return conn.writeJSON(frame)
}
