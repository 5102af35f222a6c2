package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"library/utils"

	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler relays book and author events to websocket clients.
// Clients only listen; anything they send is discarded.
type Handler struct {
	subscriptions *SubscriptionService
	upgrader      gorillaws.Upgrader
}

func NewHandler(subscriptions *SubscriptionService, allowedOrigins []string) *Handler {
	return &Handler{
		subscriptions: subscriptions,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker пропускает все источники, если список пуст или содержит "*"
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		utils.Logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var writeMu sync.Mutex
	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(messageType, data)
	}

	err = h.subscriptions.Subscribe(ctx, func(_ context.Context, payload []byte) error {
		return write(gorillaws.TextMessage, payload)
	},
		h.subscriptions.BuildChannelName(EntityTypeBook, nil),
		h.subscriptions.BuildChannelName(EntityTypeAuthor, nil),
	)
	if err != nil {
		_ = write(gorillaws.CloseMessage, gorillaws.FormatCloseMessage(gorillaws.CloseInternalServerErr, err.Error()))
		return
	}

	utils.Logger.Debug("Events client connected", zap.String("remote", r.RemoteAddr))

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := write(gorillaws.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			utils.Logger.Debug("Events client disconnected", zap.String("remote", r.RemoteAddr))
			return
		}
	}
}
