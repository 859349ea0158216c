package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
	"github.com/rocketscienceinc/arena-backend/internal/usecase"
)

const requestTimeout = 5 * time.Second

type gameUseCase interface {
	JoinRoom(ctx context.Context, conn entity.ConnID, code string, identity json.RawMessage) (entity.Slot, error)
	SubmitTurn(ctx context.Context, conn entity.ConnID, pieces entity.PlayerPieces) error
	Forfeit(ctx context.Context, conn entity.ConnID, claimed entity.Slot) error
	Disconnect(ctx context.Context, conn entity.ConnID) error
}

type handlerFunc func(ctx context.Context, c *connection, msg *Message) error

type Server struct {
	logger   *slog.Logger
	hub      *Hub
	game     gameUseCase
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, hub *Hub, game gameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		game:   game,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[ActionJoinRoom] = server.handleJoinRoom
	server.handlers[ActionPlayerMove] = server.handlePlayerMove
	server.handlers[ActionForfeit] = server.handleForfeit

	return server
}

// Handler - returns the HTTP handler serving the /ws endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
		that.hub.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket and starts its pumps.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &connection{
		id:   entity.ConnID(uuid.NewString()),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	that.hub.register(c)

	log.Info("WebSocket connection established", "connID", c.id)

	go that.writePump(c)
	go that.readPump(ctx, c)
}

// readPump - processes messages from the client in arrival order.
func (that *Server) readPump(ctx context.Context, c *connection) {
	log := that.logger.With("method", "readPump", "connID", c.id)

	defer func() {
		that.hub.unregister(c)
		_ = c.conn.Close()

		disconnectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()

		if err := that.game.Disconnect(disconnectCtx, c.id); err != nil {
			log.Error("failed to handle disconnect", "error", err)
		}

		log.Info("WebSocket connection closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Debug("failed to unmarshal message", "error", err)
			that.hub.Notify(c.id, usecase.EventError, errInvalidPayload)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Debug("unknown action", "action", message.Action)
			that.hub.Notify(c.id, usecase.EventError, errUnknownAction)
			continue
		}

		requestCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		err = handler(requestCtx, c, &message)
		cancel()

		if err != nil {
			log.Debug("request failed", "action", message.Action, "error", err)
		}
	}
}

// writePump - writes queued events and keeps the connection alive with pings.
func (that *Server) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
