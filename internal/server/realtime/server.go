package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/logging"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

type TokenVerifier interface {
	UserIDFromToken(token string) (string, error)
}

var tables = map[string]bool{
	models.TableTasks:     true,
	models.TableBookmarks: true,
}

// Server exposes the hub over websockets at /realtime/v1/{table}.
type Server struct {
	address      string
	hub          *Hub
	tokens       TokenVerifier
	logger       logging.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

func NewServer(address string, hub *Hub, tokens TokenVerifier, logger logging.Logger) *Server {
	return &Server{
		address: address,
		hub:     hub,
		tokens:  tokens,
		logger:  logger.With("module", "realtime_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: pingInterval,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	r.Methods(http.MethodGet).Path("/realtime/v1/{table}").HandlerFunc(s.subscribe)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info(r.Context(), "handled", "method", r.Method, "url", r.URL.Path, "duration", m.Duration, "status", m.Code)
	})
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.address, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping realtime server...")
		_ = srv.Close()
	}()

	s.logger.Info(ctx, "Starting realtime server", "address", s.address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	table := mux.Vars(r)["table"]
	if !tables[table] {
		http.Error(w, common.ErrUnknownTable.Error(), http.StatusNotFound)
		return
	}

	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := s.tokens.UserIDFromToken(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(ctx, "failed to upgrade", "error", err)
		return
	}
	defer conn.Close()

	id, changes, cancel := s.hub.Subscribe(userID, table)
	defer cancel()

	log := s.logger.With("subscription", id, "table", table)
	log.Debug(ctx, "subscribed", "user_id", userID)

	if err := s.write(conn, models.RawChange{Type: models.FrameSubscribed, Table: table}); err != nil {
		log.Warn(ctx, "failed to confirm subscription", "error", err)
		return
	}

	// The reader only drains control frames; it ends when the client goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			log.Debug(ctx, "client closed")
			return
		case change, ok := <-changes:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"),
					time.Now().Add(writeWait))
				return
			}
			change.UserID = ""
			if err := s.write(conn, change); err != nil {
				log.Warn(ctx, "failed to write change", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn(ctx, "ping failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, change models.RawChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
