package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"aerofly-bridge/internal/logbuf"
	"aerofly-bridge/internal/telemetry"
)

var shutdownAck = []byte(`{"type":"shutdown_ack"}`)

// Server owns the streaming listener: a websocket endpoint at / plus
// small JSON status/log endpoints for debugging.
type Server struct {
	Hub *Hub

	// OnRadio receives validated radio updates from clients.
	OnRadio func(telemetry.RadioState)
	// OnShutdown is invoked after a shutdown request is acknowledged.
	// It must be idempotent.
	OnShutdown func()

	// Status, when set, provides the /api/status payload.
	Status func(nowUTC time.Time) any
	// Logs, when set, serves the recent log ring at /api/logs.
	Logs *logbuf.Buffer

	upgrader websocket.Upgrader
}

func NewServer(hub *Hub) *Server {
	return &Server{
		Hub: hub,
		upgrader: websocket.Upgrader{
			// The moving map is opened straight from disk, so there is
			// no meaningful origin to check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload any
		if s.Status != nil {
			payload = s.Status(time.Now().UTC())
		}
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	if s.Logs != nil {
		mux.Handle("/api/logs", s.Logs.Handler())
	}

	mux.HandleFunc("/", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed remote=%s: %v", r.RemoteAddr, err)
		return
	}

	id := s.Hub.Register(conn)
	log.Printf("ws client connected id=%s remote=%s", id, r.RemoteAddr)
	defer func() {
		s.Hub.Unregister(id)
		log.Printf("ws client disconnected id=%s", id)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(id, msg)
	}
}

func (s *Server) handleMessage(id uuid.UUID, msg []byte) {
	res := telemetry.ParseControl(msg)
	switch res.Kind {
	case telemetry.KindRadioUpdate:
		if s.OnRadio != nil {
			s.OnRadio(res.Radio)
		}
	case telemetry.KindShutdown:
		log.Printf("shutdown requested id=%s", id)
		if err := s.Hub.Send(id, shutdownAck); err != nil {
			log.Printf("shutdown ack failed id=%s: %v", id, err)
		}
		if s.OnShutdown != nil {
			s.OnShutdown()
		}
	default:
		// Malformed or unknown control traffic is logged and ignored.
		if res.Err != nil {
			log.Printf("ws control ignored id=%s: %v", id, res.Err)
		} else if res.Raw != "" {
			log.Printf("ws non-json message ignored id=%s: %q", id, res.Raw)
		}
	}
}

// Serve runs the HTTP server on ln until ctx is canceled. The caller
// binds the listener so bind failures abort startup directly.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler: s.Handler(),
		// Read/write timeouts are deliberately absent: they would kill
		// long-lived websocket connections.
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.Hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
