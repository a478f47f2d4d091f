// Package wsapi is the HTTP/WebSocket collaborator specifies: register,
// unregister, publish, health, static, and the WS upgrade. It never touches
// gridworld state directly; everything crosses into package simulation
// through Engine.Requests().
package wsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/prestonhale/battista/registry"
	"github.com/prestonhale/battista/simulation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// registerTimeout bounds the reply wait the source left unbounded ('s
// "open question — registration timeout"): a production implementation
// should apply one and return 503, which this does.
const registerTimeout = 5 * time.Second

// Server is the HTTP/WebSocket surface. It wires routes onto a
// gorilla/mux router, CORS'd per policy via gorilla/handlers, in the
// shape outrigdev-outrig's RunWebServer wires its own mux router.
type Server struct {
	addr     string
	router   *mux.Router
	engine   *simulation.Engine
	registry *registry.Registry
	staticFS http.FileSystem
	log      *logrus.Entry
}

// NewServer builds a Server. staticFS may be nil to disable /static.
func NewServer(addr string, engine *simulation.Engine, reg *registry.Registry, staticFS http.FileSystem, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		addr:     addr,
		router:   mux.NewRouter(),
		engine:   engine,
		registry: reg,
		staticFS: staticFS,
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	s.router.HandleFunc("/register/{id}", s.handleUnregister).Methods(http.MethodDelete)
	s.router.HandleFunc("/ws/{id}", s.handleWebSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/publish", s.handlePublish).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.staticFS != nil {
		s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(s.staticFS)))
	}
}

// Handler returns the CORS-wrapped router, ready to hand to an http.Server.
func (s *Server) Handler() http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet, http.MethodOptions, http.MethodDelete}),
	)(s.router)
}

// ListenAndServe blocks serving on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type registerRequest struct {
	UserID int `json:"user_id"`
}

type registerResponseBody struct {
	URL           string          `json:"url"`
	PlayerPos     json.RawMessage `json:"player_position"`
	ExploredCells json.RawMessage `json:"explored_cells"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
}

// handleRegister is POST /register: generate a connection-id, insert
// a Client with no outbound sender yet, send RegisterPlayer, await the reply.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	userID := strconv.Itoa(body.UserID)
	connectionID := uuid.New().String()
	s.registry.Insert(connectionID, userID)

	req, reply := simulation.NewRegisterPlayer(userID)
	select {
	case s.engine.Requests() <- req:
	case <-r.Context().Done():
		return
	}

	select {
	case resp := <-reply:
		coords, err := json.Marshal(resp.Coords)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		explored := resp.ExploredCells
		if explored == nil {
			explored = []byte("[]")
		}
		body := registerResponseBody{
			URL:           fmt.Sprintf("ws://%s/ws/%s", r.Host, connectionID),
			PlayerPos:     coords,
			ExploredCells: explored,
			Width:         resp.Width,
			Height:        resp.Height,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	case <-time.After(registerTimeout):
		s.registry.Remove(connectionID)
		http.Error(w, "registration timed out", http.StatusServiceUnavailable)
	}
}

// handleUnregister is DELETE /register/{id}.
func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.registry.Remove(id)
	w.WriteHeader(http.StatusOK)
}

// handleWebSocket is GET /ws/{id}: upgrade, bind the outbound queue,
// and run the per-connection pumps until the socket drops.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	client, ok := s.registry.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("wsapi: upgrade failed")
		return
	}

	wsc := newWSConn(conn, client, s.engine.Requests(), s.log)
	if !s.registry.Bind(id, wsc.Outbound()) {
		_ = conn.Close()
		return
	}
	defer s.registry.Remove(id)
	defer closeConn(conn)

	if err := wsc.Serve(r.Context()); err != nil {
		s.log.WithError(err).WithField("connection_id", id).Debug("wsapi: connection closed")
	}
}

func closeConn(conn *websocket.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
}

type publishRequest struct {
	Topic   string `json:"topic"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message"`
}

// handlePublish is POST /publish.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var body publishRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	s.registry.Publish(body.Topic, body.UserID, []byte(body.Message))
	w.WriteHeader(http.StatusOK)
}

// handleHealth is GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
