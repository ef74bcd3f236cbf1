package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
	"github.com/wricardo/battleship-server/game/service"
	"github.com/wricardo/battleship-server/transport/websocket"
)

// Server represents the HTTP API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggerMiddleware)

	// Rooms
	s.router.HandleFunc("/createGame", s.handleCreateGame).Methods("POST")
	s.router.HandleFunc("/join/{roomId}/{playerId}", s.handleJoin).Methods("GET")
	s.router.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	s.router.HandleFunc("/rooms/{roomId}", s.handleGetRoom).Methods("GET")

	// Configuration
	s.router.HandleFunc("/rulesets", s.handleListRulesets).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// Handle mounts an extra handler, such as the MCP endpoint, on the router
func (s *Server) Handle(path string, handler http.Handler, methods ...string) {
	route := s.router.Handle(path, handler)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var ge *engine.GameError
	switch {
	case errors.As(err, &ge) && ge.Kind == engine.KindRoomNotFound:
		return http.StatusNotFound
	case errors.As(err, &ge):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRulesetNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Room Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	ruleset := r.URL.Query().Get("ruleset")

	info, err := s.service.CreateRoom(r.Context(), ruleset)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, info.ID)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["roomId"]
	playerID := engine.PlayerID(vars["playerId"])

	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket transport unavailable")
		return
	}
	// A join claims the seat, so only real handshakes may reach it
	if err := websocket.CheckHandshake(r); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Join before upgrading so rejections are plain HTTP errors
	out := room.NewOutbox()
	if err := s.service.JoinRoom(r.Context(), roomID, playerID, out); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	s.hub.ServeWS(w, r, s.service, roomID, playerID, out)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	info, err := s.service.GetRoom(r.Context(), roomID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Configuration Handlers

func (s *Server) handleListRulesets(w http.ResponseWriter, r *http.Request) {
	rulesets, err := s.service.ListRulesets(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if rulesets == nil {
		rulesets = []*service.RulesetInfo{}
	}

	respondJSON(w, http.StatusOK, rulesets)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	connections := 0
	if s.hub != nil {
		connections = s.hub.TotalClients()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"rooms":       len(rooms),
		"connections": connections,
	})
}

// loggerMiddleware logs one line per request
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.statusCode,
			"duration", time.Since(start))
	})
}

// responseWriter records the status code and keeps the connection hijackable
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
