package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// HTTP Handlers

// serviceResponse is the body returned to clients asking for JSON
type serviceResponse struct {
	Mensaje string `json:"mensaje"`
}

// invokeService dispatches /api/<path> to the registered service
func (s *Server) invokeService(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api")

	service, exists := s.registry.Get(key)
	if !exists {
		log.Debug().Str("path", key).Msg("Unknown service")
		s.notFound(w, r)
		return
	}

	result, ok := s.call(service, service.Argument(r.URL.Query()))
	if !ok {
		http.Error(w, "ERROR!", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(serviceResponse{Mensaje: result})
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(result))
	}
}

// call runs a service handler, turning a panic into a failed call
func (s *Server) call(service Service, value string) (result string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("service", service.Path).
				Interface("panic", rec).
				Msg("Service handler panicked")
			result, ok = "", false
		}
	}()

	result = service.Invoke(value)
	s.metrics.ObserveInvocation(service.Path)
	return result, true
}

// streamService answers every text frame on a WebSocket with the service output
func (s *Server) streamService(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["service"]

	service, exists := s.registry.Get(path)
	if !exists {
		s.notFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("service", service.Path).Msg("WebSocket closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		result, ok := s.call(service, strings.TrimSpace(string(data)))
		if !ok {
			result = "ERROR!"
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(result)); err != nil {
			return
		}
	}
}

// healthCheck returns server health status
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "healthy",
		"services_loaded": s.registry.Count(),
		"timestamp":       time.Now(),
	})
}

// handleOptions handles CORS preflight requests
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	// CORS headers are already set by middleware
	w.WriteHeader(http.StatusOK)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
