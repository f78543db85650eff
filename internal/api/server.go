// Package api is the HTTP transport: gorilla/mux routes spec §6's exact
// endpoint table to thin handlers that decode JSON, call the Lobby, the
// Session Registry or the Persistence Gateway, and encode the typed
// response. Actions go through the Session Registry; the read-only state
// and unit-actions endpoints load through the Gateway, and the latter
// computes reach and attack range with internal/board. No handler issues
// SQL itself.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stormhaven/arena/internal/catalog"
	"github.com/stormhaven/arena/internal/lobby"
	"github.com/stormhaven/arena/internal/persistence"
	"github.com/stormhaven/arena/internal/session"
)

// Server wires the engine's components into an HTTP handler tree.
type Server struct {
	router  *mux.Router
	lobby   *lobby.Lobby
	reg     *session.Registry
	gateway *persistence.Gateway
	catalog *catalog.Catalog
	log     zerolog.Logger
}

// NewServer builds a Server routing spec §6's `/arena/api` endpoint table.
func NewServer(lob *lobby.Lobby, reg *session.Registry, gw *persistence.Gateway, cat *catalog.Catalog, log zerolog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		lobby:   lob,
		reg:     reg,
		gateway: gw,
		catalog: cat,
		log:     log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/arena/api").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/players", s.handleListPlayers).Methods(http.MethodGet)
	api.HandleFunc("/games/create", s.handleCreateChallenge).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/accept", s.handleAccept).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/decline", s.handleDecline).Methods(http.MethodPost)
	api.HandleFunc("/games/pending", s.handleListPending).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/units/{stack_id}/actions", s.handleUnitActions).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/move", s.handleMove).Methods(http.MethodPost)
}

// ServeHTTP satisfies http.Handler so Server can be passed straight to
// http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// loggingMiddleware attaches a zerolog entry per request, including the
// match id path parameter when present.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := s.reg.TraceID()
		logger := s.log.With().Str("trace_id", traceID).Str("method", r.Method).Str("path", r.URL.Path).Logger()
		if id, ok := mux.Vars(r)["id"]; ok {
			logger = logger.With().Str("match_id", id).Logger()
		}
		logger.Info().Msg("request")
		next.ServeHTTP(w, r)
	})
}
