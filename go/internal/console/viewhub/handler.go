package viewhub

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// HandleConsole handles GET /ws/console
func (h *Hub) HandleConsole(w http.ResponseWriter, r *http.Request) {
	if err := h.Upgrade(w, r); err != nil {
		// The upgrader has already replied to the client
		log.Error().Err(err).Msg("failed to upgrade render adapter connection")
	}
}

// HandleView handles GET /api/console/view
func (h *Hub) HandleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest := h.Latest()
	if latest == nil {
		http.Error(w, "No view published yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(latest); err != nil {
		log.Error().Err(err).Msg("failed to write view response")
	}
}

// HandleStats handles GET /ws/stats
func (h *Hub) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to encode stats response")
	}
}

// RegisterRoutes registers the hub routes with an HTTP mux
func (h *Hub) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/console", h.HandleConsole)
	mux.HandleFunc("/ws/stats", h.HandleStats)
	mux.HandleFunc("/api/console/view", h.HandleView)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

// Handler returns the hub routes wrapped with CORS and served over h2c
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}
