package handler

import (
	"net/http"

	"github.com/freeeve/age-of-conquest/internal/auth"
	"github.com/freeeve/age-of-conquest/internal/middleware"
)

// NewRouter wires every endpoint and the global middleware.
func NewRouter(matches *MatchHandler, ws *WSHandler, jwtMgr *auth.JWTManager, corsOrigin string) http.Handler {
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Creating a match is what issues a token, so it is public.
	mux.HandleFunc("POST /api/v1/matches", matches.CreateMatch)

	// Protected match routes
	api := http.NewServeMux()
	api.HandleFunc("GET /matches/{id}", matches.GetState)
	api.HandleFunc("GET /matches/{id}/info", matches.GetInfo)
	api.HandleFunc("GET /matches/{id}/select", matches.SelectUnit)
	api.HandleFunc("GET /matches/{id}/units/{unitId}/destinations", matches.Destinations)
	api.HandleFunc("POST /matches/{id}/moves", matches.Move)
	api.HandleFunc("POST /matches/{id}/purchases", matches.Purchase)
	api.HandleFunc("POST /matches/{id}/upgrades", matches.Upgrade)
	api.HandleFunc("POST /matches/{id}/turn", matches.AdvanceTurn)
	api.HandleFunc("DELETE /matches/{id}", matches.EndMatch)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", ws.ServeWS)

	return middleware.Chain(mux, middleware.Logger, middleware.Recover, middleware.CORS(corsOrigin), middleware.JSON)
}
