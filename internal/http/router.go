package httpserver

import (
	"log"
	"net/http"

	"github.com/anlaklab/simple-luna-sub003/internal/http/handlers"
	"github.com/anlaklab/simple-luna-sub003/internal/http/middleware"
)

type RouterDependencies struct {
	API            *handlers.API
	Logger         *log.Logger
	AuthToken      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", deps.API.Health)
	mux.HandleFunc("/v1/extract", deps.API.Extract)
	mux.HandleFunc("/v1/reconstruct", deps.API.Reconstruct)
	mux.HandleFunc("/v1/thumbnails", deps.API.Thumbnails)
	mux.HandleFunc("/v1/assets", deps.API.Assets)
	mux.HandleFunc("/v1/validate", deps.API.Validate)
	mux.HandleFunc("/v1/chat", deps.API.Chat)
	mux.HandleFunc("/v1/queue/stats", deps.API.QueueStats)
	mux.HandleFunc("/v1/jobs", deps.API.Jobs)
	mux.HandleFunc("/v1/jobs/", deps.API.Jobs)

	handler := http.Handler(mux)
	handler = middleware.Auth(deps.AuthToken)(handler)
	handler = middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
	})(handler)
	handler = middleware.Trace(deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
