package server

import (
	"log"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/aryannaik/transcript-search/internal/session"
)

// DefaultRateLimit is the API request rate allowed per second.
const DefaultRateLimit = 20

func New(port string, sess *session.Session, rps float64) *http.Server {
	return &http.Server{
		Addr:    ":" + port,
		Handler: NewHandler(sess, rps),
	}
}

// NewHandler routes the HTML page and the JSON API. API routes share one
// token bucket of rps requests per second.
func NewHandler(sess *session.Session, rps float64) http.Handler {
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	handlers := NewHandlers(sess)
	limiter := rate.NewLimiter(rate.Limit(rps), int(2*rps)+1)

	api := http.NewServeMux()
	api.HandleFunc("/api/search", handlers.HandleSearch)
	api.HandleFunc("/api/episodes", handlers.HandleEpisodes)
	api.HandleFunc("/api/status", handlers.HandleStatus)

	mux := http.NewServeMux()
	mux.Handle("/api/", limit(limiter, api))
	mux.HandleFunc("/", handlers.HandlePage)

	return mux
}

func limit(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe logs the address and serves until the server is shut down.
func ListenAndServe(srv *http.Server) error {
	log.Printf("Server listening on http://localhost%s", srv.Addr)
	return srv.ListenAndServe()
}
