package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Routes returns the instrumented handler tree
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	limit := s.rateLimitMiddleware()
	size := s.requestSizeLimitMiddleware()
	analysis := func(h http.HandlerFunc) http.HandlerFunc {
		return limit(s.authMiddleware(size(h)))
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.Handle("GET "+s.om.MetricsEndpoint(), s.om.MetricsHandler())

	mux.HandleFunc("POST /analysis/analyze", analysis(s.handleAnalyze))
	mux.HandleFunc("POST /analysis/optimize", analysis(s.handleOptimize))
	mux.HandleFunc("GET /analysis/skill-gaps", s.authMiddleware(s.handleSkillGaps))

	return s.om.HTTPMiddleware()(requestIDMiddleware(mux))
}

// requestIDMiddleware echoes a valid incoming X-Request-ID or assigns a new one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}
