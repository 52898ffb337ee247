package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Routes builds the router serving the board API.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Board routes
	r.Get("/boards", h.ListBoards)
	r.Post("/boards", h.CreateBoard)
	r.Delete("/boards/{id}", h.DeleteBoard)

	// List routes
	r.Get("/boards/{id}/lists", h.ListLists)
	r.Post("/boards/{id}/lists", h.CreateList)
	r.Put("/lists/{id}", h.UpdateList)
	r.Delete("/lists/{id}", h.DeleteList)

	// Card routes
	r.Get("/lists/{id}/cards", h.ListCards)
	r.Post("/lists/{id}/cards", h.CreateCard)
	r.Put("/cards/{id}", h.UpdateCard)
	r.Delete("/cards/{id}", h.DeleteCard)
	r.Put("/cards/{id}/move", h.MoveCard)

	return r
}

// RequestLogger emits one log entry per request.
func RequestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = uuid.NewString()
			}

			defer func() {
				entry := logger.WithFields(logrus.Fields{
					"method":   r.Method,
					"path":     r.URL.Path,
					"status":   ww.Status(),
					"bytes":    ww.BytesWritten(),
					"duration": time.Since(start),
					"request":  reqID,
				})
				if ww.Status() >= http.StatusInternalServerError {
					entry.Warn("request failed")
					return
				}
				entry.Debug("request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
