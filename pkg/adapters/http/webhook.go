package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/cooknet/pkg/dispatch"
)

// Webhook handles POST /webhook/{token}. It only enqueues the update, so
// Telegram gets its answer before any processing happens.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.WebhookToken)) != 1 {
		http.NotFound(w, r)
		return
	}

	ev, ok, err := s.Decode(r.Body)
	if err != nil {
		s.Logger.Warn("Webhook: invalid update", "err", err)
		http.Error(w, "Invalid update", http.StatusBadRequest)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	// The request context only bounds the wait for queue space.
	if err := s.Events.Submit(r.Context(), ev); err != nil {
		if errors.Is(err, dispatch.ErrQueueFull) || errors.Is(err, dispatch.ErrQueueClosed) {
			s.Logger.Warn("Webhook: update rejected", "identity", ev.Identity, "err", err)
			http.Error(w, "Busy", http.StatusServiceUnavailable)
			return
		}
		s.Logger.Error("Webhook: submit failed", "identity", ev.Identity, "err", err)
		http.Error(w, "Submit failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
