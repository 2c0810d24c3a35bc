package session

import (
	"errors"
	"io"
	"net/http"

	"github.com/klokku/klokku-scheduler/internal/rest"
	log "github.com/sirupsen/logrus"
)

const maxDetailsSize = 64 << 10

type Handler struct {
	session *Session
}

func NewHandler(session *Session) *Handler {
	return &Handler{session: session}
}

// Login stores the posted user details blob, e.g. {"token": "..."}.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxDetailsSize))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unable to read session details", err.Error())
		return
	}

	if err := h.session.Login(r.Context(), blob); err != nil {
		if errors.Is(err, ErrInvalidDetails) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid session details", err.Error())
			return
		}
		log.Errorf("failed to store session: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Unable to store session", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Unable to clear session", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
