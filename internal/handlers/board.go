package handlers

import (
	"net/http"
	"strings"

	"kanboard/internal/models"
)

// ListBoards returns every board.
func (h *Handlers) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.store.ListBoards(r.Context())
	if err != nil {
		h.respondServerError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, boards)
}

// CreateBoard creates a new board.
func (h *Handlers) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var in models.BoardInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	board := &models.Board{Name: strings.TrimSpace(in.Name)}
	if err := h.store.CreateBoard(r.Context(), board); err != nil {
		h.respondServerError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, board)
}

// DeleteBoard deletes a board with all of its lists and cards.
func (h *Handlers) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}

	if err := h.store.DeleteBoard(r.Context(), id); err != nil {
		h.respondStoreError(w, err, "board")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
