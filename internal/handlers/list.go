package handlers

import (
	"net/http"
	"strings"

	"kanboard/internal/models"
)

// ListLists returns the lists of a board ordered by position.
func (h *Handlers) ListLists(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}

	lists, err := h.store.ListListsByBoard(r.Context(), boardID)
	if err != nil {
		h.respondStoreError(w, err, "board")
		return
	}

	h.respondJSON(w, http.StatusOK, lists)
}

// CreateList inserts a list into a board at the requested position.
func (h *Handlers) CreateList(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}

	var in models.ListInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list := &models.List{
		BoardID:  boardID,
		Title:    strings.TrimSpace(in.Title),
		Position: in.Position,
	}
	if err := h.store.CreateList(r.Context(), list); err != nil {
		h.respondStoreError(w, err, "board")
		return
	}

	h.respondJSON(w, http.StatusCreated, list)
}

// UpdateList renames and/or repositions a list. Positions are written as
// given; callers send one update per affected list.
func (h *Handlers) UpdateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	var in models.ListUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.store.GetList(ctx, id)
	if err != nil {
		h.respondStoreError(w, err, "list")
		return
	}

	in.Apply(list)
	list.Title = strings.TrimSpace(list.Title)

	if err := h.store.UpdateList(ctx, list); err != nil {
		h.respondStoreError(w, err, "list")
		return
	}

	h.respondJSON(w, http.StatusOK, list)
}

// DeleteList deletes a list and its cards.
func (h *Handlers) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	if err := h.store.DeleteList(r.Context(), id); err != nil {
		h.respondStoreError(w, err, "list")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
