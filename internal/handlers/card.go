package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"kanboard/internal/models"
)

// ListCards returns the cards of a list ordered by position.
func (h *Handlers) ListCards(w http.ResponseWriter, r *http.Request) {
	listID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	cards, err := h.store.ListCardsByList(r.Context(), listID)
	if err != nil {
		h.respondStoreError(w, err, "list")
		return
	}

	h.respondJSON(w, http.StatusOK, cards)
}

// CreateCard inserts a card into a list at the requested position.
func (h *Handlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	listID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	var in models.CardInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	card := &models.Card{
		ListID:   listID,
		Title:    strings.TrimSpace(in.Title),
		Position: in.Position,
		Labels:   []string{},
	}
	if err := h.store.CreateCard(r.Context(), card); err != nil {
		h.respondStoreError(w, err, "list")
		return
	}

	h.respondJSON(w, http.StatusCreated, card)
}

// UpdateCard edits the title, description, due date or labels of a card.
func (h *Handlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	var in models.CardUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.store.GetCard(ctx, id)
	if err != nil {
		h.respondStoreError(w, err, "card")
		return
	}

	in.Apply(card)
	card.Title = strings.TrimSpace(card.Title)

	if err := h.store.UpdateCard(ctx, card); err != nil {
		h.respondStoreError(w, err, "card")
		return
	}

	h.respondJSON(w, http.StatusOK, card)
}

// DeleteCard deletes a card.
func (h *Handlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	if err := h.store.DeleteCard(r.Context(), id); err != nil {
		h.respondStoreError(w, err, "card")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveCard relocates a card within or across lists of the same board.
func (h *Handlers) MoveCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	var in models.CardMove
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	card, err := h.store.MoveCard(r.Context(), id, in.NewListID, in.Position)
	if err != nil {
		h.respondStoreError(w, err, "card or list")
		return
	}

	h.log.WithFields(logrus.Fields{
		"card":     card.ID,
		"list":     card.ListID,
		"position": card.Position,
	}).Debug("card moved")
	h.respondJSON(w, http.StatusOK, card)
}
