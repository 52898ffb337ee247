package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"kanboard/internal/models"
	"kanboard/internal/store"
)

func setupTestHandlers(t *testing.T) (*Handlers, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := New(s, logger)
	return h, s
}

// withID sets the chi "id" URL param on req.
func withID(req *http.Request, id int64) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", strconv.FormatInt(id, 10))
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func seed(t *testing.T, s *store.SQLiteStore) (*models.Board, *models.List, *models.List) {
	t.Helper()
	ctx := context.Background()

	board := &models.Board{Name: "Board"}
	if err := s.CreateBoard(ctx, board); err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	todo := &models.List{BoardID: board.ID, Title: "Todo", Position: 0}
	done := &models.List{BoardID: board.ID, Title: "Done", Position: 1}
	for _, l := range []*models.List{todo, done} {
		if err := s.CreateList(ctx, l); err != nil {
			t.Fatalf("CreateList failed: %v", err)
		}
	}
	return board, todo, done
}

func TestCreateBoardHandler_Success(t *testing.T) {
	h, s := setupTestHandlers(t)

	req := jsonRequest(t, "POST", "/boards", map[string]string{"name": "  Roadmap "})
	rec := httptest.NewRecorder()

	h.CreateBoard(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var board models.Board
	if err := json.NewDecoder(rec.Body).Decode(&board); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if board.ID == 0 || board.Name != "Roadmap" {
		t.Errorf("unexpected board: %+v", board)
	}

	boards, _ := s.ListBoards(context.Background())
	if len(boards) != 1 {
		t.Errorf("expected 1 board, got %d", len(boards))
	}
}

func TestCreateBoardHandler_ValidationError(t *testing.T) {
	h, _ := setupTestHandlers(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "invalid json", body: "{", want: "invalid json"},
		{name: "missing name", body: `{"name":""}`, want: "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/boards", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.CreateBoard(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("expected body %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDeleteBoardHandler(t *testing.T) {
	h, s := setupTestHandlers(t)
	board, _, _ := seed(t, s)

	rec := httptest.NewRecorder()
	h.DeleteBoard(rec, withID(httptest.NewRequest("DELETE", "/boards/1", nil), board.ID))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	rec = httptest.NewRecorder()
	h.DeleteBoard(rec, withID(httptest.NewRequest("DELETE", "/boards/1", nil), board.ID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestListListsHandler(t *testing.T) {
	h, s := setupTestHandlers(t)
	board, _, _ := seed(t, s)

	rec := httptest.NewRecorder()
	h.ListLists(rec, withID(httptest.NewRequest("GET", "/boards/1/lists", nil), board.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var lists []models.List
	if err := json.NewDecoder(rec.Body).Decode(&lists); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(lists) != 2 || lists[0].Title != "Todo" || lists[1].Title != "Done" {
		t.Errorf("unexpected lists: %+v", lists)
	}
}

func TestListListsHandler_UnknownBoard(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := httptest.NewRecorder()
	h.ListLists(rec, withID(httptest.NewRequest("GET", "/boards/9/lists", nil), 9))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCreateListHandler_InsertsAtPosition(t *testing.T) {
	h, s := setupTestHandlers(t)
	board, _, _ := seed(t, s)

	req := withID(jsonRequest(t, "POST", "/boards/1/lists", models.ListInput{Title: "Doing", Position: 1}), board.ID)
	rec := httptest.NewRecorder()

	h.CreateList(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	lists, _ := s.ListListsByBoard(context.Background(), board.ID)
	want := []string{"Todo", "Doing", "Done"}
	for i, title := range want {
		if lists[i].Title != title || lists[i].Position != i {
			t.Errorf("position %d: expected %q, got %q at %d", i, title, lists[i].Title, lists[i].Position)
		}
	}
}

func TestUpdateListHandler(t *testing.T) {
	h, s := setupTestHandlers(t)
	_, todo, _ := seed(t, s)

	title := "Backlog"
	position := 1
	req := withID(jsonRequest(t, "PUT", "/lists/1", models.ListUpdate{Title: &title, Position: &position}), todo.ID)
	rec := httptest.NewRecorder()

	h.UpdateList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	got, _ := s.GetList(context.Background(), todo.ID)
	if got.Title != "Backlog" || got.Position != 1 {
		t.Errorf("unexpected list after update: %+v", got)
	}
}

func TestUpdateListHandler_Errors(t *testing.T) {
	h, s := setupTestHandlers(t)
	_, todo, _ := seed(t, s)

	tests := []struct {
		name string
		id   int64
		body string
		code int
	}{
		{name: "blank title", id: todo.ID, body: `{"title":"  "}`, code: http.StatusBadRequest},
		{name: "negative position", id: todo.ID, body: `{"position":-1}`, code: http.StatusBadRequest},
		{name: "unknown list", id: 999, body: `{"title":"x"}`, code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withID(httptest.NewRequest("PUT", "/lists/x", strings.NewReader(tt.body)), tt.id)
			rec := httptest.NewRecorder()

			h.UpdateList(rec, req)

			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestDeleteListHandler(t *testing.T) {
	h, s := setupTestHandlers(t)
	board, todo, _ := seed(t, s)

	rec := httptest.NewRecorder()
	h.DeleteList(rec, withID(httptest.NewRequest("DELETE", "/lists/1", nil), todo.ID))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	lists, _ := s.ListListsByBoard(context.Background(), board.ID)
	if len(lists) != 1 || lists[0].Title != "Done" || lists[0].Position != 0 {
		t.Errorf("unexpected lists after delete: %+v", lists)
	}
}

func TestCreateCardHandler(t *testing.T) {
	h, s := setupTestHandlers(t)
	_, todo, _ := seed(t, s)

	req := withID(jsonRequest(t, "POST", "/lists/1/cards", models.CardInput{Title: "Write docs"}), todo.ID)
	rec := httptest.NewRecorder()

	h.CreateCard(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var card models.Card
	if err := json.NewDecoder(rec.Body).Decode(&card); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if card.ListID != todo.ID || card.Title != "Write docs" {
		t.Errorf("unexpected card: %+v", card)
	}
	if card.Labels == nil {
		t.Error("expected labels to be an empty array")
	}
}

func TestCreateCardHandler_UnknownList(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := withID(jsonRequest(t, "POST", "/lists/9/cards", models.CardInput{Title: "Orphan"}), 9)
	rec := httptest.NewRecorder()

	h.CreateCard(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestUpdateCardHandler_Labels(t *testing.T) {
	h, s := setupTestHandlers(t)
	ctx := context.Background()
	_, todo, _ := seed(t, s)

	card := &models.Card{ListID: todo.ID, Title: "Card"}
	s.CreateCard(ctx, card)

	req := withID(httptest.NewRequest("PUT", "/cards/1", strings.NewReader(`{"description":"details","labels":["ops","bug"]}`)), card.ID)
	rec := httptest.NewRecorder()

	h.UpdateCard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	got, _ := s.GetCard(ctx, card.ID)
	if got.Description != "details" {
		t.Errorf("expected description %q, got %q", "details", got.Description)
	}
	if len(got.Labels) != 2 || got.Labels[0] != "bug" || got.Labels[1] != "ops" {
		t.Errorf("expected labels [bug ops], got %v", got.Labels)
	}

	req = withID(httptest.NewRequest("PUT", "/cards/1", strings.NewReader(`{"labels":["a","a"]}`)), card.ID)
	rec = httptest.NewRecorder()

	h.UpdateCard(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for duplicate labels, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestUpdateCardHandler_WhitespaceLabels(t *testing.T) {
	h, s := setupTestHandlers(t)
	ctx := context.Background()
	_, todo, _ := seed(t, s)

	card := &models.Card{ListID: todo.ID, Title: "Card"}
	s.CreateCard(ctx, card)

	req := withID(httptest.NewRequest("PUT", "/cards/1", strings.NewReader(`{"labels":["urgent","urgent "]}`)), card.ID)
	rec := httptest.NewRecorder()

	h.UpdateCard(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d for whitespace duplicates, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}

	req = withID(httptest.NewRequest("PUT", "/cards/1", strings.NewReader(`{"labels":[" x"]}`)), card.ID)
	rec = httptest.NewRecorder()

	h.UpdateCard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var returned models.Card
	if err := json.NewDecoder(rec.Body).Decode(&returned); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	got, _ := s.GetCard(ctx, card.ID)
	if len(returned.Labels) != 1 || returned.Labels[0] != "x" {
		t.Errorf("expected returned labels [x], got %q", returned.Labels)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "x" {
		t.Errorf("expected stored labels [x], got %q", got.Labels)
	}
}

func TestDeleteCardHandler(t *testing.T) {
	h, s := setupTestHandlers(t)
	ctx := context.Background()
	_, todo, _ := seed(t, s)

	card := &models.Card{ListID: todo.ID, Title: "Card"}
	s.CreateCard(ctx, card)

	rec := httptest.NewRecorder()
	h.DeleteCard(rec, withID(httptest.NewRequest("DELETE", "/cards/1", nil), card.ID))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	rec = httptest.NewRecorder()
	h.DeleteCard(rec, withID(httptest.NewRequest("DELETE", "/cards/1", nil), card.ID))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestMoveCardHandler_AcrossLists(t *testing.T) {
	h, s := setupTestHandlers(t)
	ctx := context.Background()
	_, todo, done := seed(t, s)

	a := &models.Card{ListID: todo.ID, Title: "A", Position: 0}
	b := &models.Card{ListID: todo.ID, Title: "B", Position: 1}
	s.CreateCard(ctx, a)
	s.CreateCard(ctx, b)

	position := 0
	req := withID(jsonRequest(t, "PUT", "/cards/1/move", models.CardMove{NewListID: done.ID, Position: &position}), a.ID)
	rec := httptest.NewRecorder()

	h.MoveCard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var moved models.Card
	if err := json.NewDecoder(rec.Body).Decode(&moved); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if moved.ListID != done.ID || moved.Position != 0 {
		t.Errorf("unexpected moved card: %+v", moved)
	}

	remaining, _ := s.ListCardsByList(ctx, todo.ID)
	if len(remaining) != 1 || remaining[0].ID != b.ID || remaining[0].Position != 0 {
		t.Errorf("expected B renumbered to 0, got %+v", remaining)
	}
}

func TestMoveCardHandler_CrossBoard(t *testing.T) {
	h, s := setupTestHandlers(t)
	ctx := context.Background()
	_, todo, _ := seed(t, s)

	other := &models.Board{Name: "Other"}
	s.CreateBoard(ctx, other)
	foreign := &models.List{BoardID: other.ID, Title: "Foreign"}
	s.CreateList(ctx, foreign)

	card := &models.Card{ListID: todo.ID, Title: "A"}
	s.CreateCard(ctx, card)

	req := withID(jsonRequest(t, "PUT", "/cards/1/move", models.CardMove{NewListID: foreign.ID}), card.ID)
	rec := httptest.NewRecorder()

	h.MoveCard(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestRoutes_ServeEndpoints(t *testing.T) {
	h, s := setupTestHandlers(t)
	board, _, _ := seed(t, s)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/boards/" + strconv.FormatInt(board.ID, 10) + "/lists")
	if err != nil {
		t.Fatalf("GET lists failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}

	resp, err = http.Get(srv.URL + "/boards/abc/lists")
	if err != nil {
		t.Fatalf("GET lists failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
