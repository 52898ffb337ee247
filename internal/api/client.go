// Package api is the HTTP client for the board backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kanboard/internal/models"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Client wraps http.Client with helpers for the board API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a Client for baseURL with the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// ListBoards returns every board.
func (c *Client) ListBoards(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	err := c.do(ctx, http.MethodGet, "/boards", nil, &boards)
	return boards, err
}

// CreateBoard creates a board.
func (c *Client) CreateBoard(ctx context.Context, name string) (*models.Board, error) {
	var board models.Board
	if err := c.do(ctx, http.MethodPost, "/boards", models.BoardInput{Name: name}, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// DeleteBoard deletes a board with all its lists and cards.
func (c *Client) DeleteBoard(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/boards/%d", id), nil, nil)
}

// ListLists returns the lists of a board without their cards.
func (c *Client) ListLists(ctx context.Context, boardID int64) ([]models.List, error) {
	var lists []models.List
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/boards/%d/lists", boardID), nil, &lists)
	return lists, err
}

// CreateList creates a list on a board at the given position.
func (c *Client) CreateList(ctx context.Context, boardID int64, title string, position int) (*models.List, error) {
	var list models.List
	in := models.ListInput{Title: title, Position: position}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/boards/%d/lists", boardID), in, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateList renames and/or repositions a list.
func (c *Client) UpdateList(ctx context.Context, id int64, update models.ListUpdate) (*models.List, error) {
	var list models.List
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/lists/%d", id), update, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteList deletes a list and its cards.
func (c *Client) DeleteList(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/lists/%d", id), nil, nil)
}

// ListCards returns the cards of a list.
func (c *Client) ListCards(ctx context.Context, listID int64) ([]models.Card, error) {
	var cards []models.Card
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lists/%d/cards", listID), nil, &cards)
	return cards, err
}

// CreateCard creates a card in a list at the given position.
func (c *Client) CreateCard(ctx context.Context, listID int64, title string, position int) (*models.Card, error) {
	var card models.Card
	in := models.CardInput{Title: title, Position: position}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/lists/%d/cards", listID), in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard edits the title, description, due date or labels of a card.
func (c *Client) UpdateCard(ctx context.Context, id int64, update models.CardUpdate) (*models.Card, error) {
	var card models.Card
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/cards/%d", id), update, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard deletes a card.
func (c *Client) DeleteCard(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cards/%d", id), nil, nil)
}

// MoveCard moves a card to newListID at position.
func (c *Client) MoveCard(ctx context.Context, id, newListID int64, position int) (*models.Card, error) {
	var card models.Card
	in := models.CardMove{NewListID: newListID, Position: &position}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/cards/%d/move", id), in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
