package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanboard/internal/models"
)

// Cache wraps a Store with a Redis read-through cache for list and card
// listings. Every write evicts the listings it touches.
type Cache struct {
	Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Store wrapper using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("store.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Store: base, redis: client, ttl: ttl}
}

func (c *Cache) ListListsByBoard(ctx context.Context, boardID int64) ([]models.List, error) {
	var lists []models.List
	if c.load(ctx, listsCacheKey(boardID), &lists) {
		return lists, nil
	}

	lists, err := c.Store.ListListsByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, listsCacheKey(boardID), lists)
	return lists, nil
}

func (c *Cache) ListCardsByList(ctx context.Context, listID int64) ([]models.Card, error) {
	var cards []models.Card
	if c.load(ctx, cardsCacheKey(listID), &cards) {
		return cards, nil
	}

	cards, err := c.Store.ListCardsByList(ctx, listID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, cardsCacheKey(listID), cards)
	return cards, nil
}

func (c *Cache) DeleteBoard(ctx context.Context, id int64) error {
	lists, err := c.Store.ListListsByBoard(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := c.Store.DeleteBoard(ctx, id); err != nil {
		return err
	}

	keys := []string{listsCacheKey(id)}
	for _, l := range lists {
		keys = append(keys, cardsCacheKey(l.ID))
	}
	c.evict(ctx, keys...)
	return nil
}

func (c *Cache) CreateList(ctx context.Context, list *models.List) error {
	if err := c.Store.CreateList(ctx, list); err != nil {
		return err
	}
	c.evict(ctx, listsCacheKey(list.BoardID))
	return nil
}

func (c *Cache) UpdateList(ctx context.Context, list *models.List) error {
	if err := c.Store.UpdateList(ctx, list); err != nil {
		return err
	}
	c.evict(ctx, listsCacheKey(list.BoardID))
	return nil
}

func (c *Cache) DeleteList(ctx context.Context, id int64) error {
	list, err := c.Store.GetList(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Store.DeleteList(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, listsCacheKey(list.BoardID), cardsCacheKey(id))
	return nil
}

func (c *Cache) CreateCard(ctx context.Context, card *models.Card) error {
	if err := c.Store.CreateCard(ctx, card); err != nil {
		return err
	}
	c.evict(ctx, cardsCacheKey(card.ListID))
	return nil
}

func (c *Cache) UpdateCard(ctx context.Context, card *models.Card) error {
	if err := c.Store.UpdateCard(ctx, card); err != nil {
		return err
	}
	c.evict(ctx, cardsCacheKey(card.ListID))
	return nil
}

func (c *Cache) DeleteCard(ctx context.Context, id int64) error {
	card, err := c.Store.GetCard(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Store.DeleteCard(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, cardsCacheKey(card.ListID))
	return nil
}

func (c *Cache) MoveCard(ctx context.Context, id, listID int64, position *int) (*models.Card, error) {
	before, err := c.Store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	moved, err := c.Store.MoveCard(ctx, id, listID, position)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, cardsCacheKey(before.ListID), cardsCacheKey(listID))
	return moved, nil
}

func (c *Cache) load(ctx context.Context, key string, out any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			log.WithError(err).WithField("key", key).Warn("cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		log.WithError(err).WithField("keys", keys).Warn("cache eviction failed")
	}
}

func listsCacheKey(boardID int64) string {
	return "lists:" + strconv.FormatInt(boardID, 10)
}

func cardsCacheKey(listID int64) string {
	return "cards:" + strconv.FormatInt(listID, 10)
}
