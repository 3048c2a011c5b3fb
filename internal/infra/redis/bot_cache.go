package redis

import (
	"context"
	"encoding/json"
	"time"

	"chatbot-studio/internal/domain/model"
)

// BotCache keeps recently read chatbot aggregates hot so repeated selects
// skip Postgres. Entries expire on their own; writes refresh them.
type BotCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewBotCache(client RedisClient, ttl time.Duration) *BotCache {
	return &BotCache{client: client, ttl: ttl}
}

func (c *BotCache) StoreBot(ctx context.Context, bot *model.SavedChatbot) error {
	data, err := json.Marshal(bot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "chatbot:"+bot.ID, data, c.ttl)
}

func (c *BotCache) FetchBot(ctx context.Context, id string) (*model.SavedChatbot, error) {
	data, err := c.client.Get(ctx, "chatbot:"+id)
	if err != nil {
		return nil, err
	}
	var bot model.SavedChatbot
	if err := json.Unmarshal([]byte(data), &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

func (c *BotCache) DropBot(ctx context.Context, id string) error {
	return c.client.Del(ctx, "chatbot:"+id)
}
