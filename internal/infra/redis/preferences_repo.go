package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/repository"
)

const preferencesKey = "preferences"

var _ repository.PreferencesRepository = (*PreferencesRepo)(nil)

// PreferencesRepo stores the presentation settings as a single JSON blob.
// Preferences are cosmetic and cheap to rebuild, so Redis (no TTL) is the
// whole store, not a cache in front of one.
type PreferencesRepo struct {
	client RedisClient
}

func NewPreferencesRepo(client RedisClient) *PreferencesRepo {
	return &PreferencesRepo{client: client}
}

func (r *PreferencesRepo) Save(ctx context.Context, p *model.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, preferencesKey, data, 0)
}

func (r *PreferencesRepo) Load(ctx context.Context) (*model.Preferences, error) {
	data, err := r.client.Get(ctx, preferencesKey)
	if err != nil {
		if err == redis.Nil {
			return model.DefaultPreferences(), nil
		}
		return nil, err
	}
	var p model.Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
