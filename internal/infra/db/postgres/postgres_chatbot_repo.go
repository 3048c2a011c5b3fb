package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chatbot-studio/internal/domain"
	"chatbot-studio/internal/domain/model"
	"chatbot-studio/internal/domain/ports/repository"
	"chatbot-studio/internal/infra/redis"
)

var _ repository.ChatbotRepository = (*ChatbotRepo)(nil)

// ChatbotRepo persists the chatbot registry. Reads go through the Redis
// cache when one is configured; writes always hit Postgres first.
type ChatbotRepo struct {
	pool  *pgxpool.Pool
	cache *redis.BotCache
}

func NewPostgresChatbotRepo(pool *pgxpool.Pool, cache *redis.BotCache) *ChatbotRepo {
	return &ChatbotRepo{pool: pool, cache: cache}
}

func (r *ChatbotRepo) Save(ctx context.Context, bot *model.SavedChatbot) error {
	queries, err := json.Marshal(bot.SampleQueries)
	if err != nil {
		return fmt.Errorf("marshal sample queries: %w", err)
	}
	history, err := json.Marshal(bot.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	const q = `
INSERT INTO chatbots (id, name, context_text, created_at, knowledge_scope, source_type, summary, persona, sample_queries, history)
VALUES ($1,$2,$3,COALESCE($4,NOW()),$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  context_text = EXCLUDED.context_text,
  knowledge_scope = EXCLUDED.knowledge_scope,
  source_type = EXCLUDED.source_type,
  summary = EXCLUDED.summary,
  persona = EXCLUDED.persona,
  sample_queries = EXCLUDED.sample_queries,
  history = EXCLUDED.history;`
	if _, err := r.pool.Exec(ctx, q,
		bot.ID, bot.Name, bot.ContextText, bot.CreatedAt,
		string(bot.KnowledgeScope), string(bot.SourceType),
		bot.Summary, bot.Persona, queries, history,
	); err != nil {
		return fmt.Errorf("save chatbot: %w", asDomainErr(err))
	}
	if r.cache != nil {
		_ = r.cache.StoreBot(ctx, bot)
	}
	return nil
}

func (r *ChatbotRepo) FindByID(ctx context.Context, id string) (*model.SavedChatbot, error) {
	if r.cache != nil {
		if bot, err := r.cache.FetchBot(ctx, id); err == nil && bot != nil {
			return bot, nil
		}
	}
	const q = `
SELECT id, name, context_text, created_at, knowledge_scope, source_type, summary, persona, sample_queries, history
  FROM chatbots WHERE id = $1;`
	bot, err := scanChatbot(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		_ = r.cache.StoreBot(ctx, bot)
	}
	return bot, nil
}

func (r *ChatbotRepo) FindAll(ctx context.Context) ([]*model.SavedChatbot, error) {
	const q = `
SELECT id, name, context_text, created_at, knowledge_scope, source_type, summary, persona, sample_queries, history
  FROM chatbots ORDER BY created_at ASC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query chatbots: %w", err)
	}
	defer rows.Close()
	var out []*model.SavedChatbot
	for rows.Next() {
		bot, err := scanChatbot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bot)
	}
	return out, rows.Err()
}

func (r *ChatbotRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM chatbots WHERE id = $1;`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete chatbot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if r.cache != nil {
		_ = r.cache.DropBot(ctx, id)
	}
	return nil
}

func scanChatbot(row pgx.Row) (*model.SavedChatbot, error) {
	var (
		b       model.SavedChatbot
		scope   string
		source  string
		queries []byte
		history []byte
	)
	if err := row.Scan(&b.ID, &b.Name, &b.ContextText, &b.CreatedAt, &scope, &source, &b.Summary, &b.Persona, &queries, &history); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan chatbot: %w", err)
	}
	b.KnowledgeScope = model.KnowledgeScope(scope)
	b.SourceType = model.SourceType(source)
	if err := json.Unmarshal(queries, &b.SampleQueries); err != nil {
		return nil, fmt.Errorf("decode sample queries: %w", err)
	}
	if err := json.Unmarshal(history, &b.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if b.History == nil {
		b.History = []model.ChatMessage{}
	}
	return &b, nil
}
