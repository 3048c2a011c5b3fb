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
)

var _ repository.GeneralSessionRepository = (*GeneralSessionRepo)(nil)

// GeneralSessionRepo persists assistant sessions. Message logs are
// unbounded, so they live in one JSONB column rewritten per mutation.
type GeneralSessionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresGeneralSessionRepo(pool *pgxpool.Pool) *GeneralSessionRepo {
	return &GeneralSessionRepo{pool: pool}
}

func (r *GeneralSessionRepo) Save(ctx context.Context, s *model.GeneralChatSession) error {
	messages, err := json.Marshal(s.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	const q = `
INSERT INTO general_sessions (id, title, created_at, personality, messages)
VALUES ($1,$2,COALESCE($3,NOW()),$4,$5)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  personality = EXCLUDED.personality,
  messages = EXCLUDED.messages;`
	if _, err := r.pool.Exec(ctx, q, s.ID, s.Title, s.CreatedAt, string(s.Personality), messages); err != nil {
		return fmt.Errorf("save session: %w", asDomainErr(err))
	}
	return nil
}

func (r *GeneralSessionRepo) FindByID(ctx context.Context, id string) (*model.GeneralChatSession, error) {
	const q = `SELECT id, title, created_at, personality, messages FROM general_sessions WHERE id = $1;`
	return scanGeneralSession(r.pool.QueryRow(ctx, q, id))
}

func (r *GeneralSessionRepo) FindAll(ctx context.Context) ([]*model.GeneralChatSession, error) {
	const q = `SELECT id, title, created_at, personality, messages FROM general_sessions ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()
	var out []*model.GeneralChatSession
	for rows.Next() {
		s, err := scanGeneralSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *GeneralSessionRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM general_sessions WHERE id = $1;`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanGeneralSession(row pgx.Row) (*model.GeneralChatSession, error) {
	var (
		s           model.GeneralChatSession
		personality string
		messages    []byte
	)
	if err := row.Scan(&s.ID, &s.Title, &s.CreatedAt, &personality, &messages); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.Personality = model.Personality(personality)
	if err := json.Unmarshal(messages, &s.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if s.Messages == nil {
		s.Messages = []model.ChatMessage{}
	}
	return &s, nil
}
