package repository

import (
	"context"

	"kinto/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ChatLogRepository is the append-only chat log sink. The engine only ever
// writes here; nothing in the request path reads entries back.
type ChatLogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChatLogRepository(db *pgxpool.Pool, logger *zap.Logger) *ChatLogRepository {
	return &ChatLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ChatLogRepository) Append(ctx context.Context, entry *models.ChatLogEntry) error {
	query := squirrel.Insert("chat_log").
		Columns("id", "session_id", "user_id", "message", "answer", "confidence", "escalated", "created_at").
		Values(entry.ID, entry.SessionID, entry.UserID, entry.Message,
			entry.Answer, entry.Confidence, entry.Escalated, entry.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
