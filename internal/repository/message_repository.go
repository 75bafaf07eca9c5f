package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messagewall/internal/models"
)

const messageColumns = `id, content, image_url, status, created_at, updated_at`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) LoadByStatus(ctx context.Context, status models.Status) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE status = $1 ORDER BY created_at DESC`

	messages := []models.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, status); err != nil {
		return nil, fmt.Errorf("ошибка при получении сообщений со статусом %s: %w", status, err)
	}

	return messages, nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	var msg models.Message
	err := r.db.GetContext(ctx, &msg, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrMessageNotFound, id)
		}
		return nil, fmt.Errorf("ошибка при получении сообщения: %w", err)
	}

	return &msg, nil
}

// Insert returns the stored row, including the timestamps set by the database.
func (r *messageRepository) Insert(ctx context.Context, content string, imageURL *string, status models.Status) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, content, image_url, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	var msg models.Message
	err := r.db.GetContext(ctx, &msg, query, uuid.New().String(), content, imageURL, status)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании сообщения: %w", err)
	}

	return &msg, nil
}

// UpdateStatus succeeds when the message already has the requested status.
func (r *messageRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	query := `UPDATE messages SET status = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении статуса сообщения: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrMessageNotFound, id)
	}

	return nil
}

func (r *messageRepository) Archive(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, models.StatusArchived)
}

func (r *messageRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM messages WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка при удалении сообщения: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке удаленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrMessageNotFound, id)
	}

	return nil
}

func (r *messageRepository) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM messages GROUP BY status`

	var rows []struct {
		Status models.Status `db:"status"`
		Count  int           `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("ошибка при подсчёте сообщений: %w", err)
	}

	counts := make(map[models.Status]int, len(models.Statuses))
	for _, status := range models.Statuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
