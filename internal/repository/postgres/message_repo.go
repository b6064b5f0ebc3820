package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillswap/skillswap/internal/domain"
	"github.com/skillswap/skillswap/internal/repository"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `
	m.id, m.sender_id, m.recipient_id, m.content, m.exchange_id, m.read, m.created_at,
	s.name, s.avatar_url, r.name, r.avatar_url`

const messageJoins = `
	FROM messages m
	JOIN users s ON m.sender_id = s.id
	JOIN users r ON m.recipient_id = r.id`

func scanMessage(row pgx.Row, msg *domain.Message) error {
	return row.Scan(
		&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content,
		&msg.ExchangeID, &msg.Read, &msg.CreatedAt,
		&msg.SenderName, &msg.SenderAvatar,
		&msg.RecipientName, &msg.RecipientAvatar,
	)
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, recipient_id, content, exchange_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.SenderID, msg.RecipientID, msg.Content, msg.ExchangeID, msg.Read, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT` + messageColumns + messageJoins + `
		WHERE m.id = $1`
	var msg domain.Message
	err := scanMessage(r.pool.QueryRow(ctx, query, id), &msg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) ListConversation(ctx context.Context, userA, userB uuid.UUID) ([]domain.Message, error) {
	query := `SELECT` + messageColumns + messageJoins + `
		WHERE (m.sender_id = $1 AND m.recipient_id = $2)
			OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.created_at ASC, m.id ASC`

	rows, err := r.pool.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *MessageRepo) ListForUser(ctx context.Context, userID uuid.UUID, filter repository.MessageFilter) ([]domain.Message, error) {
	where := ""
	args := []any{userID}

	switch filter.Box {
	case "sent":
		where = `m.sender_id = $1`
	case "received":
		where = `m.recipient_id = $1`
	default:
		where = `(m.sender_id = $1 OR m.recipient_id = $1)`
	}

	if filter.Peer != nil {
		args = append(args, *filter.Peer)
		where += fmt.Sprintf(` AND (m.sender_id = $%d OR m.recipient_id = $%d)`, len(args), len(args))
	}
	if filter.Read != nil {
		args = append(args, *filter.Read)
		where += fmt.Sprintf(` AND m.read = $%d`, len(args))
	}
	if filter.ExchangeID != nil {
		args = append(args, *filter.ExchangeID)
		where += fmt.Sprintf(` AND m.exchange_id = $%d`, len(args))
	}

	query := `SELECT` + messageColumns + messageJoins + `
		WHERE ` + where + `
		ORDER BY m.created_at DESC, m.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *MessageRepo) MarkRead(ctx context.Context, ids []uuid.UUID, readerID uuid.UUID) (int64, []uuid.UUID, error) {
	if len(ids) == 0 {
		return 0, nil, nil
	}
	query := `
		UPDATE messages SET read = TRUE
		WHERE id = ANY($1) AND recipient_id = $2 AND read = FALSE
		RETURNING sender_id`
	rows, err := r.pool.Query(ctx, query, ids, readerID)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var modified int64
	seen := make(map[uuid.UUID]struct{})
	var senders []uuid.UUID
	for rows.Next() {
		var senderID uuid.UUID
		if err := rows.Scan(&senderID); err != nil {
			return 0, nil, err
		}
		modified++
		if _, ok := seen[senderID]; !ok {
			seen[senderID] = struct{}{}
			senders = append(senders, senderID)
		}
	}
	return modified, senders, rows.Err()
}

func (r *MessageRepo) MarkConversationRead(ctx context.Context, senderID, readerID uuid.UUID) (int64, error) {
	query := `
		UPDATE messages SET read = TRUE
		WHERE sender_id = $1 AND recipient_id = $2 AND read = FALSE`
	tag, err := r.pool.Exec(ctx, query, senderID, readerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) UnreadCounts(ctx context.Context, userID uuid.UUID) ([]domain.UnreadCount, error) {
	query := `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE recipient_id = $1 AND read = FALSE
		GROUP BY sender_id
		ORDER BY COUNT(*) DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.UnreadCount
	for rows.Next() {
		var c domain.UnreadCount
		if err := rows.Scan(&c.SenderID, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func collectMessages(rows pgx.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := scanMessage(rows, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
