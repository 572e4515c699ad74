package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helioretail/concierge/internal/session"
)

// SaveConversation persists a finished session as a conversation row plus
// its messages, in one transaction. A conversation id is assigned here if
// the sweeper did not set one.
func (s *Store) SaveConversation(ctx context.Context, conv session.ArchivedConversation) error {
	conversationID := conv.ConversationID
	if conversationID == uuid.Nil {
		conversationID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO conversations (conversation_id, phone_no, started_at, ended_at)
		VALUES ($1, $2, $3, $4)`,
		conversationID, conv.PhoneNo, conv.StartedAt, conv.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for _, msg := range conv.Messages {
		_, err = tx.Exec(ctx, `
			INSERT INTO messages (conversation_id, sender, message_text, timestamp)
			VALUES ($1, $2, $3, $4)`,
			conversationID, msg.Sender, msg.Message, msg.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadRecentConversation returns the customer's most recent archived
// conversation with up to limit messages in insertion order, or nil when
// the customer has no archived history.
func (s *Store) LoadRecentConversation(ctx context.Context, phoneNo string, limit int) (*session.ArchivedConversation, error) {
	conv := session.ArchivedConversation{PhoneNo: phoneNo}

	err := s.pool.QueryRow(ctx, `
		SELECT conversation_id, started_at, ended_at
		FROM conversations
		WHERE phone_no = $1
		ORDER BY started_at DESC
		LIMIT 1`,
		phoneNo,
	).Scan(&conv.ConversationID, &conv.StartedAt, &conv.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sender, message_text, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC
		LIMIT $2`,
		conv.ConversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t session.Turn
		if err := rows.Scan(&t.Sender, &t.Message, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		conv.Messages = append(conv.Messages, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return &conv, nil
}
