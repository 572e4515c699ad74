package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/helioretail/concierge/internal/session"
)

// SubjectConversationArchived is emitted after the sweeper migrates an idle
// session into the archive.
const SubjectConversationArchived = "concierge.conversation.archived"

// ConversationArchivedEvent is the payload for SubjectConversationArchived.
type ConversationArchivedEvent struct {
	ConversationID string    `json:"conversation_id"`
	PhoneNo        string    `json:"phone_no"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	MessageCount   int       `json:"message_count"`
	ArchivedAt     time.Time `json:"archived_at"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

// ConversationArchived publishes an archived-conversation event. Delivery
// is best effort; the sweeper logs and continues on failure.
func (p *Publisher) ConversationArchived(conv session.ArchivedConversation) error {
	evt := ConversationArchivedEvent{
		ConversationID: conv.ConversationID.String(),
		PhoneNo:        conv.PhoneNo,
		StartedAt:      conv.StartedAt,
		EndedAt:        conv.EndedAt,
		MessageCount:   len(conv.Messages),
		ArchivedAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(SubjectConversationArchived, payload)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
