package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"

	sessionKeyPrefix  = "chat_session:"
	snapshotKeyPrefix = "conversation:"

	noHistorySentinel = "No previous conversation history."
)

// Turn is one message within a session, immutable once written.
type Turn struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the live cache entry for one customer's in-progress exchange.
// Turns are append-only while the session is live.
type Record struct {
	PhoneNo        string    `json:"phone_no"`
	WhatsappName   string    `json:"whatsapp_name,omitempty"`
	Messages       []Turn    `json:"messages"`
	StartedAt      time.Time `json:"started_at"`
	LastActivity   time.Time `json:"last_activity"`
	LoadedFromDB   bool      `json:"loaded_from_db,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

// ArchivedConversation is the durable counterpart of a finished Record.
type ArchivedConversation struct {
	ConversationID uuid.UUID
	PhoneNo        string
	StartedAt      time.Time
	EndedAt        time.Time
	Messages       []Turn
}

// SnapshotResult reports the outcome of loading a customer's most recent
// archived conversation into the snapshot namespace.
type SnapshotResult struct {
	Found          bool
	Loaded         bool
	MessagesLoaded int
	ConversationID string
	Message        string
}

// SnapshotSource reads back archived conversations. Implemented by the store.
type SnapshotSource interface {
	// LoadRecentConversation returns the most recent archived conversation
	// for the customer, or nil when none exists.
	LoadRecentConversation(ctx context.Context, phoneNo string, limit int) (*ArchivedConversation, error)
}

// Cache holds live sessions in an expiring key-value store, one record per
// customer. Concurrent appends for the same customer are last-writer-wins;
// callers serialize per customer if they need stronger guarantees.
type Cache struct {
	kv      KV
	archive SnapshotSource
	sweeper *Sweeper
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewCache(kv KV, archive SnapshotSource, sweeper *Sweeper, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		kv:      kv,
		archive: archive,
		sweeper: sweeper,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

func sessionKey(phoneNo string) string  { return sessionKeyPrefix + phoneNo }
func snapshotKey(phoneNo string) string { return snapshotKeyPrefix + phoneNo }

// Get returns the live session record for a customer, or nil when absent.
func (c *Cache) Get(ctx context.Context, phoneNo string) (*Record, error) {
	raw, ok, err := c.kv.Get(ctx, sessionKey(phoneNo))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// AppendTurn appends turns to the customer's live session, creating the
// record on first contact and resetting the TTL on every write. Each write
// first runs a sweep pass over all live sessions; sweep failures are logged
// and never abort the inbound message.
func (c *Cache) AppendTurn(ctx context.Context, phoneNo string, turns ...Turn) error {
	if c.sweeper != nil {
		if _, err := c.sweeper.Sweep(ctx); err != nil {
			c.logger.Warn("sweep before append failed", "phone_no", phoneNo, "error", err)
		}
	}

	now := c.now()
	rec, err := c.Get(ctx, phoneNo)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &Record{
			PhoneNo:   phoneNo,
			StartedAt: now,
		}
	}

	for _, t := range turns {
		if t.Timestamp.IsZero() {
			t.Timestamp = now
		}
		rec.Messages = append(rec.Messages, t)
	}
	rec.LastActivity = now

	return c.put(ctx, sessionKey(phoneNo), rec)
}

func (c *Cache) put(ctx context.Context, key string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.kv.SetEx(ctx, key, string(data), c.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Context formats the most recent maxTurns turns, oldest first, for
// inclusion in a language-model prompt. Returns an explicit sentinel when
// the customer has no live session.
func (c *Cache) Context(ctx context.Context, phoneNo string, maxTurns int) (string, error) {
	rec, err := c.Get(ctx, phoneNo)
	if err != nil {
		return "", err
	}
	if rec == nil || len(rec.Messages) == 0 {
		return noHistorySentinel, nil
	}

	turns := rec.Messages
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, t := range turns {
		sender := "User"
		if t.Sender == SenderBot {
			sender = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", sender, t.Message)
	}
	return b.String(), nil
}

// LoadSnapshot pulls the customer's most recent archived conversation into
// the snapshot namespace. The snapshot is loaded at most once per TTL
// window: a cache hit is returned as-is without touching the archive.
func (c *Cache) LoadSnapshot(ctx context.Context, phoneNo string, limit int) (SnapshotResult, error) {
	raw, ok, err := c.kv.Get(ctx, snapshotKey(phoneNo))
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("get snapshot: %w", err)
	}
	if ok {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return SnapshotResult{}, fmt.Errorf("decode snapshot: %w", err)
		}
		return SnapshotResult{
			Found:          true,
			Loaded:         true,
			MessagesLoaded: len(rec.Messages),
			ConversationID: rec.ConversationID,
		}, nil
	}

	conv, err := c.archive.LoadRecentConversation(ctx, phoneNo, limit)
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("load archived conversation: %w", err)
	}
	if conv == nil {
		return SnapshotResult{
			Message: "No previous conversations found in database",
		}, nil
	}
	if len(conv.Messages) == 0 {
		return SnapshotResult{
			Found:   true,
			Message: "Conversation found but no messages",
		}, nil
	}

	rec := &Record{
		PhoneNo:        phoneNo,
		Messages:       conv.Messages,
		StartedAt:      conv.StartedAt,
		LastActivity:   c.now(),
		LoadedFromDB:   true,
		ConversationID: conv.ConversationID.String(),
	}
	if err := c.put(ctx, snapshotKey(phoneNo), rec); err != nil {
		return SnapshotResult{}, err
	}

	c.logger.Info("loaded archived conversation into snapshot",
		"phone_no", phoneNo,
		"conversation_id", conv.ConversationID,
		"messages", len(conv.Messages),
	)

	return SnapshotResult{
		Found:          true,
		Loaded:         true,
		MessagesLoaded: len(conv.Messages),
		ConversationID: conv.ConversationID.String(),
	}, nil
}
