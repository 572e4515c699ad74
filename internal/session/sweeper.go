package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// placeholderName is used when the sweeper has to create the customer row
// for a session whose display name was never recorded.
const placeholderName = "Unknown User"

// Archiver persists finished sessions. Implemented by the store.
type Archiver interface {
	EnsureCustomer(ctx context.Context, phoneNo, name string) error
	SaveConversation(ctx context.Context, conv ArchivedConversation) error
}

// EventPublisher is notified after a conversation has been archived.
type EventPublisher interface {
	ConversationArchived(conv ArchivedConversation) error
}

// Sweeper migrates idle sessions from the cache into the archive. It runs
// on every cache write and, optionally, on a timer; both paths share Sweep.
// Cost is O(live sessions) per pass, which holds up only while the live
// session count stays small.
type Sweeper struct {
	kv        KV
	archive   Archiver
	events    EventPublisher
	threshold time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewSweeper(kv KV, archive Archiver, events EventPublisher, threshold time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		kv:        kv,
		archive:   archive,
		events:    events,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep scans all live sessions and archives every one idle for at least
// the threshold, deleting its cache entry afterwards. A failure to archive
// one session is logged and skipped; the entry stays in the cache so the
// next pass retries it. Returns the number of sessions archived.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, sessionKeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	archived := 0
	now := s.now()
	for _, key := range keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Warn("sweep: read session failed", "key", key, "error", err)
			continue
		}
		if !ok {
			// Expired between Keys and Get.
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("sweep: undecodable session", "key", key, "error", err)
			continue
		}

		lastActivity := rec.LastActivity
		if lastActivity.IsZero() {
			lastActivity = rec.StartedAt
		}
		if now.Sub(lastActivity) < s.threshold {
			continue
		}

		if err := s.archiveSession(ctx, rec, lastActivity); err != nil {
			s.logger.Error("sweep: archive failed, will retry next pass",
				"phone_no", rec.PhoneNo, "error", err)
			continue
		}

		if err := s.kv.Del(ctx, key); err != nil {
			s.logger.Warn("sweep: delete after archive failed", "key", key, "error", err)
			continue
		}

		archived++
		s.logger.Info("archived idle session",
			"phone_no", rec.PhoneNo,
			"messages", len(rec.Messages),
			"idle", now.Sub(lastActivity).Truncate(time.Second).String(),
		)
	}

	return archived, nil
}

func (s *Sweeper) archiveSession(ctx context.Context, rec Record, endedAt time.Time) error {
	name := rec.WhatsappName
	if name == "" {
		name = placeholderName
	}
	if err := s.archive.EnsureCustomer(ctx, rec.PhoneNo, name); err != nil {
		return fmt.Errorf("ensure customer: %w", err)
	}

	// The id is minted here so the stored row and the published event agree.
	conv := ArchivedConversation{
		ConversationID: uuid.New(),
		PhoneNo:        rec.PhoneNo,
		StartedAt:      rec.StartedAt,
		EndedAt:        endedAt,
		Messages:       rec.Messages,
	}
	if err := s.archive.SaveConversation(ctx, conv); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	if s.events != nil {
		if err := s.events.ConversationArchived(conv); err != nil {
			s.logger.Warn("publish archived event failed", "phone_no", rec.PhoneNo, "error", err)
		}
	}
	return nil
}
