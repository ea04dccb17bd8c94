package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/waorder/internal/cache"
	"github.com/example/waorder/internal/database"
	"github.com/example/waorder/internal/models"
)

// DefaultDedupTTL is how long a handled message id stays in the fast path.
const DefaultDedupTTL = time.Hour

// DedupTracker remembers which inbound message ids have been handled. The in-process
// cache answers near-concurrent redeliveries immediately; the durable log catches
// redeliveries after a restart or from another instance, eventually.
//
// It owns its cache so that clearing the record caches never re-admits a message.
type DedupTracker struct {
	seen  *cache.Cache[bool]
	store database.Store
	bg    *Background
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger
}

// NewDedupTracker creates a tracker whose cache entries live for ttl.
func NewDedupTracker(store database.Store, bg *Background, ttl time.Duration, log *slog.Logger) *DedupTracker {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &DedupTracker{
		seen:  cache.New[bool](ttl),
		store: store,
		bg:    bg,
		ttl:   ttl,
		now:   time.Now,
		log:   log,
	}
}

func processedKey(messageID string) string {
	return "processed:" + messageID
}

// AlreadyProcessed reports whether messageID has been handled. A durable hit is
// back-filled into the cache. A store error counts as "not processed".
func (d *DedupTracker) AlreadyProcessed(ctx context.Context, messageID string) bool {
	if _, ok := d.seen.Get(processedKey(messageID)); ok {
		return true
	}

	processed, err := d.store.MessageProcessed(ctx, messageID)
	if err != nil {
		d.log.Warn("dedup lookup failed", slog.String("message_id", messageID), slog.Any("error", err))
		return false
	}
	if processed {
		d.seen.SetWithTTL(processedKey(messageID), true, d.ttl)
	}
	return processed
}

// MarkProcessed records messageID in the cache before returning and appends the
// durable record in the background.
func (d *DedupTracker) MarkProcessed(messageID, senderID, kind string) {
	d.seen.SetWithTTL(processedKey(messageID), true, d.ttl)
	d.persist(messageID, senderID, kind)
}

// Claim atomically checks and marks messageID. Exactly one of several concurrent
// claims for the same id returns true; every later claim returns false.
func (d *DedupTracker) Claim(ctx context.Context, messageID, senderID, kind string) bool {
	if !d.seen.Add(processedKey(messageID), true, d.ttl) {
		return false
	}

	processed, err := d.store.MessageProcessed(ctx, messageID)
	if err != nil {
		d.log.Warn("dedup lookup failed", slog.String("message_id", messageID), slog.Any("error", err))
	}
	if processed {
		return false
	}

	d.persist(messageID, senderID, kind)
	return true
}

func (d *DedupTracker) persist(messageID, senderID, kind string) {
	record := &models.ProcessedMessage{
		MessageID:   messageID,
		WaID:        senderID,
		MessageType: kind,
		ProcessedAt: d.now().UTC(),
	}
	d.bg.Go("dedup.insert", func(ctx context.Context) error {
		return d.store.InsertProcessedMessage(ctx, record)
	})
}
