package conversation

import (
	"time"

	"threadbox/internal/utils"

	"go.uber.org/zap"
)

const (
	EventThreadCreated = "thread.created"
	EventMessagePosted = "message.posted"
	EventThreadDeleted = "thread.deleted"
)

type ThreadCreated struct {
	ThreadID     uint64   `json:"thread_id"`
	CreatedBy    uint64   `json:"created_by"`
	Participants []uint64 `json:"participants"`
}

type MessagePosted struct {
	ThreadID  uint64    `json:"thread_id"`
	MessageID uint64    `json:"message_id"`
	AuthorID  uint64    `json:"author_id"`
	At        time.Time `json:"at"`
}

type ThreadDeleted struct {
	ThreadID  uint64 `json:"thread_id"`
	DeletedBy uint64 `json:"deleted_by"`
}

// RegisterAuditSubscribers logs every conversation event and counts it.
func RegisterAuditSubscribers(bus *utils.EventBus, metrics *Metrics, logger *zap.Logger) {
	log := logger.Sugar().With("component", "audit")

	bus.Subscribe(EventThreadCreated, func(e utils.Event) {
		metrics.event(e.Event)
		if d, ok := e.Data.(ThreadCreated); ok {
			log.Infow("Thread created", "thread_id", d.ThreadID, "created_by", d.CreatedBy, "participants", d.Participants)
		}
	})
	bus.Subscribe(EventMessagePosted, func(e utils.Event) {
		metrics.event(e.Event)
		if d, ok := e.Data.(MessagePosted); ok {
			log.Infow("Message posted", "thread_id", d.ThreadID, "message_id", d.MessageID, "author_id", d.AuthorID)
		}
	})
	bus.Subscribe(EventThreadDeleted, func(e utils.Event) {
		metrics.event(e.Event)
		if d, ok := e.Data.(ThreadDeleted); ok {
			log.Infow("Thread deleted", "thread_id", d.ThreadID, "deleted_by", d.DeletedBy)
		}
	})
}
