package message

import (
	"context"
	"strings"
	"time"

	"threadbox/pkg/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, threadID, authorID uint64, body string, at time.Time) (*Message, error)
	ListForThread(ctx context.Context, threadID uint64) ([]*Message, error)
	CountByThreads(ctx context.Context, threadIDs []uint64) (map[uint64]int64, error)
	LatestByThreads(ctx context.Context, threadIDs []uint64) (map[uint64]*Message, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, threadID, authorID uint64, body string, at time.Time) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.NewValidationError("body", "The body field is required.")
	}
	m := &Message{
		ThreadID:  threadID,
		UserID:    authorID,
		Body:      body,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListForThread returns the thread's messages oldest first, each with its author.
func (r *repository) ListForThread(ctx context.Context, threadID uint64) ([]*Message, error) {
	messages := []*Message{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repository) CountByThreads(ctx context.Context, threadIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(threadIDs))
	if len(threadIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ThreadID uint64
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&Message{}).
		Select("thread_id, COUNT(*) AS total").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ThreadID] = row.Total
	}
	return counts, nil
}

func (r *repository) LatestByThreads(ctx context.Context, threadIDs []uint64) (map[uint64]*Message, error) {
	latest := make(map[uint64]*Message, len(threadIDs))
	if len(threadIDs) == 0 {
		return latest, nil
	}
	var messages []*Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("thread_id IN ?", threadIDs).
		Where(`messages.id = (
			SELECT m2.id FROM messages m2
			WHERE m2.thread_id = messages.thread_id AND m2.deleted_at IS NULL
			ORDER BY m2.created_at DESC, m2.id DESC
			LIMIT 1
		)`).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		latest[m.ThreadID] = m
	}
	return latest, nil
}
