package participant

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("participant not found")

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AttachAll(ctx context.Context, threadID uint64, userIDs []uint64, at time.Time) error
	IsParticipant(ctx context.Context, threadID, userID uint64) (bool, error)
	Get(ctx context.Context, threadID, userID uint64) (*Participant, error)
	MarkRead(ctx context.Context, threadID, userID uint64, at time.Time) error
	ListParticipants(ctx context.Context, threadID uint64) ([]*Participant, error)
	ListForThreads(ctx context.Context, threadIDs []uint64) (map[uint64][]*Participant, error)
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

// AttachAll links every user to the thread. Users already attached are skipped.
func (r *repository) AttachAll(ctx context.Context, threadID uint64, userIDs []uint64, at time.Time) error {
	seen := make(map[uint64]bool, len(userIDs))
	rows := make([]*Participant, 0, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, &Participant{
			ThreadID:  threadID,
			UserID:    id,
			CreatedAt: at,
			UpdatedAt: at,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&rows).Error
}

func (r *repository) IsParticipant(ctx context.Context, threadID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Participant{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Get(ctx context.Context, threadID, userID uint64) (*Participant, error) {
	var p Participant
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkRead moves the read marker forward to at. It never moves it back, and a
// missing (thread, user) pair is not an error.
func (r *repository) MarkRead(ctx context.Context, threadID, userID uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Participant{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Where("last_read_at IS NULL OR last_read_at < ?", at).
		UpdateColumns(map[string]interface{}{
			"last_read_at": at,
			"updated_at":   at,
		}).Error
}

func (r *repository) ListParticipants(ctx context.Context, threadID uint64) ([]*Participant, error) {
	var participants []*Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("thread_id = ?", threadID).
		Order("id ASC").
		Find(&participants).Error
	return participants, err
}

func (r *repository) ListForThreads(ctx context.Context, threadIDs []uint64) (map[uint64][]*Participant, error) {
	byThread := make(map[uint64][]*Participant, len(threadIDs))
	if len(threadIDs) == 0 {
		return byThread, nil
	}
	var participants []*Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("thread_id IN ?", threadIDs).
		Order("thread_id ASC").
		Order("id ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		byThread[p.ThreadID] = append(byThread[p.ThreadID], p)
	}
	return byThread, nil
}
