package thread

import (
	"context"
	"errors"
	"time"

	"threadbox/internal/access"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("thread not found")

const participantScope = `EXISTS (
	SELECT 1 FROM thread_participants tp
	WHERE tp.thread_id = threads.id AND tp.user_id = ? AND tp.deleted_at IS NULL
)`

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, subject string, creatorID uint64, at time.Time) (*Thread, error)
	FindVisible(ctx context.Context, threadID uint64, p access.Principal) (*Thread, error)
	FindDeletable(ctx context.Context, threadID uint64, p access.Principal) (*Thread, error)
	ListVisible(ctx context.Context, p access.Principal, page, pageSize int) ([]*Thread, int64, error)
	FindForUpdate(ctx context.Context, threadID uint64) (*Thread, error)
	Touch(ctx context.Context, threadID uint64, at time.Time) error
	SoftDelete(ctx context.Context, threadID uint64, at time.Time) error
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

func (r *repository) Create(ctx context.Context, subject string, creatorID uint64, at time.Time) (*Thread, error) {
	t := &Thread{
		Subject:   subject,
		CreatedBy: creatorID,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// visible narrows a query to threads the principal may read.
func (r *repository) visible(ctx context.Context, p access.Principal) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&Thread{})
	if access.CanListAll(p) {
		return q
	}
	return q.Where(participantScope, p.ID)
}

func (r *repository) FindVisible(ctx context.Context, threadID uint64, p access.Principal) (*Thread, error) {
	var t Thread
	err := r.visible(ctx, p).
		Preload("Creator").
		Where("threads.id = ?", threadID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) FindDeletable(ctx context.Context, threadID uint64, p access.Principal) (*Thread, error) {
	q := r.db.WithContext(ctx).Where("threads.id = ?", threadID)
	if !p.IsAdmin() {
		q = q.Where("threads.created_by = ?", p.ID)
	}
	var t Thread
	err := q.First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListVisible(ctx context.Context, p access.Principal, page, pageSize int) ([]*Thread, int64, error) {
	var total int64
	if err := r.visible(ctx, p).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	threads := []*Thread{}
	offset := (page - 1) * pageSize
	if int64(offset) >= total {
		return threads, total, nil
	}

	err := r.visible(ctx, p).
		Preload("Creator").
		Order("threads.updated_at DESC").
		Order("threads.id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

// FindForUpdate loads a live thread and holds its row lock until the surrounding
// transaction ends. Call it on a repository bound with WithTx.
func (r *repository) FindForUpdate(ctx context.Context, threadID uint64) (*Thread, error) {
	var t Thread
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", threadID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Touch sets updated_at on a live thread. Returns ErrNotFound when nothing was updated.
func (r *repository) Touch(ctx context.Context, threadID uint64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Thread{}).
		Where("id = ?", threadID).
		UpdateColumn("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, threadID uint64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Thread{}).
		Where("id = ?", threadID).
		UpdateColumn("deleted_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
