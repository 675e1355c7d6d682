package user

import (
	"context"
	"fmt"
	"time"

	"threadbox/internal/providers/redis"

	"go.uber.org/zap"
)

const userCacheTTL = 5 * time.Minute

// Service is the user directory the conversation core consults for identity and existence.
type Service interface {
	GetByID(ctx context.Context, id uint64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	MissingIDs(ctx context.Context, ids []uint64) ([]uint64, error)
	Create(ctx context.Context, u *User) error
}

type service struct {
	repo   Repository
	redisP *redis.RedisProvider
	logger *zap.SugaredLogger
}

// NewService builds the directory. redisP may be nil, in which case lookups go straight to the repository.
func NewService(repo Repository, redisP *redis.RedisProvider, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		redisP: redisP,
		logger: logger.Sugar(),
	}
}

func cacheKey(id uint64) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *service) GetByID(ctx context.Context, id uint64) (*User, error) {
	if s.redisP != nil {
		var cached User
		ok, err := s.redisP.GetJSON(ctx, cacheKey(id), &cached)
		if err != nil {
			s.logger.Warnw("User cache read failed", "user_id", id, "error", err)
		} else if ok {
			return &cached, nil
		}
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.redisP != nil {
		if err := s.redisP.SetJSON(ctx, cacheKey(id), u, userCacheTTL); err != nil {
			s.logger.Warnw("User cache write failed", "user_id", id, "error", err)
		}
	}
	return u, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *service) Exists(ctx context.Context, id uint64) (bool, error) {
	missing, err := s.MissingIDs(ctx, []uint64{id})
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// MissingIDs returns the ids, in input order, that name no user.
func (s *service) MissingIDs(ctx context.Context, ids []uint64) ([]uint64, error) {
	found, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}
	var missing []uint64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *service) Create(ctx context.Context, u *User) error {
	if err := s.repo.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if s.redisP != nil {
		if err := s.redisP.Del(ctx, cacheKey(u.ID)); err != nil {
			s.logger.Warnw("User cache invalidation failed", "user_id", u.ID, "error", err)
		}
	}
	s.logger.Infow("User created", "user_id", u.ID, "email", u.Email, "role", u.Role)
	return nil
}
