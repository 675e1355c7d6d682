package seeder

import (
	"context"
	"errors"

	"threadbox/internal/access"
	"threadbox/internal/app/user"

	"go.uber.org/zap"
)

type Seeder struct {
	users  user.Service
	logger *zap.Logger
}

func NewSeeder(users user.Service, logger *zap.Logger) *Seeder {
	return &Seeder{
		users:  users,
		logger: logger,
	}
}

// DefaultUsers are the accounts a fresh install starts with.
func DefaultUsers() []user.User {
	return []user.User{
		{Name: "Administrador", Email: "admin@inbox.com", Role: access.RoleAdmin},
		{Name: "Usuario Normal", Email: "user@inbox.com", Role: access.RoleUser},
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	s.logger.Info("Running database seeders...")

	if err := s.seedUsers(ctx); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context) error {
	created := 0
	for _, u := range DefaultUsers() {
		_, err := s.users.GetByEmail(ctx, u.Email)
		if err == nil {
			s.logger.Debug("User already exists, skipping seed", zap.String("email", u.Email))
			continue
		}
		if !errors.Is(err, user.ErrNotFound) {
			return err
		}
		u := u
		if err := s.users.Create(ctx, &u); err != nil {
			return err
		}
		created++
	}

	s.logger.Info("Seeded users", zap.Int("count", created))
	return nil
}
