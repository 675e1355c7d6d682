package utils

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  []Service `json:"services"`
}

type Service struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Pinger is satisfied by the redis provider.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	DB    *gorm.DB
	Redis Pinger
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	var services []Service
	overallStatus := "healthy"

	if h.DB != nil {
		services = append(services, probe(ctx, "PostgreSQL", func(ctx context.Context) error {
			sqlDB, err := h.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}))
	}

	if h.Redis != nil {
		services = append(services, probe(ctx, "Redis", h.Redis.Ping))
	}

	for _, s := range services {
		if s.Status != "up" {
			overallStatus = "degraded"
		}
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Services:  services,
	}
}

func probe(ctx context.Context, name string, ping func(context.Context) error) Service {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	service := Service{Name: name, Status: "up"}
	if err := ping(ctx); err != nil {
		service.Status = "down"
		service.Message = err.Error()
	}
	return service
}
