package redis

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisProvider struct {
	Client *redis.Client
	URL    string
	logger *zap.SugaredLogger
	ttl    time.Duration
}

// NewRedisProvider connects lazily: an unreachable server is logged, not fatal.
// The connection monitor stops when ctx is done.
func NewRedisProvider(ctx context.Context, redisURL string, logger *zap.Logger, ttl time.Duration) *RedisProvider {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 100 * time.Millisecond
	opts.MaxRetryBackoff = 500 * time.Millisecond

	client := redis.NewClient(opts)
	provider := &RedisProvider{
		Client: client,
		URL:    redisURL,
		logger: logger.Sugar().With("component", "redis"),
		ttl:    ttl,
	}
	client.AddHook(&loggerHook{logger: provider.logger})

	if err := client.Ping(ctx).Err(); err != nil {
		provider.logger.Errorw("Redis connection failed at startup", "error", err)
	} else {
		provider.logger.Infow("Redis connected", "addr", opts.Addr, "db", opts.DB, "default_ttl", ttl.String())
	}

	go provider.monitor(ctx, err == nil)

	return provider
}

// GetJSON decodes the cached value at key into dst. A miss reports false with a nil error.
func (r *RedisProvider) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key; ttl <= 0 uses the provider default.
func (r *RedisProvider) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.Client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisProvider) Del(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

func (r *RedisProvider) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisProvider) Close() error {
	return r.Client.Close()
}

func (r *RedisProvider) monitor(ctx context.Context, connected bool) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := r.Client.Ping(ctx).Err()
			switch {
			case err != nil && connected:
				r.logger.Errorw("Redis disconnected", "error", err)
				connected = false
			case err == nil && !connected:
				r.logger.Infow("Redis reconnected", "url", r.URL)
				connected = true
			}
		}
	}
}

type loggerHook struct {
	logger *zap.SugaredLogger
}

func (h *loggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.logger.Errorw("Redis dial failed", "network", network, "addr", addr, "error", err)
		}
		return conn, err
	}
}

func (h *loggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.log(cmd, time.Since(start), err)
		return err
	}
}

func (h *loggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)
		for _, cmd := range cmds {
			h.log(cmd, elapsed, err)
		}
		return err
	}
}

func (h *loggerHook) log(cmd redis.Cmder, elapsed time.Duration, err error) {
	if cmd.Name() == "ping" && err == nil {
		return
	}
	// cache misses are not failures
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	if err != nil {
		h.logger.Errorw("Redis command failed", "command", cmd.Name(), "duration_ms", elapsed.Milliseconds(), "error", err)
		return
	}
	h.logger.Debugw("Redis command executed", "command", cmd.Name(), "duration_ms", elapsed.Milliseconds())
}
