package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/craftmarket/bundles-backend/pkg/config"
	"github.com/craftmarket/bundles-backend/pkg/logger"
)

const (
	keyNamespace = "cb"
	draftPrefix  = "draft"
	leasePrefix  = "lease"

	leaseRetry = 50 * time.Millisecond
)

// Nil is returned by Get when the key does not exist.
const Nil = redis.Nil

// ErrLeaseHeld is returned when another holder kept the lease for the whole
// wait period.
var ErrLeaseHeld = errors.New("lease is held by another editor")

// ErrLeaseLost is the cancellation cause seen by a lease callback whose key
// expired or was taken over before it returned.
var ErrLeaseLost = errors.New("lease lost while held")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

const renewScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("pexpire", KEYS[1], ARGV[2])
else
  return 0
end`

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Eval(context.Context, string, []string, ...any) *redis.Cmd
}

// Client wraps the redis connection helpers needed by the service.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(raw *redis.Client) *Client {
	return &Client{store: raw, raw: raw}
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Set stores a value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns the value stored at key, or Nil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errors.New("redis client not initialized")
	}
	return c.store.Get(ctx, key).Result()
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Del(ctx, keys...).Err()
}

// DraftKey returns the key holding a seller's draft snapshot.
func (c *Client) DraftKey(sellerID, draftID string) string {
	return c.buildKey(draftPrefix, sellerID, draftID)
}

// DraftLeaseKey returns the key guarding single-editor access to a draft.
func (c *Client) DraftLeaseKey(draftID string) string {
	return c.buildKey(leasePrefix, draftPrefix, draftID)
}

// WithLease runs fn while holding key. It polls for up to wait when the key
// is taken and returns ErrLeaseHeld after that. While fn runs the lease is
// extended every ttl/3; if it is lost anyway, fn's context is cancelled with
// ErrLeaseLost. Release only deletes the key while this holder still owns it.
func (c *Client) WithLease(ctx context.Context, key string, ttl, wait time.Duration, fn func(context.Context) error) (err error) {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	if fn == nil {
		return errors.New("lease callback not provided")
	}
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, setErr := c.store.SetNX(ctx, key, token, ttl).Result()
		if setErr != nil {
			return fmt.Errorf("acquire lease: %w", setErr)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return ErrLeaseHeld
		}
		timer := time.NewTimer(leaseRetry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)
		c.renewLease(leaseCtx, key, token, ttl, stop, cancel)
	}()

	defer func() {
		close(stop)
		<-renewed
		cancel(nil)
		releaseErr := c.store.Eval(context.WithoutCancel(ctx), releaseScript, []string{key}, token).Err()
		if releaseErr != nil && !errors.Is(releaseErr, redis.Nil) {
			err = multierr.Append(err, fmt.Errorf("release lease: %w", releaseErr))
		}
	}()
	return fn(leaseCtx)
}

func (c *Client) renewLease(ctx context.Context, key, token string, ttl time.Duration, stop <-chan struct{}, cancel context.CancelCauseFunc) {
	interval := ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		kept, err := c.store.Eval(ctx, renewScript, []string{key}, token, ttl.Milliseconds()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			// transient; the next tick retries before the key can expire
			continue
		}
		if kept == 0 {
			cancel(ErrLeaseLost)
			return
		}
	}
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
