package bundles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/craftmarket/bundles-backend/pkg/redis"
)

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftBusy     = errors.New("draft is being edited by another request")
)

// Draft is an editing session: the working bundle plus the composer status.
// It lives in Redis and expires after the configured TTL of inactivity.
type Draft struct {
	ID        uuid.UUID `json:"id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Bundle    Bundle    `json:"bundle"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftStore persists drafts and serializes edits to the same draft.
type DraftStore interface {
	Load(ctx context.Context, sellerID, draftID uuid.UUID) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	Delete(ctx context.Context, sellerID, draftID uuid.UUID) error
	// WithLease runs fn while no other caller holds draftID.
	WithLease(ctx context.Context, draftID uuid.UUID, fn func(context.Context) error) error
}

type draftRedis interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DraftKey(sellerID, draftID string) string
	DraftLeaseKey(draftID string) string
	WithLease(ctx context.Context, key string, ttl, wait time.Duration, fn func(context.Context) error) error
}

// DraftOptions configures expiry and lease timing.
type DraftOptions struct {
	TTL       time.Duration
	LeaseTTL  time.Duration
	LeaseWait time.Duration
}

// RedisDraftStore keeps one JSON document per draft, keyed by seller so a
// seller can never read another seller's draft.
type RedisDraftStore struct {
	client draftRedis
	opts   DraftOptions
}

func NewRedisDraftStore(client draftRedis, opts DraftOptions) (*RedisDraftStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if opts.TTL <= 0 || opts.LeaseTTL <= 0 {
		return nil, errors.New("draft ttl and lease ttl must be positive")
	}
	return &RedisDraftStore{client: client, opts: opts}, nil
}

func (s *RedisDraftStore) Load(ctx context.Context, sellerID, draftID uuid.UUID) (*Draft, error) {
	raw, err := s.client.Get(ctx, s.client.DraftKey(sellerID.String(), draftID.String()))
	if errors.Is(err, redis.Nil) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if draft.Bundle.Items == nil {
		draft.Bundle.Items = ItemSet{}
	}
	return &draft, nil
}

// Save writes the draft and restarts its TTL.
func (s *RedisDraftStore) Save(ctx context.Context, draft *Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	key := s.client.DraftKey(draft.SellerID.String(), draft.ID.String())
	if err := s.client.Set(ctx, key, payload, s.opts.TTL); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, sellerID, draftID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.DraftKey(sellerID.String(), draftID.String())); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) WithLease(ctx context.Context, draftID uuid.UUID, fn func(context.Context) error) error {
	err := s.client.WithLease(ctx, s.client.DraftLeaseKey(draftID.String()), s.opts.LeaseTTL, s.opts.LeaseWait, fn)
	if errors.Is(err, redis.ErrLeaseHeld) {
		return ErrDraftBusy
	}
	return err
}
