package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/zoobzio/formz"
)

// ErrDraftNotFound is returned when no draft is stored under an id.
var ErrDraftNotFound = errors.New("draft not found")

// farFuture scores drafts without a TTL in the index.
const farFuture = 4102444800 // 2100-01-01

// DraftStore persists the raw values of partially filled forms so a user
// can pick up where they left off. Drafts are stored as JSON and indexed in
// a sorted set scored by expiry.
type DraftStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a DraftStore.
type Option func(*DraftStore)

// WithTTL sets the expiration for drafts. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *DraftStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for drafts.
func WithPrefix(prefix string) Option {
	return func(s *DraftStore) {
		s.prefix = prefix
	}
}

// New creates a DraftStore connected to address.
func New(address, password string, db int, opts ...Option) *DraftStore {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a DraftStore from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *DraftStore {
	s := &DraftStore{
		client: client,
		prefix: "formz:draft:",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DraftStore) key(id string) string {
	return s.prefix + id
}

func (s *DraftStore) indexKey() string {
	return s.prefix + "index"
}

// Save stores the raw value of c, disabled children included, under id.
func (s *DraftStore) Save(ctx context.Context, id string, c formz.Control) error {
	data, err := json.Marshal(c.RawValue())
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	score := float64(s.now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(id), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Load returns the stored value for id as decoded JSON: maps for groups,
// slices for arrays.
func (s *DraftStore) Load(ctx context.Context, id string) (any, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %q", ErrDraftNotFound, id)
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var value any
	if err := json.Unmarshal(val, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return value, nil
}

// Restore patches the draft stored under id into c. Entries for controls c
// no longer has are ignored, so a draft survives changes to the form.
func (s *DraftStore) Restore(ctx context.Context, id string, c formz.Control) error {
	value, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := c.PatchValue(value); err != nil {
		return fmt.Errorf("failed to restore draft: %w", err)
	}
	return nil
}

// Delete removes the draft.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// List returns the ids of drafts that have not expired, pruning expired
// entries from the index.
func (s *DraftStore) List(ctx context.Context) ([]string, error) {
	now := float64(s.now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired drafts: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *DraftStore) Close() error {
	return s.client.Close()
}
