package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
	"github.com/unveil/mediaquiz/internal/event"
)

const (
	storageKey        = "unveil-storage"
	defaultMaxRetries = 5
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string

	// MaxRetries bounds the optimistic retries of Update when the key changes under it.
	MaxRetries int
}

// Store persists the dashboard preferences of each owner in Redis.
type Store struct {
	eb         *event.Bus
	redis      redis.UniversalClient
	prefix     string
	maxRetries int
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// envelope is the stored value. Version is always 0.
type envelope struct {
	State   domain.GlobalState `json:"state"`
	Version int                `json:"version"`
}

func New(c Config) *Store {
	s := &Store{
		eb:         c.EventBus,
		redis:      c.Redis,
		prefix:     c.Prefix,
		maxRetries: c.MaxRetries,
	}

	if s.maxRetries <= 0 {
		s.maxRetries = defaultMaxRetries
	}

	return s
}

// Get returns the preferences of owner, or the defaults when nothing was stored yet.
func (s *Store) Get(ctx context.Context, owner string) (*domain.GlobalState, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	state, err := s.get(ctx, s.redis, owner)
	if err != nil {
		return nil, err
	}

	return state, nil
}

// Set replaces the preferences of owner.
func (s *Store) Set(ctx context.Context, owner string, state domain.GlobalState) error {
	if err := validateOwner(owner); err != nil {
		return err
	}

	b, err := encode(state)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(owner), b, 0).Err(); err != nil {
		return fmt.Errorf("set preferences: owner=%s: %w", owner, err)
	}

	s.publish(ctx, owner, state)
	return nil
}

// Update applies fn to the current preferences of owner and stores the result.
// The read-modify-write is retried when another writer changes the key in between.
func (s *Store) Update(ctx context.Context, owner string, fn func(state *domain.GlobalState) error) (*domain.GlobalState, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	key := s.key(owner)

	var updated *domain.GlobalState
	txf := func(tx *redis.Tx) error {
		state, err := s.get(ctx, tx, owner)
		if err != nil {
			return err
		}

		if err := fn(state); err != nil {
			return err
		}

		b, err := encode(*state)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = state
		return nil
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if err == nil {
			s.publish(ctx, owner, *updated)
			return updated, nil
		}
		if stderrors.Is(err, redis.TxFailedErr) {
			slog.DebugContext(ctx, "store: optimistic lock failed, retrying", "owner", owner, "attempt", i+1)
			continue
		}

		return nil, err
	}

	return nil, errors.New(errors.CodeInternal,
		errors.WithMessagef("update preferences: owner=%s: too many concurrent writers", owner),
	)
}

// Subscribe registers fn to be called after every successful write.
func (s *Store) Subscribe(fn func(ctx context.Context, owner string, state domain.GlobalState) error) (unsubscribe func()) {
	return s.eb.Subscribe(domain.EventNamePreferencesUpdated, func(ctx context.Context, e event.Event) error {
		ev := e.(domain.EventPreferencesUpdated)
		return fn(ctx, ev.Owner, ev.State)
	})
}

func (s *Store) get(ctx context.Context, c getter, owner string) (*domain.GlobalState, error) {
	b, err := c.Get(ctx, s.key(owner)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		state := domain.DefaultGlobalState()
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: owner=%s: %w", owner, err)
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode preferences: owner=%s: %w", owner, err)
	}

	return &env.State, nil
}

func (s *Store) publish(ctx context.Context, owner string, state domain.GlobalState) {
	s.eb.Publish(ctx, domain.EventPreferencesUpdated{
		Owner: owner,
		State: state,
	})
}

func (s *Store) key(owner string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, storageKey, owner)
}

func encode(state domain.GlobalState) ([]byte, error) {
	b, err := json.Marshal(envelope{State: state})
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return b, nil
}

func validateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return errors.InvalidArgument("owner must not be empty")
	}
	return nil
}
