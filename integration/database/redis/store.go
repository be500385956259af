package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionguard/core/session"
)

// txRetries bounds optimistic-lock retries when concurrent merges collide.
const txRetries = 3

var _ session.RecordStore = (*Store)(nil)

// Store is a Redis-backed session.RecordStore. Records are stored as JSON
// under <prefix>:record:<accountID>; every merge publishes the updated record
// on <prefix>:changed:<accountID> so other devices observe a new login
// immediately instead of waiting for their next timer tick.
//
// Writes are last-writer-wins: a login merge from one device unconditionally
// overwrites the authoritative session id, superseding all others.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore creates a record store over an already connected client.
func NewStore(client *redis.Client, cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "sessionguard"
	}
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    cfg.RecordTTL,
	}
}

func (s *Store) recordKey(accountID string) string {
	return s.prefix + ":record:" + accountID
}

func (s *Store) changeChannel(accountID string) string {
	return s.prefix + ":changed:" + accountID
}

// Get returns the record for the account, or session.ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, accountID string) (session.Record, error) {
	if accountID == "" {
		return session.Record{}, session.ErrMissingAccountID
	}

	payload, err := s.client.Get(ctx, s.recordKey(accountID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return session.Record{}, session.ErrRecordNotFound
	case err != nil:
		return session.Record{}, err
	}

	var rec session.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return session.Record{}, errors.Join(ErrDecodeRecord, err)
	}
	return rec, nil
}

// Merge applies the patch to the stored record, creating it when absent, and
// publishes the result on the account's change channel. The read-modify-write
// is guarded by WATCH so two devices merging concurrently never lose fields
// to each other; on collision the loser re-reads and reapplies.
func (s *Store) Merge(ctx context.Context, accountID string, patch session.Patch) error {
	if accountID == "" {
		return session.ErrMissingAccountID
	}

	key := s.recordKey(accountID)
	var merged session.Record

	apply := func(tx *redis.Tx) error {
		rec := session.Record{AccountID: accountID}
		payload, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// First write for this account.
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(payload, &rec); err != nil {
				return errors.Join(ErrDecodeRecord, err)
			}
		}

		merged = patch.Apply(rec)
		merged.AccountID = accountID

		out, err := json.Marshal(merged)
		if err != nil {
			return errors.Join(ErrEncodeRecord, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < txRetries; i++ {
		err = s.client.Watch(ctx, apply, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return err
	}

	// Publish after the write commits so subscribers only ever see persisted
	// state. Publish failures are not merge failures.
	out, err := json.Marshal(merged)
	if err != nil {
		return nil
	}
	s.client.Publish(ctx, s.changeChannel(accountID), out)
	return nil
}

// Subscribe delivers every subsequent record change for the account until the
// returned subscription is closed. Decode failures go to onErr; the
// subscription itself stays alive.
func (s *Store) Subscribe(ctx context.Context, accountID string, onChange func(session.Record), onErr func(error)) (session.Subscription, error) {
	if accountID == "" {
		return nil, session.ErrMissingAccountID
	}

	pubsub := s.client.Subscribe(ctx, s.changeChannel(accountID))

	// Confirm the subscription before returning so no change published after
	// Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	go func() {
		for msg := range pubsub.Channel() {
			var rec session.Record
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				if onErr != nil {
					onErr(errors.Join(ErrDecodeRecord, err))
				}
				continue
			}
			if onChange != nil {
				onChange(rec)
			}
		}
	}()

	return &redisSubscription{pubsub: pubsub}, nil
}

// redisSubscription guards PubSub.Close, which errors when called twice,
// behind the once-only close the session.Subscription contract requires.
type redisSubscription struct {
	pubsub *redis.PubSub
	once   sync.Once
	err    error
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() { s.err = s.pubsub.Close() })
	return s.err
}
