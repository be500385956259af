package pg

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionguard/core/session"
)

// changeChannel is the single LISTEN/NOTIFY channel for all accounts; the
// notification payload carries the account so subscribers filter client-side.
const changeChannel = "session_records_changed"

var _ session.RecordStore = (*Store)(nil)

// Store is a PostgreSQL-backed session.RecordStore. One row per account holds
// the authoritative session id; merges are single upserts, and every merge
// emits a pg_notify so other devices observe a new login without polling.
type Store struct {
	pool *pgxpool.Pool
	// connString is used to open dedicated listener connections, which cannot
	// come from the pool: LISTEN binds to a physical connection.
	connString string
}

// NewStore creates a record store over an already connected pool.
func NewStore(pool *pgxpool.Pool, cfg Config) *Store {
	return &Store{pool: pool, connString: cfg.ConnectionString}
}

// querier is satisfied by both the pool and pgx.Tx, so store operations can
// join a caller's transaction installed via WithTx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

// Get returns the record for the account, or session.ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, accountID string) (session.Record, error) {
	if accountID == "" {
		return session.Record{}, session.ErrMissingAccountID
	}

	var (
		rec             session.Record
		lastActivity    *time.Time
		deviceCreatedAt *time.Time
	)
	err := s.q(ctx).QueryRow(ctx, `
		SELECT account_id, current_session_id, last_activity, user_agent, device_created_at
		FROM session_records
		WHERE account_id = $1`,
		accountID,
	).Scan(&rec.AccountID, &rec.CurrentSessionID, &lastActivity, &rec.DeviceInfo.UserAgent, &deviceCreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return session.Record{}, session.ErrRecordNotFound
	case err != nil:
		return session.Record{}, err
	}

	if lastActivity != nil {
		rec.LastActivity = *lastActivity
	}
	if deviceCreatedAt != nil {
		rec.DeviceInfo.CreatedAt = *deviceCreatedAt
	}
	return rec, nil
}

// Merge applies the patch as a single upsert with last-writer-wins semantics
// and notifies subscribers with the merged row. Nil patch fields map to NULL
// parameters that COALESCE away, so concurrent touches and logins never
// clobber each other's unrelated fields.
func (s *Store) Merge(ctx context.Context, accountID string, patch session.Patch) error {
	if accountID == "" {
		return session.ErrMissingAccountID
	}

	var (
		userAgent       *string
		deviceCreatedAt *time.Time
	)
	if patch.DeviceInfo != nil {
		userAgent = &patch.DeviceInfo.UserAgent
		if !patch.DeviceInfo.CreatedAt.IsZero() {
			deviceCreatedAt = &patch.DeviceInfo.CreatedAt
		}
	}

	var (
		rec          session.Record
		lastActivity *time.Time
		createdAt    *time.Time
	)
	err := s.q(ctx).QueryRow(ctx, `
		INSERT INTO session_records (account_id, current_session_id, last_activity, user_agent, device_created_at, updated_at)
		VALUES ($1, COALESCE($2, ''), $3, COALESCE($4, ''), $5, now())
		ON CONFLICT (account_id) DO UPDATE SET
			current_session_id = COALESCE($2, session_records.current_session_id),
			last_activity      = COALESCE($3, session_records.last_activity),
			user_agent         = COALESCE($4, session_records.user_agent),
			device_created_at  = COALESCE($5, session_records.device_created_at),
			updated_at         = now()
		RETURNING account_id, current_session_id, last_activity, user_agent, device_created_at`,
		accountID, patch.CurrentSessionID, patch.LastActivity, userAgent, deviceCreatedAt,
	).Scan(&rec.AccountID, &rec.CurrentSessionID, &lastActivity, &rec.DeviceInfo.UserAgent, &createdAt)
	if err != nil {
		return err
	}

	if lastActivity != nil {
		rec.LastActivity = *lastActivity
	}
	if createdAt != nil {
		rec.DeviceInfo.CreatedAt = *createdAt
	}

	// Notify after the write; a failed notify is not a failed merge, the
	// subscribers' periodic re-read covers it.
	if payload, err := json.Marshal(rec); err == nil {
		_, _ = s.q(ctx).Exec(ctx, `SELECT pg_notify($1, $2)`, changeChannel, string(payload))
	}
	return nil
}

type pgSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *pgSubscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// Subscribe opens a dedicated listener connection and delivers every change
// for the given account until the subscription is closed. Changes for other
// accounts on the shared channel are filtered out. Decode failures go to
// onErr and the listener keeps running; a wait error is reported to onErr
// and ends the subscription, leaving divergence detection to the consumer's
// periodic record reads.
func (s *Store) Subscribe(ctx context.Context, accountID string, onChange func(session.Record), onErr func(error)) (session.Subscription, error) {
	if accountID == "" {
		return nil, session.ErrMissingAccountID
	}

	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	sub := &pgSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			_ = conn.Close(closeCtx)
		}()

		for {
			note, err := conn.WaitForNotification(listenCtx)
			if err != nil {
				if listenCtx.Err() != nil {
					return
				}
				if onErr != nil {
					onErr(err)
				}
				return
			}

			var rec session.Record
			if err := json.Unmarshal([]byte(note.Payload), &rec); err != nil {
				if onErr != nil {
					onErr(errors.Join(ErrDecodePayload, err))
				}
				continue
			}
			if rec.AccountID != accountID {
				continue
			}
			if onChange != nil {
				onChange(rec)
			}
		}
	}()

	return sub, nil
}
