// Package docstore keeps hubs as JSON documents in an embedded BadgerDB.
//
// Layout:
//
//	hub/<hubId>      JSON hub document
//	hubname/<name>   hubId owning the name
//
// Every mutation that touches more than one key runs inside a single Badger
// transaction. Badger transactions are serializable; a commit that raced with
// another writer fails with badger.ErrConflict and is retried from scratch.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/vanshika/hubnet/internal/domain"
)

const (
	hubPrefix       = "hub/"
	namePrefix      = "hubname/"
	defaultRetries  = 5
	retryBackoffMin = 2 * time.Millisecond
	retryBackoffMax = 100 * time.Millisecond
)

// errUnchanged aborts an Update that has nothing to write.
var errUnchanged = errors.New("no change")

// Options configures Open.
type Options struct {
	Path       string
	InMemory   bool
	MaxRetries int
	Logger     *slog.Logger
}

// Store is a hub store backed by BadgerDB.
type Store struct {
	db         *badger.DB
	maxRetries int
	logger     *slog.Logger
	nowFn      func() time.Time
}

// hubDocument is the persisted form of a hub.
type hubDocument struct {
	ID          string    `json:"hubId"`
	Name        string    `json:"name"`
	Connections []string  `json:"connections"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Open opens (or creates) the database at opts.Path, or an in-memory one.
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("docstore: path is required unless running in memory")
	}

	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(badgerLogger{logger: logger.With("component", "badger")}).
		WithNumVersionsToKeep(1)
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}

	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultRetries
	}
	return &Store{db: db, maxRetries: retries, logger: logger, nowFn: time.Now}, nil
}

// WithClock overrides the time provider (used primarily in tests).
func (s *Store) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Probe reports whether the database is still open.
func (s *Store) Probe(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("docstore: database closed")
	}
	return nil
}

// Close flushes and closes the database.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// CreateHub inserts a hub with no connections. The id and name index keys are
// checked and written in the same transaction.
func (s *Store) CreateHub(ctx context.Context, hub domain.Hub) (domain.Hub, error) {
	if hub.ID == "" || hub.Name == "" {
		return domain.Hub{}, fmt.Errorf("%w: hub id and name are required", domain.ErrInvalidInput)
	}
	if hub.CreatedAt.IsZero() {
		hub.CreatedAt = s.nowFn().UTC()
	}
	if hub.UpdatedAt.IsZero() {
		hub.UpdatedAt = hub.CreatedAt
	}
	hub.Connections = []string{}

	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(hubKey(hub.ID)); err == nil {
			return domain.ErrDuplicateID
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if _, err := txn.Get(nameKey(hub.Name)); err == nil {
			return domain.ErrDuplicateName
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := putHub(txn, hub); err != nil {
			return err
		}
		return txn.Set(nameKey(hub.Name), []byte(hub.ID))
	})
	if err != nil {
		return domain.Hub{}, s.wrap(err, "create hub %s", hub.ID)
	}
	return hub, nil
}

// GetHub returns a single hub by id.
func (s *Store) GetHub(ctx context.Context, id string) (domain.Hub, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hub{}, err
	}
	var hub domain.Hub
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		hub, err = getHub(txn, id)
		return err
	})
	if err != nil {
		return domain.Hub{}, s.wrap(err, "get hub %s", id)
	}
	return hub, nil
}

// ListHubs returns every hub ordered by id. Keys iterate in byte order, which
// is the id order since all hub keys share the same prefix.
func (s *Store) ListHubs(ctx context.Context) ([]domain.Hub, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hubs := []domain.Hub{}
	prefix := []byte(hubPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			hub, err := decodeHub(raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			hubs = append(hubs, hub)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list hubs: %w", err)
	}
	return hubs, nil
}

// Connect adds b to a's connections and a to b's atomically.
func (s *Store) Connect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	if a == b {
		return domain.Hub{}, domain.Hub{}, domain.ErrSelfLoop
	}
	return s.mutateEdge(ctx, a, b, func(ha, hb *domain.Hub) (bool, error) {
		if ha.IsConnected(b) {
			return false, domain.ErrAlreadyConnected
		}
		ha.Connections = append(ha.Connections, b)
		if !hb.IsConnected(a) {
			hb.Connections = append(hb.Connections, a)
		}
		return true, nil
	})
}

// Disconnect removes the edge in both directions. A missing edge is a no-op.
func (s *Store) Disconnect(ctx context.Context, a, b string) (domain.Hub, domain.Hub, error) {
	if a == b {
		hub, err := s.GetHub(ctx, a)
		return hub, hub, err
	}
	return s.mutateEdge(ctx, a, b, func(ha, hb *domain.Hub) (bool, error) {
		if !ha.IsConnected(b) && !hb.IsConnected(a) {
			return false, nil
		}
		ha.Connections = without(ha.Connections, b)
		hb.Connections = without(hb.Connections, a)
		return true, nil
	})
}

func (s *Store) mutateEdge(ctx context.Context, a, b string, apply func(ha, hb *domain.Hub) (bool, error)) (domain.Hub, domain.Hub, error) {
	var ha, hb domain.Hub
	err := s.update(ctx, func(txn *badger.Txn) error {
		var missing []string
		var err error
		if ha, err = getHub(txn, a); err != nil {
			if !errors.Is(err, domain.ErrNodeNotFound) {
				return err
			}
			missing = append(missing, a)
		}
		if hb, err = getHub(txn, b); err != nil {
			if !errors.Is(err, domain.ErrNodeNotFound) {
				return err
			}
			missing = append(missing, b)
		}
		if len(missing) > 0 {
			return domain.NewNodeNotFoundError(missing...)
		}

		changed, err := apply(&ha, &hb)
		if err != nil {
			return err
		}
		if !changed {
			return errUnchanged
		}

		now := s.nowFn().UTC()
		ha.UpdatedAt, hb.UpdatedAt = now, now
		if err := putHub(txn, ha); err != nil {
			return err
		}
		return putHub(txn, hb)
	})
	if errors.Is(err, errUnchanged) {
		return ha, hb, nil
	}
	if err != nil {
		return domain.Hub{}, domain.Hub{}, s.wrap(err, "update edge %s-%s", a, b)
	}
	return ha, hb, nil
}

// update runs fn in a read-write transaction, re-running it from the start
// when the commit loses a conflict.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	backoff := retryBackoffMin
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("transaction conflict, retrying", "attempt", attempt)
		select {
		case <-time.After(backoff + rand.N(backoff)):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = min(backoff*2, retryBackoffMax)
	}
	return fmt.Errorf("gave up after %d attempts: %w", s.maxRetries, err)
}

// wrap leaves domain errors untouched so callers can match them directly.
func (s *Store) wrap(err error, format string, args ...any) error {
	switch {
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrSelfLoop),
		errors.Is(err, domain.ErrAlreadyConnected),
		errors.Is(err, domain.ErrDuplicateID),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func getHub(txn *badger.Txn, id string) (domain.Hub, error) {
	item, err := txn.Get(hubKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Hub{}, domain.NewNodeNotFoundError(id)
	}
	if err != nil {
		return domain.Hub{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Hub{}, err
	}
	return decodeHub(raw)
}

func putHub(txn *badger.Txn, hub domain.Hub) error {
	raw, err := json.Marshal(hubDocument{
		ID:          hub.ID,
		Name:        hub.Name,
		Connections: hub.Connections,
		CreatedAt:   hub.CreatedAt,
		UpdatedAt:   hub.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode hub %s: %w", hub.ID, err)
	}
	return txn.Set(hubKey(hub.ID), raw)
}

func decodeHub(raw []byte) (domain.Hub, error) {
	var doc hubDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Hub{}, err
	}
	if doc.Connections == nil {
		doc.Connections = []string{}
	}
	return domain.Hub{
		ID:          doc.ID,
		Name:        doc.Name,
		Connections: doc.Connections,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func hubKey(id string) []byte    { return []byte(hubPrefix + id) }
func nameKey(name string) []byte { return []byte(namePrefix + name) }

func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
