// internal/favorites/store.go
package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"nutriscan/internal/logging"
)

// DefaultKey is the key the favorites array is persisted under.
const DefaultKey = "favsList"

var (
	ErrStorage   = errors.New("favorites storage failure")
	ErrClosed    = errors.New("favorites store is closed")
	ErrInvalidID = errors.New("invalid product id")
)

// KV is the persistence medium. Get reports false when key was never written.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithOpTimeout bounds every persistence call made on behalf of one operation.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) { s.opTimeout = d }
}

func WithLogger(entry *logrus.Entry) Option {
	return func(s *Store) { s.log = entry }
}

type opKind int

const (
	opToggle opKind = iota
	opIsFavorite
	opList
)

type result struct {
	favorite bool
	ids      []string
	err      error
}

type request struct {
	kind  opKind
	id    string
	reply chan result
}

// Store owns the persisted favorites set. Every operation is handed to a
// single goroutine which applies it to the medium before taking the next one,
// so read-modify-write cycles never interleave.
type Store struct {
	kv        KV
	key       string
	opTimeout time.Duration
	log       *logrus.Entry

	requests  chan request
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		key:      DefaultKey,
		log:      logging.Component("favorites"),
		requests: make(chan request),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Toggle flips membership of id and returns the new state.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	id, err := normalizeID(id)
	if err != nil {
		return false, err
	}
	res, err := s.do(ctx, request{kind: opToggle, id: id})
	if err != nil {
		return false, err
	}
	return res.favorite, res.err
}

func (s *Store) IsFavorite(ctx context.Context, id string) (bool, error) {
	id, err := normalizeID(id)
	if err != nil {
		return false, err
	}
	res, err := s.do(ctx, request{kind: opIsFavorite, id: id})
	if err != nil {
		return false, err
	}
	return res.favorite, res.err
}

// List returns the favorite ids in insertion order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	res, err := s.do(ctx, request{kind: opList})
	if err != nil {
		return nil, err
	}
	return res.ids, res.err
}

// Close stops the owner goroutine once the operation in flight is done.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.stopped
	return nil
}

// do hands req to the owner goroutine. ctx bounds only the wait: once the
// request is accepted it runs to completion even if the caller leaves.
func (s *Store) do(ctx context.Context, req request) (result, error) {
	req.reply = make(chan result, 1)
	select {
	case s.requests <- req:
	case <-s.quit:
		return result{}, ErrClosed
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (s *Store) run() {
	defer close(s.stopped)
	for {
		select {
		case req := <-s.requests:
			req.reply <- s.apply(req)
		case <-s.quit:
			return
		}
	}
}

func (s *Store) apply(req request) result {
	ctx := context.Background()
	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}

	set, err := s.load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to load favorites")
		return result{err: err}
	}

	switch req.kind {
	case opIsFavorite:
		return result{favorite: set.Has(req.id)}
	case opList:
		return result{ids: set.IDs()}
	case opToggle:
		next := set.Toggled(req.id)
		if err := s.save(ctx, next); err != nil {
			s.log.WithError(err).WithField("product_id", req.id).Warn("failed to persist favorite toggle")
			return result{err: err}
		}
		favorite := next.Has(req.id)
		s.log.WithFields(logrus.Fields{"product_id": req.id, "favorite": favorite}).Debug("favorite toggled")
		return result{favorite: favorite}
	default:
		return result{err: fmt.Errorf("unknown favorites operation %d", req.kind)}
	}
}

// load reads the persisted set, creating it empty on first use.
func (s *Store) load(ctx context.Context) (Set, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return Set{}, fmt.Errorf("%w: read %s: %w", ErrStorage, s.key, err)
	}
	if !ok {
		empty := Set{}
		if err := s.save(ctx, empty); err != nil {
			return Set{}, err
		}
		return empty, nil
	}
	set, err := Decode(raw)
	if err != nil {
		return Set{}, fmt.Errorf("%w: decode %s: %w", ErrStorage, s.key, err)
	}
	return set, nil
}

func (s *Store) save(ctx context.Context, set Set) error {
	raw, err := set.Encode()
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrStorage, s.key, err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStorage, s.key, err)
	}
	return nil
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidID
	}
	return id, nil
}
