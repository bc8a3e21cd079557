package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"
)

// DocumentStore reads and writes whole collections as JSON documents.
// Load returns constants.ErrCollectionMissing when nothing was ever saved
// under name.
type DocumentStore interface {
	Load(ctx context.Context, name constants.CollectionName) ([]byte, error)
	Save(ctx context.Context, name constants.CollectionName, data []byte) error
	Ping(ctx context.Context) error
	Backend() string
}

// Collections serializes every read-modify-write cycle on a collection behind
// a per-collection mutex, so concurrent requests in this process cannot lose
// each other's updates.
type Collections struct {
	store          DocumentStore
	missingAsEmpty bool
	metrics        *metrics.MetricsRegistry

	mu    sync.Mutex
	locks map[constants.CollectionName]*sync.Mutex
}

// NewCollections wraps store. With missingAsEmpty set, a collection that was
// never written reads as empty instead of failing.
func NewCollections(store DocumentStore, missingAsEmpty bool, m *metrics.MetricsRegistry) *Collections {
	return &Collections{
		store:          store,
		missingAsEmpty: missingAsEmpty,
		metrics:        m,
		locks:          make(map[constants.CollectionName]*sync.Mutex),
	}
}

func (c *Collections) Store() DocumentStore { return c.store }

func (c *Collections) lockFor(name constants.CollectionName) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[name]
	if !ok {
		l = &sync.Mutex{}
		c.locks[name] = l
	}
	return l
}

// lock acquires the named collection locks in a fixed order and returns the
// matching unlock.
func (c *Collections) lock(names ...constants.CollectionName) func() {
	sorted := append([]constants.CollectionName(nil), names...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	held := make([]*sync.Mutex, 0, len(sorted))
	for i, name := range sorted {
		if i > 0 && sorted[i-1] == name {
			continue
		}
		l := c.lockFor(name)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Raw returns the stored document for name, for backups.
func (c *Collections) Raw(ctx context.Context, name constants.CollectionName) ([]byte, error) {
	unlock := c.lock(name)
	defer unlock()
	return c.store.Load(ctx, name)
}

func load[T any](ctx context.Context, c *Collections, name constants.CollectionName, forWrite bool) ([]T, error) {
	started := time.Now()
	data, err := c.store.Load(ctx, name)
	c.metrics.ObserveStorage(string(name), "read", started, ignoreMissing(err))

	if errors.Is(err, constants.ErrCollectionMissing) {
		if c.missingAsEmpty {
			return []T{}, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		// A corrupt document is never rewritten from an empty slice.
		if !forWrite && c.missingAsEmpty {
			logging.Warn("Unreadable collection treated as empty", "collection", name, "error", err.Error())
			return []T{}, nil
		}
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func save[T any](ctx context.Context, c *Collections, name constants.CollectionName, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	started := time.Now()
	err = c.store.Save(ctx, name, data)
	c.metrics.ObserveStorage(string(name), "write", started, err)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func ignoreMissing(err error) error {
	if errors.Is(err, constants.ErrCollectionMissing) {
		return nil
	}
	return err
}

// Read returns a snapshot of the named collection.
func Read[T any](ctx context.Context, c *Collections, name constants.CollectionName) ([]T, error) {
	unlock := c.lock(name)
	defer unlock()
	return load[T](ctx, c, name, false)
}

// Mutate runs one read-modify-write cycle on the named collection. When fn
// returns an error nothing is written.
func Mutate[T any](ctx context.Context, c *Collections, name constants.CollectionName, fn func([]T) ([]T, error)) error {
	unlock := c.lock(name)
	defer unlock()

	items, err := load[T](ctx, c, name, true)
	if err != nil {
		return err
	}
	out, err := fn(items)
	if err != nil {
		return err
	}
	return save(ctx, c, name, out)
}

// MutatePair runs a read-modify-write over two collections holding both
// locks. The second collection is written first, then the first. The two
// writes are not atomic.
func MutatePair[A, B any](
	ctx context.Context,
	c *Collections,
	first, second constants.CollectionName,
	fn func([]A, []B) ([]A, []B, error),
) error {
	unlock := c.lock(first, second)
	defer unlock()

	a, err := load[A](ctx, c, first, true)
	if err != nil {
		return err
	}
	b, err := load[B](ctx, c, second, true)
	if err != nil {
		return err
	}

	outA, outB, err := fn(a, b)
	if err != nil {
		return err
	}
	if err := save(ctx, c, second, outB); err != nil {
		return err
	}
	return save(ctx, c, first, outA)
}
