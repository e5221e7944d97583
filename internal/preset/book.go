package preset

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Book is the in-memory preset collection backed by a Store. It is safe for
// use by the console and a Watcher at the same time.
type Book struct {
	store  Store
	logger *zap.Logger

	mu      sync.RWMutex
	records Records
}

// NewBook returns an empty book; call Reload to read the store.
func NewBook(store Store, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{store: store, logger: logger, records: Records{}}
}

// Reload replaces the book with the store's content. A store that fails to
// load but still returns records (empty, for a corrupt file) replaces the
// book too; the error is only reported.
func (b *Book) Reload() error {
	rs, err := b.store.Load()
	if err != nil {
		b.logger.Warn("failed to load presets", zap.Error(err))
		if rs != nil {
			b.mu.Lock()
			b.records = rs
			b.mu.Unlock()
		}
		return err
	}
	b.mu.Lock()
	b.records = rs
	b.mu.Unlock()
	b.logger.Debug("presets loaded", zap.Int("count", len(rs)))
	return nil
}

// Names returns the preset names in sorted order.
func (b *Book) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.records))
	for n := range b.records {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len is the number of presets.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Get returns the named record.
func (b *Book) Get(name string) (Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.records[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r, nil
}

// Put saves r under name, replacing any existing preset. If the store
// rejects the write the book is unchanged.
func (b *Book) Put(name string, r Record) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return b.update(func(rs Records) { rs[name] = r })
}

// Delete removes the named preset.
func (b *Book) Delete(name string) error {
	if _, err := b.Get(name); err != nil {
		return err
	}
	return b.update(func(rs Records) { delete(rs, name) })
}

func (b *Book) update(mutate func(Records)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.records.clone()
	mutate(next)
	if err := b.store.Save(next); err != nil {
		return err
	}
	b.records = next
	return nil
}
