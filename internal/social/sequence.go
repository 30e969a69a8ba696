package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/atelier/internal/storage"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// sequence is one JSON array persisted whole under a single key. Every
// mutation rewrites the entire array.
type sequence[T any] struct {
	kv     storage.KV
	key    string
	logger *slog.Logger
}

// load returns the persisted records. A missing key is an empty sequence;
// a read or decode failure is logged and also treated as empty.
func (s sequence[T]) load() []T {
	raw, err := s.kv.Get(s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("reading local store", "key", s.key, "error", err)
		return nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Error("decoding local store value", "key", s.key, "error", err)
		return nil
	}
	return items
}

func (s sequence[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.key, err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		s.logger.Error("writing local store", "key", s.key, "error", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s sequence[T]) appendOne(item T) error {
	items := s.load()
	items = append(items, item)
	return s.save(items)
}
