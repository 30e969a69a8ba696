package social

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/kalambet/atelier/internal/storage"
)

// CommentStore keeps all comments as one sequence in the local store.
type CommentStore struct {
	seq   sequence[Comment]
	clock Clock
}

// NewCommentStore creates a CommentStore over kv.
func NewCommentStore(kv storage.KV) *CommentStore {
	return NewCommentStoreWithClock(kv, realClock{})
}

// NewCommentStoreWithClock creates a CommentStore with a custom clock (for testing).
func NewCommentStoreWithClock(kv storage.KV, clock Clock) *CommentStore {
	return &CommentStore{
		seq:   sequence[Comment]{kv: kv, key: CommentsKey, logger: slog.Default()},
		clock: clock,
	}
}

// All returns every persisted comment in stored order.
func (s *CommentStore) All() []Comment {
	items := s.seq.load()
	if items == nil {
		return []Comment{}
	}
	return items
}

// ListFor returns the comments for one artwork, newest first.
func (s *CommentStore) ListFor(artworkID string) []Comment {
	out := []Comment{}
	for _, c := range s.seq.load() {
		if c.ArtworkID == artworkID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Count returns the number of comments for one artwork.
func (s *CommentStore) Count(artworkID string) int {
	n := 0
	for _, c := range s.seq.load() {
		if c.ArtworkID == artworkID {
			n++
		}
	}
	return n
}

// Add validates the form, stamps a fresh id and time, and persists the
// whole comment sequence.
func (s *CommentStore) Add(_ context.Context, in CommentInput) (Comment, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Comment{}, err
	}

	c := Comment{
		ID:        uuid.New().String(),
		ArtworkID: in.ArtworkID,
		Name:      in.Name,
		Email:     in.Email,
		Text:      in.Text,
		Date:      s.clock.Now().UTC(),
	}
	if err := s.seq.appendOne(c); err != nil {
		return Comment{}, err
	}
	return c, nil
}
