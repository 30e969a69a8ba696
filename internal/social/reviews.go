package social

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/kalambet/atelier/internal/storage"
)

// ReviewStore keeps gallery-wide reviews as one sequence in the local store.
type ReviewStore struct {
	seq   sequence[Review]
	clock Clock
}

func NewReviewStore(kv storage.KV) *ReviewStore {
	return NewReviewStoreWithClock(kv, realClock{})
}

func NewReviewStoreWithClock(kv storage.KV, clock Clock) *ReviewStore {
	return &ReviewStore{
		seq:   sequence[Review]{kv: kv, key: ReviewsKey, logger: slog.Default()},
		clock: clock,
	}
}

// All returns every persisted review in stored order.
func (s *ReviewStore) All() []Review {
	items := s.seq.load()
	if items == nil {
		return []Review{}
	}
	return items
}

// List returns all reviews, newest first.
func (s *ReviewStore) List() []Review {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (s *ReviewStore) Add(_ context.Context, in ReviewInput) (Review, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Review{}, err
	}

	r := Review{
		ID:     uuid.New().String(),
		Name:   in.Name,
		Rating: in.Rating,
		Text:   in.Text,
		Date:   s.clock.Now().UTC(),
	}
	if err := s.seq.appendOne(r); err != nil {
		return Review{}, err
	}
	return r, nil
}

// Average is the arithmetic mean of all persisted ratings. Zero reviews
// yield a zero mean, not NaN.
func (s *ReviewStore) Average() Summary {
	return summarize(s.seq.load())
}

func summarize(reviews []Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	mean := float64(total) / float64(len(reviews))

	// Imported records are not re-validated, so keep the indicator in range.
	stars := int(math.Round(mean))
	stars = max(MinRating, min(stars, MaxRating))

	return Summary{
		Mean:  mean,
		Count: len(reviews),
		Stars: stars,
	}
}
