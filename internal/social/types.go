package social

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Fixed keys in the local store.
const (
	CommentsKey = "gallery.comments"
	ReviewsKey  = "gallery.reviews"
)

const (
	MinRating = 1
	MaxRating = 5

	maxNameLength = 100
	maxTextLength = 2000
)

// ErrPersist is returned when a mutation could not be written to the local store.
var ErrPersist = errors.New("could not save to local store")

// Comment is a visitor note attached to one artwork. ArtworkID is not
// checked against the catalog; comments for removed artworks are kept.
type Comment struct {
	ID        string    `json:"id"`
	ArtworkID string    `json:"artworkId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Text      string    `json:"text"`
	Date      time.Time `json:"date"`
}

// Review is a gallery-wide rating with a short text.
type Review struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Rating int       `json:"rating"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}

// Summary is the aggregate over all persisted reviews.
type Summary struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
	Stars int     `json:"stars"`
}

// CommentInput is a submitted comment form.
type CommentInput struct {
	ArtworkID string `json:"artworkId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Text      string `json:"text"`
}

func (in *CommentInput) normalize() {
	in.ArtworkID = strings.TrimSpace(in.ArtworkID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Text = strings.TrimSpace(in.Text)
}

// ReviewInput is a submitted review form.
type ReviewInput struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (in *ReviewInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
}

// ValidationError lists form fields that blocked a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for k, v := range errs {
		fields[k] = v.Error()
	}
	return &ValidationError{Fields: fields}
}
