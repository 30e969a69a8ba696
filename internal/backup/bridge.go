package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kalambet/atelier/internal/social"
	"github.com/kalambet/atelier/internal/storage"
)

// ErrMalformed is returned by Import when the payload is not a backup document.
var ErrMalformed = errors.New("malformed backup document")

// Document is the exported bundle. ExportDate is informational only.
type Document struct {
	Comments   []social.Comment `json:"comments"`
	Reviews    []social.Review  `json:"reviews"`
	ExportDate time.Time        `json:"exportDate"`
}

// Result reports which sequences an import replaced.
type Result struct {
	CommentsReplaced bool `json:"commentsReplaced"`
	Comments         int  `json:"comments"`
	ReviewsReplaced  bool `json:"reviewsReplaced"`
	Reviews          int  `json:"reviews"`
}

// Bridge serializes both social stores into one document and restores them.
type Bridge struct {
	kv       storage.KV
	comments *social.CommentStore
	reviews  *social.ReviewStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewBridge creates a Bridge over the same KV the stores write to.
func NewBridge(kv storage.KV, comments *social.CommentStore, reviews *social.ReviewStore) *Bridge {
	return &Bridge{
		kv:       kv,
		comments: comments,
		reviews:  reviews,
		now:      time.Now,
		logger:   slog.Default(),
	}
}

// Export bundles the full comment and review sequences with a timestamp.
func (b *Bridge) Export() Document {
	return Document{
		Comments:   b.comments.All(),
		Reviews:    b.reviews.All(),
		ExportDate: b.now().UTC(),
	}
}

// ExportJSON returns the indented export document and its download name.
func (b *Bridge) ExportJSON() ([]byte, string, error) {
	doc := b.Export()
	data, err := encodeDocument(doc)
	if err != nil {
		return nil, "", err
	}
	return data, FileName(doc.ExportDate), nil
}

func encodeDocument(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return data, nil
}

// FileName returns the timestamp-suffixed download name for an export.
func FileName(t time.Time) string {
	return "gallery-backup-" + t.UTC().Format("20060102-150405") + ".json"
}

// Import replaces each sequence present in data. Absent fields leave their
// sequence untouched. Any parse or shape error leaves both untouched.
func (b *Bridge) Import(data []byte) (Result, error) {
	if !gjson.ValidBytes(data) {
		return Result{}, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Result{}, fmt.Errorf("%w: top level must be an object", ErrMalformed)
	}

	entries := make(map[string]string, 2)
	var res Result

	if field := root.Get("comments"); field.Exists() {
		var comments []social.Comment
		if err := decodeArray(field, &comments); err != nil {
			return Result{}, fmt.Errorf("%w: comments: %v", ErrMalformed, err)
		}
		raw, err := json.Marshal(comments)
		if err != nil {
			return Result{}, fmt.Errorf("encoding comments: %w", err)
		}
		entries[social.CommentsKey] = string(raw)
		res.CommentsReplaced = true
		res.Comments = len(comments)
	}

	if field := root.Get("reviews"); field.Exists() {
		var reviews []social.Review
		if err := decodeArray(field, &reviews); err != nil {
			return Result{}, fmt.Errorf("%w: reviews: %v", ErrMalformed, err)
		}
		raw, err := json.Marshal(reviews)
		if err != nil {
			return Result{}, fmt.Errorf("encoding reviews: %w", err)
		}
		entries[social.ReviewsKey] = string(raw)
		res.ReviewsReplaced = true
		res.Reviews = len(reviews)
	}

	if len(entries) == 0 {
		return Result{}, fmt.Errorf("%w: neither comments nor reviews present", ErrMalformed)
	}

	if err := b.kv.SetMany(entries); err != nil {
		b.logger.Error("writing imported backup", "error", err)
		return Result{}, fmt.Errorf("%w: %v", social.ErrPersist, err)
	}

	b.logger.Info("backup imported",
		"comments_replaced", res.CommentsReplaced, "comments", res.Comments,
		"reviews_replaced", res.ReviewsReplaced, "reviews", res.Reviews,
	)
	return res, nil
}

func decodeArray(field gjson.Result, out any) error {
	if !field.IsArray() {
		return fmt.Errorf("must be an array")
	}
	for i, el := range field.Array() {
		if !el.IsObject() {
			return fmt.Errorf("element %d is not an object", i)
		}
	}
	return json.Unmarshal([]byte(field.Raw), out)
}
