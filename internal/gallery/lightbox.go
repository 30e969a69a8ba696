package gallery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/atelier/internal/catalog"
	"github.com/kalambet/atelier/internal/social"
)

// NotAvailable is shown for optional fields the catalog leaves out.
const NotAvailable = "N/A"

var (
	ErrEmptyCatalog    = errors.New("catalog is empty")
	ErrIndexOutOfRange = errors.New("artwork index out of range")
)

// Keys the lightbox reacts to.
const (
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// CommentLister is the read side of the comment store.
type CommentLister interface {
	ListFor(artworkID string) []social.Comment
}

// Detail is the populated lightbox view for one artwork.
type Detail struct {
	Index       int              `json:"index"`
	Total       int              `json:"total"`
	Prev        int              `json:"prev"`
	Next        int              `json:"next"`
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Year        string           `json:"year"`
	Technique   string           `json:"technique"`
	Dimensions  string           `json:"dimensions"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Alt         string           `json:"alt"`
	Tags        []string         `json:"tags"`
	Comments    []social.Comment `json:"comments"`
	NoComments  bool             `json:"noComments"`
	ScrollLock  bool             `json:"scrollLock"`
}

// Step moves i by delta around a ring of n items.
func Step(i, delta, n int) (int, error) {
	if n <= 0 {
		return 0, ErrEmptyCatalog
	}
	return ((i+delta)%n + n) % n, nil
}

// BuildDetail populates the lightbox view for catalog index i.
func BuildDetail(cat *catalog.Catalog, comments CommentLister, i int) (Detail, error) {
	n := cat.Len()
	if n == 0 {
		return Detail{}, ErrEmptyCatalog
	}
	a, ok := cat.At(i)
	if !ok {
		return Detail{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, n)
	}

	prev, _ := Step(i, -1, n)
	next, _ := Step(i, 1, n)

	d := Detail{
		Index:       i,
		Total:       n,
		Prev:        prev,
		Next:        next,
		ID:          a.ID,
		Title:       a.Title,
		Year:        a.Year.String(),
		Technique:   a.Technique,
		Dimensions:  a.Dimensions,
		Description: a.Description,
		Image:       a.Image,
		Alt:         a.Alt,
		Tags:        append([]string{}, a.Tags...),
		ScrollLock:  true,
	}
	if strings.TrimSpace(d.Dimensions) == "" {
		d.Dimensions = NotAvailable
	}
	if d.Alt == "" {
		d.Alt = a.Title
	}
	if comments != nil {
		d.Comments = comments.ListFor(a.ID)
	}
	if d.Comments == nil {
		d.Comments = []social.Comment{}
	}
	d.NoComments = len(d.Comments) == 0
	return d, nil
}

// Navigator is the lightbox cursor over the catalog.
type Navigator struct {
	cat      *catalog.Catalog
	comments CommentLister

	current int
	open    bool
	detail  Detail
}

func NewNavigator(cat *catalog.Catalog, comments CommentLister) *Navigator {
	return &Navigator{cat: cat, comments: comments}
}

func (n *Navigator) IsOpen() bool   { return n.open }
func (n *Navigator) Current() int   { return n.current }
func (n *Navigator) Detail() Detail { return n.detail }

// Open shows the artwork at catalog index i.
func (n *Navigator) Open(i int) (Detail, error) {
	d, err := BuildDetail(n.cat, n.comments, i)
	if err != nil {
		return Detail{}, err
	}
	n.current = i
	n.open = true
	n.detail = d
	return d, nil
}

// Next wraps to the first artwork after the last one.
func (n *Navigator) Next() (Detail, error) {
	return n.move(1)
}

// Previous wraps to the last artwork before the first one.
func (n *Navigator) Previous() (Detail, error) {
	return n.move(-1)
}

func (n *Navigator) move(delta int) (Detail, error) {
	i, err := Step(n.current, delta, n.cat.Len())
	if err != nil {
		return Detail{}, err
	}
	return n.Open(i)
}

// Close hides the lightbox and releases the scroll lock.
func (n *Navigator) Close() {
	n.open = false
	n.detail.ScrollLock = false
}

// Refresh re-reads the open artwork's comments.
func (n *Navigator) Refresh() error {
	if !n.open {
		return nil
	}
	_, err := n.Open(n.current)
	return err
}

// HandleKey maps keyboard input to navigation. Keys are ignored while the
// lightbox is closed; handled reports whether the key did anything.
func (n *Navigator) HandleKey(key string) (handled bool, err error) {
	if !n.open {
		return false, nil
	}
	switch key {
	case KeyEscape:
		n.Close()
		return true, nil
	case KeyArrowLeft:
		_, err := n.Previous()
		return true, err
	case KeyArrowRight:
		_, err := n.Next()
		return true, err
	default:
		return false, nil
	}
}
