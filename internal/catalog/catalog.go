package catalog

import "fmt"

// Catalog is the ordered, immutable artwork list for a session. Display
// order is the document's array order.
type Catalog struct {
	artworks []Artwork
	index    map[string]int
	tags     []string
}

// New builds a Catalog and derives its tag universe in one scan.
func New(artworks []Artwork) (*Catalog, error) {
	c := &Catalog{
		artworks: make([]Artwork, len(artworks)),
		index:    make(map[string]int, len(artworks)),
	}
	copy(c.artworks, artworks)

	seen := make(map[string]struct{})
	for i, a := range c.artworks {
		if prev, ok := c.index[a.ID]; ok {
			return nil, fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateID, a.ID, prev, i)
		}
		c.index[a.ID] = i
		for _, t := range a.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			c.tags = append(c.tags, t)
		}
	}
	return c, nil
}

// Len returns the number of artworks.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.artworks)
}

// Empty reports whether the catalog loaded successfully with zero artworks.
func (c *Catalog) Empty() bool { return c.Len() == 0 }

// At returns the artwork at catalog index i.
func (c *Catalog) At(i int) (Artwork, bool) {
	if i < 0 || i >= c.Len() {
		return Artwork{}, false
	}
	return c.artworks[i], true
}

// Index returns the catalog index of the artwork with the given id.
func (c *Catalog) Index(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[id]
	return i, ok
}

// Artworks returns a copy of the artwork list in display order.
func (c *Catalog) Artworks() []Artwork {
	out := make([]Artwork, c.Len())
	if c != nil {
		copy(out, c.artworks)
	}
	return out
}

// Tags returns the deduplicated tag universe. Callers must not rely on its order.
func (c *Catalog) Tags() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.tags))
	copy(out, c.tags)
	return out
}
