package gallery

import "github.com/kalambet/atelier/internal/catalog"

// AllFilter is the filter value that passes every artwork.
const AllFilter = "all"

const (
	noResultsMessage    = "No artworks match this filter."
	emptyCatalogMessage = "The gallery is empty. Add artworks to the catalog to get started."
)

// GridItem is one rendered artwork. Index is the artwork's position in the
// full catalog, not in the filtered view.
type GridItem struct {
	Index   int             `json:"index"`
	Artwork catalog.Artwork `json:"artwork"`
}

// GridView is the projection of the catalog under one filter.
type GridView struct {
	Filter       string     `json:"filter"`
	Items        []GridItem `json:"items"`
	CatalogEmpty bool       `json:"catalogEmpty"`
	EmptyMessage string     `json:"emptyMessage,omitempty"`
}

// Render projects cat under filter. AllFilter (or "") passes everything; any
// other value passes artworks whose tags contain it exactly.
func Render(cat *catalog.Catalog, filter string) GridView {
	if filter == "" {
		filter = AllFilter
	}
	v := GridView{Filter: filter, Items: []GridItem{}}

	if cat.Empty() {
		v.CatalogEmpty = true
		v.EmptyMessage = emptyCatalogMessage
		return v
	}

	for i, a := range cat.Artworks() {
		if filter == AllFilter || a.HasTag(filter) {
			v.Items = append(v.Items, GridItem{Index: i, Artwork: a})
		}
	}
	if len(v.Items) == 0 {
		v.EmptyMessage = noResultsMessage
	}
	return v
}

// FilterButton is one control in the filter bar.
type FilterButton struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// NormalizeFilter maps "" and any value outside the tag universe to
// AllFilter. Tags compare case-sensitively.
func NormalizeFilter(cat *catalog.Catalog, filter string) string {
	if filter == "" || filter == AllFilter {
		return AllFilter
	}
	for _, t := range cat.Tags() {
		if t == filter {
			return filter
		}
	}
	return AllFilter
}

// FilterBar lists "all" followed by the tag universe, with exactly one
// button active. An active value outside the universe falls back to "all".
func FilterBar(cat *catalog.Catalog, active string) []FilterButton {
	tags := cat.Tags()
	active = NormalizeFilter(cat, active)

	buttons := make([]FilterButton, 0, len(tags)+1)
	buttons = append(buttons, FilterButton{Value: AllFilter, Label: "All", Active: active == AllFilter})
	for _, t := range tags {
		buttons = append(buttons, FilterButton{Value: t, Label: t, Active: t == active})
	}
	return buttons
}

// Filter tracks the single active filter value.
type Filter struct {
	cat    *catalog.Catalog
	active string
}

// NewFilter starts with AllFilter active.
func NewFilter(cat *catalog.Catalog) *Filter {
	return &Filter{cat: cat, active: AllFilter}
}

func (f *Filter) Active() string { return f.active }

// Select makes tag the only active filter and re-renders the grid. A tag
// outside the universe selects AllFilter so the grid and the bar agree.
func (f *Filter) Select(tag string) GridView {
	f.active = NormalizeFilter(f.cat, tag)
	return Render(f.cat, f.active)
}

// Buttons returns the filter bar for the current selection.
func (f *Filter) Buttons() []FilterButton {
	return FilterBar(f.cat, f.active)
}
