package gallery

import (
	"context"
	"errors"
	"testing"

	"github.com/kalambet/atelier/internal/catalog"
	"github.com/kalambet/atelier/internal/social"
	"github.com/kalambet/atelier/internal/storage"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Artwork{
		{ID: "a1", Title: "Harbor", Year: "1998", Dimensions: "50x70 cm", Image: "a1.jpg", Alt: "Boats at dusk", Tags: catalog.TagList{"oil", "landscape"}},
		{ID: "a2", Title: "Study", Year: "2001", Image: "a2.jpg", Tags: catalog.TagList{"charcoal"}},
		{ID: "a3", Title: "Field", Image: "a3.jpg", Tags: catalog.TagList{"oil", "Landscape"}},
		{ID: "a4", Title: "Untitled", Image: "a4.jpg"},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func itemIDs(v GridView) []string {
	ids := make([]string, len(v.Items))
	for i, it := range v.Items {
		ids[i] = it.Artwork.ID
	}
	return ids
}

func TestRender_AllShowsEverythingInOrder(t *testing.T) {
	cat := testCatalog(t)
	v := Render(cat, AllFilter)

	if len(v.Items) != cat.Len() {
		t.Fatalf("rendered %d items, want %d", len(v.Items), cat.Len())
	}
	for i, it := range v.Items {
		if it.Index != i {
			t.Errorf("item %d has index %d", i, it.Index)
		}
	}
	if v.EmptyMessage != "" {
		t.Errorf("unexpected empty message %q", v.EmptyMessage)
	}
}

func TestRender_FilterMatchesExactTag(t *testing.T) {
	cat := testCatalog(t)

	for _, tag := range append(cat.Tags(), "missing") {
		v := Render(cat, tag)
		for _, it := range v.Items {
			if !it.Artwork.HasTag(tag) {
				t.Errorf("filter %q rendered %s which lacks the tag", tag, it.Artwork.ID)
			}
		}
		count := 0
		for _, a := range cat.Artworks() {
			if a.HasTag(tag) {
				count++
			}
		}
		if count != len(v.Items) {
			t.Errorf("filter %q rendered %d items, want %d", tag, len(v.Items), count)
		}
	}

	got := itemIDs(Render(cat, "landscape"))
	if len(got) != 1 || got[0] != "a1" {
		t.Errorf("landscape = %v, want [a1] (case-sensitive)", got)
	}
}

func TestRender_PreservesCatalogIndex(t *testing.T) {
	v := Render(testCatalog(t), "charcoal")
	if len(v.Items) != 1 || v.Items[0].Index != 1 {
		t.Errorf("items = %+v, want a2 at catalog index 1", v.Items)
	}
}

func TestRender_NoMatches(t *testing.T) {
	v := Render(testCatalog(t), "watercolor")
	if len(v.Items) != 0 {
		t.Errorf("items = %v", itemIDs(v))
	}
	if v.EmptyMessage == "" || v.CatalogEmpty {
		t.Errorf("view = %+v, want no-results message", v)
	}
}

func TestRender_EmptyCatalog(t *testing.T) {
	empty, _ := catalog.New(nil)
	for _, cat := range []*catalog.Catalog{empty, nil} {
		v := Render(cat, AllFilter)
		if !v.CatalogEmpty || v.EmptyMessage == "" {
			t.Errorf("view = %+v, want empty-catalog state", v)
		}
		if v.Items == nil {
			t.Error("Items is nil, want empty slice")
		}
	}
}

func TestFilterBar_ExactlyOneActive(t *testing.T) {
	cat := testCatalog(t)

	for _, active := range []string{AllFilter, "oil", "charcoal", "nonexistent"} {
		buttons := FilterBar(cat, active)
		if len(buttons) != len(cat.Tags())+1 {
			t.Fatalf("got %d buttons, want %d", len(buttons), len(cat.Tags())+1)
		}
		if buttons[0].Value != AllFilter {
			t.Errorf("first button = %q, want all", buttons[0].Value)
		}
		n := 0
		for _, b := range buttons {
			if b.Active {
				n++
			}
		}
		if n != 1 {
			t.Errorf("active=%q: %d buttons active", active, n)
		}
	}

	if b := FilterBar(cat, "nonexistent"); !b[0].Active {
		t.Error("unknown filter should fall back to all")
	}
}

func TestFilter_Select(t *testing.T) {
	f := NewFilter(testCatalog(t))
	if f.Active() != AllFilter {
		t.Errorf("initial filter = %q", f.Active())
	}

	v := f.Select("oil")
	if f.Active() != "oil" || len(v.Items) != 2 {
		t.Errorf("after select oil: active=%q items=%v", f.Active(), itemIDs(v))
	}

	f.Select("")
	if f.Active() != AllFilter {
		t.Errorf("empty select should reset to all, got %q", f.Active())
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		i, delta, n, want int
	}{
		{0, 1, 4, 1},
		{3, 1, 4, 0},
		{0, -1, 4, 3},
		{2, -1, 4, 1},
		{0, 1, 1, 0},
		{0, -1, 1, 0},
		{1, -9, 4, 0},
	}
	for _, tt := range tests {
		got, err := Step(tt.i, tt.delta, tt.n)
		if err != nil {
			t.Fatalf("Step(%d,%d,%d): %v", tt.i, tt.delta, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("Step(%d,%d,%d) = %d, want %d", tt.i, tt.delta, tt.n, got, tt.want)
		}
	}

	if _, err := Step(0, 1, 0); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("Step on empty ring: err = %v", err)
	}
}

func TestNavigator_NextWrapsAfterNSteps(t *testing.T) {
	cat := testCatalog(t)
	nav := NewNavigator(cat, nil)

	for start := 0; start < cat.Len(); start++ {
		if _, err := nav.Open(start); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < cat.Len(); i++ {
			if _, err := nav.Next(); err != nil {
				t.Fatal(err)
			}
		}
		if nav.Current() != start {
			t.Errorf("after %d Next from %d, at %d", cat.Len(), start, nav.Current())
		}
	}
}

func TestNavigator_PreviousInvertsNext(t *testing.T) {
	cat := testCatalog(t)
	nav := NewNavigator(cat, nil)

	for start := 0; start < cat.Len(); start++ {
		nav.Open(start)
		nav.Next()
		nav.Previous()
		if nav.Current() != start {
			t.Errorf("Next then Previous from %d landed on %d", start, nav.Current())
		}
		nav.Previous()
		nav.Next()
		if nav.Current() != start {
			t.Errorf("Previous then Next from %d landed on %d", start, nav.Current())
		}
	}
}

func TestNavigator_OpenGuards(t *testing.T) {
	nav := NewNavigator(testCatalog(t), nil)
	for _, i := range []int{-1, 4, 100} {
		if _, err := nav.Open(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Open(%d): err = %v, want ErrIndexOutOfRange", i, err)
		}
	}
	if nav.IsOpen() {
		t.Error("navigator opened on invalid index")
	}

	empty, _ := catalog.New(nil)
	nav = NewNavigator(empty, nil)
	if _, err := nav.Open(0); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("Open on empty catalog: err = %v", err)
	}
	if _, err := nav.Next(); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("Next on empty catalog: err = %v", err)
	}
}

func TestDetail_Fallbacks(t *testing.T) {
	nav := NewNavigator(testCatalog(t), nil)

	d, err := nav.Open(0)
	if err != nil {
		t.Fatal(err)
	}
	if d.Dimensions != "50x70 cm" || d.Alt != "Boats at dusk" {
		t.Errorf("detail = %+v", d)
	}
	if !d.ScrollLock || !d.NoComments || d.Prev != 3 || d.Next != 1 {
		t.Errorf("detail flags = %+v", d)
	}

	d, _ = nav.Open(1)
	if d.Dimensions != NotAvailable {
		t.Errorf("Dimensions = %q, want %q", d.Dimensions, NotAvailable)
	}
	if d.Alt != "Study" {
		t.Errorf("Alt = %q, want title fallback", d.Alt)
	}
}

func TestNavigator_HandleKey(t *testing.T) {
	nav := NewNavigator(testCatalog(t), nil)

	if handled, _ := nav.HandleKey(KeyArrowRight); handled {
		t.Error("key handled while closed")
	}
	if nav.IsOpen() || nav.Current() != 0 {
		t.Error("closed navigator moved")
	}

	nav.Open(0)
	nav.HandleKey(KeyArrowLeft)
	if nav.Current() != 3 {
		t.Errorf("ArrowLeft from 0 = %d, want 3", nav.Current())
	}
	nav.HandleKey(KeyArrowRight)
	if nav.Current() != 0 {
		t.Errorf("ArrowRight from 3 = %d, want 0", nav.Current())
	}
	if handled, _ := nav.HandleKey("Enter"); handled {
		t.Error("Enter should be ignored")
	}

	nav.HandleKey(KeyEscape)
	if nav.IsOpen() {
		t.Error("Escape did not close")
	}
	if nav.Detail().ScrollLock {
		t.Error("scroll lock held after close")
	}
}

func TestApp_CommentsRefreshLightbox(t *testing.T) {
	app := NewApp(testCatalog(t), nil, storage.NewMemory())
	ctx := context.Background()

	if _, err := app.Open(2); err != nil {
		t.Fatal(err)
	}
	if _, err := app.AddComment(ctx, social.CommentInput{ArtworkID: "a3", Name: "Ana", Text: "Wide"}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	d, open := app.Lightbox()
	if !open || len(d.Comments) != 1 || d.NoComments {
		t.Errorf("lightbox after comment = %+v", d)
	}
	if app.CommentCount("a3") != 1 || app.CommentCount("a1") != 0 {
		t.Error("comment counts wrong")
	}
}

func TestApp_AddCommentUnknownArtwork(t *testing.T) {
	app := NewApp(testCatalog(t), nil, storage.NewMemory())
	_, err := app.AddComment(context.Background(), social.CommentInput{ArtworkID: "zz", Name: "Ana", Text: "?"})
	if !errors.Is(err, ErrUnknownArtwork) {
		t.Errorf("err = %v, want ErrUnknownArtwork", err)
	}
}

func TestApp_ImportReloadsViews(t *testing.T) {
	app := NewApp(testCatalog(t), nil, storage.NewMemory())
	app.Open(0)

	payload := `{"comments":[{"id":"c1","artworkId":"a1","name":"Ben","text":"Restored","date":"2025-03-01T00:00:00Z"}],
	"reviews":[{"id":"r1","name":"Cy","rating":5,"text":"Great","date":"2025-03-01T00:00:00Z"}]}`
	if _, err := app.Import([]byte(payload)); err != nil {
		t.Fatalf("Import: %v", err)
	}

	d, _ := app.Lightbox()
	if len(d.Comments) != 1 || d.Comments[0].Text != "Restored" {
		t.Errorf("lightbox comments = %+v", d.Comments)
	}
	if s := app.ReviewSummary(); s.Count != 1 || s.Stars != 5 {
		t.Errorf("summary = %+v", s)
	}
}

func TestApp_States(t *testing.T) {
	empty, _ := catalog.New(nil)
	tests := []struct {
		name string
		cat  *catalog.Catalog
		err  error
		want LoadState
	}{
		{"ready", testCatalog(t), nil, StateReady},
		{"empty", empty, nil, StateEmpty},
		{"unreachable", nil, catalog.ErrUnreachable, StateUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(tt.cat, tt.err, storage.NewMemory())
			if got := app.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeFilter(t *testing.T) {
	cat := testCatalog(t)
	tests := map[string]string{
		"":           AllFilter,
		AllFilter:    AllFilter,
		"oil":        "oil",
		"Landscape":  "Landscape",
		"Oil":        AllFilter,
		"watercolor": AllFilter,
	}
	for in, want := range tests {
		if got := NormalizeFilter(cat, in); got != want {
			t.Errorf("NormalizeFilter(%q) = %q, want %q", in, got, want)
		}
	}
	if got := NormalizeFilter(nil, "oil"); got != AllFilter {
		t.Errorf("nil catalog = %q, want all", got)
	}
}

func TestApp_GridAndBarAgree(t *testing.T) {
	app := NewApp(testCatalog(t), nil, storage.NewMemory())

	for _, tag := range []string{"Oil", "watercolor", "", "charcoal"} {
		v, bar := app.Grid(tag)
		var active string
		for _, b := range bar {
			if b.Active {
				active = b.Value
			}
		}
		if active != v.Filter {
			t.Errorf("tag %q: grid filter %q, active button %q", tag, v.Filter, active)
		}
		if v.EmptyMessage != "" {
			t.Errorf("tag %q: unexpected empty message %q", tag, v.EmptyMessage)
		}
	}
}

func TestApp_SelectFilter(t *testing.T) {
	app := NewApp(testCatalog(t), nil, storage.NewMemory())

	v, bar := app.SelectFilter("oil")
	if app.ActiveFilter() != "oil" || len(v.Items) != 2 {
		t.Errorf("select oil: active=%q items=%v", app.ActiveFilter(), itemIDs(v))
	}
	if !bar[1].Active || bar[1].Value != "oil" {
		t.Errorf("bar = %+v, want oil active", bar)
	}

	v, _ = app.SelectFilter("Oil")
	if app.ActiveFilter() != AllFilter || len(v.Items) != 4 {
		t.Errorf("unknown tag: active=%q items=%v", app.ActiveFilter(), itemIDs(v))
	}
}

func TestApp_HandleKey(t *testing.T) {
	app := NewApp(testCatalog(t), nil, storage.NewMemory())

	if handled, _ := app.HandleKey(KeyArrowRight); handled {
		t.Fatal("key handled while closed")
	}

	app.Open(3)
	if handled, err := app.HandleKey(KeyArrowRight); !handled || err != nil {
		t.Fatalf("ArrowRight: handled=%v err=%v", handled, err)
	}
	if d, _ := app.Lightbox(); d.Index != 0 {
		t.Errorf("ArrowRight from 3 = %d, want 0", d.Index)
	}

	app.HandleKey(KeyEscape)
	if d, open := app.Lightbox(); open || d.ScrollLock {
		t.Error("Escape left the lightbox open")
	}
}
