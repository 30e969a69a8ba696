package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kalambet/atelier/internal/backup"
	"github.com/kalambet/atelier/internal/catalog"
	"github.com/kalambet/atelier/internal/social"
	"github.com/kalambet/atelier/internal/storage"
)

// ErrUnknownArtwork is returned when a comment targets an id not in the catalog.
var ErrUnknownArtwork = errors.New("unknown artwork")

// LoadState describes how the catalog load went.
type LoadState int

const (
	StateReady LoadState = iota
	StateEmpty
	StateUnreachable
)

func (s LoadState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// App owns one gallery session: the loaded catalog, the filter and lightbox
// state, and the social stores. All methods are safe for concurrent use.
type App struct {
	mu sync.Mutex

	cat      *catalog.Catalog
	loadErr  error
	filter   *Filter
	nav      *Navigator
	comments *social.CommentStore
	reviews  *social.ReviewStore
	bridge   *backup.Bridge
	logger   *slog.Logger
}

// NewApp wires an App over a loaded catalog. loadErr is the error the loader
// returned, if any; cat may be nil in that case.
func NewApp(cat *catalog.Catalog, loadErr error, kv storage.KV) *App {
	comments := social.NewCommentStore(kv)
	reviews := social.NewReviewStore(kv)
	a := &App{
		comments: comments,
		reviews:  reviews,
		bridge:   backup.NewBridge(kv, comments, reviews),
		logger:   slog.Default(),
	}
	a.setCatalog(cat, loadErr)
	return a
}

// Load runs the loader and wires an App over the result. A load failure is
// not returned; it is reported through State and LoadError.
func Load(ctx context.Context, loader *catalog.Loader, kv storage.KV) *App {
	cat, err := loader.Load(ctx)
	if err != nil {
		slog.Error("loading catalog", "source", loader.Source, "error", err)
	}
	return NewApp(cat, err, kv)
}

func (a *App) setCatalog(cat *catalog.Catalog, loadErr error) {
	if loadErr != nil {
		cat = nil
	}
	a.cat = cat
	a.loadErr = loadErr
	a.filter = NewFilter(cat)
	a.nav = NewNavigator(cat, a.comments)
}

// ReloadCatalog re-reads the catalog source and resets filter and lightbox.
func (a *App) ReloadCatalog(ctx context.Context, loader *catalog.Loader) error {
	cat, err := loader.Load(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.setCatalog(cat, err)
	return err
}

func (a *App) State() LoadState {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.loadErr != nil:
		return StateUnreachable
	case a.cat.Empty():
		return StateEmpty
	default:
		return StateReady
	}
}

func (a *App) LoadError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

func (a *App) Catalog() *catalog.Catalog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cat
}

// Grid renders the catalog under filter without touching session state.
// Unknown tags render as AllFilter, matching the filter bar.
func (a *App) Grid(filter string) (GridView, []FilterButton) {
	a.mu.Lock()
	defer a.mu.Unlock()
	filter = NormalizeFilter(a.cat, filter)
	return Render(a.cat, filter), FilterBar(a.cat, filter)
}

// SelectFilter changes the active filter.
func (a *App) SelectFilter(tag string) (GridView, []FilterButton) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.filter.Select(tag)
	return v, a.filter.Buttons()
}

func (a *App) ActiveFilter() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter.Active()
}

// Artwork builds the detail view for index i without moving the lightbox.
func (a *App) Artwork(i int) (Detail, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return BuildDetail(a.cat, a.comments, i)
}

func (a *App) Open(i int) (Detail, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.Open(i)
}

func (a *App) Next() (Detail, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.Next()
}

func (a *App) Previous() (Detail, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.Previous()
}

func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.Close()
}

// HandleKey applies a lightbox key. It reports false when the lightbox is
// closed or the key is not one of KeyEscape, KeyArrowLeft, KeyArrowRight.
func (a *App) HandleKey(key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.HandleKey(key)
}

// Lightbox returns the open detail view, if any.
func (a *App) Lightbox() (Detail, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.Detail(), a.nav.IsOpen()
}

func (a *App) Comments(artworkID string) []social.Comment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.comments.ListFor(artworkID)
}

func (a *App) CommentCount(artworkID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.comments.Count(artworkID)
}

// AddComment stores a comment for an artwork in the loaded catalog and
// refreshes the lightbox if it is showing that artwork.
func (a *App) AddComment(ctx context.Context, in social.CommentInput) (social.Comment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if in.ArtworkID != "" {
		if _, ok := a.cat.Index(in.ArtworkID); !ok {
			return social.Comment{}, fmt.Errorf("%w: %q", ErrUnknownArtwork, in.ArtworkID)
		}
	}
	c, err := a.comments.Add(ctx, in)
	if err != nil {
		return social.Comment{}, err
	}
	a.refresh()
	return c, nil
}

func (a *App) Reviews() []social.Review {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reviews.List()
}

func (a *App) AddReview(ctx context.Context, in social.ReviewInput) (social.Review, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reviews.Add(ctx, in)
}

func (a *App) ReviewSummary() social.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reviews.Average()
}

// Bridge returns the backup bridge over this App's stores.
func (a *App) Bridge() *backup.Bridge {
	return a.bridge
}

// Export returns the backup document bytes and download file name.
func (a *App) Export() ([]byte, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bridge.ExportJSON()
}

// Import restores a backup and reloads every view that reads the stores.
func (a *App) Import(data []byte) (backup.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.bridge.Import(data)
	if err != nil {
		return backup.Result{}, err
	}
	a.refresh()
	return res, nil
}

// refresh re-derives state that caches store contents. Callers hold mu.
func (a *App) refresh() {
	if err := a.nav.Refresh(); err != nil {
		a.logger.Warn("refreshing lightbox", "error", err)
	}
}
