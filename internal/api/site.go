package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/atelier/internal/backup"
	"github.com/kalambet/atelier/internal/catalog"
	"github.com/kalambet/atelier/internal/gallery"
	"github.com/kalambet/atelier/internal/social"
	"github.com/kalambet/atelier/internal/storage"
)

// BackupRunLister exposes the scheduled snapshot log. Implemented by storage.Store.
type BackupRunLister interface {
	ListBackupRuns(limit int) ([]storage.BackupRun, error)
}

// Deps holds what the HTTP handlers need.
type Deps struct {
	App       *gallery.App
	Loader    *catalog.Loader // optional; enables catalog reload
	ImagesDir string          // optional; serves /images/ from disk
	ImageBase string          // optional; remote catalog URL relative images resolve against
	Runs      BackupRunLister // optional
}

// notices maps the ?notice= query value set by redirects to a message.
var notices = map[string]string{
	"imported": "Backup imported.",
	"comment":  "Thanks, your comment was posted.",
	"review":   "Thanks for your review.",
}

type formState struct {
	Values  map[string]string
	Errors  map[string]string
	Message string
}

func newForm() formState {
	return formState{Values: map[string]string{}, Errors: map[string]string{}}
}

type errorView struct {
	Heading string
	Message string
	Hint    string
}

type pageData struct {
	Title      string
	Notice     string
	ScrollLock bool
	Summary    social.Summary

	Grid          gallery.GridView
	Filters       []gallery.FilterButton
	CommentCounts map[string]int

	Detail gallery.Detail
	Filter string

	Reviews   []social.Review
	ModalOpen bool

	Form  formState
	Error errorView
}

// NewSiteHandler returns the HTML gallery. It fails only if the embedded
// templates do not parse.
func NewSiteHandler(deps Deps) (http.Handler, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/", handleGrid(deps, p))
	r.Get("/artworks/close", handleCloseLightbox(deps))
	r.Get("/artworks/{index}", handleArtwork(deps, p))
	r.Post("/artworks/{index}/comments", handlePostComment(deps, p))
	r.Get("/reviews", handleReviews(deps, p))
	r.Post("/reviews", handlePostReview(deps, p))
	r.Get("/backup/export", handleExportDownload(deps))
	r.Post("/backup/import", handleImportUpload(deps, p))

	switch {
	case deps.ImagesDir != "":
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(deps.ImagesDir))))
	case deps.ImageBase != "":
		r.Get("/images/*", handleRemoteImage(deps.ImageBase))
	}

	return r, nil
}

// NewRouter composes the HTML site with the JSON API under /api.
func NewRouter(deps Deps) (http.Handler, error) {
	site, err := NewSiteHandler(deps)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Mount("/api", NewAPIHandler(deps))
	r.Mount("/", site)
	return r, nil
}

// handleRemoteImage redirects relative image paths of a remote catalog to
// their absolute URL.
func handleRemoteImage(base string) http.HandlerFunc {
	resolver := catalog.ImageResolver{Base: base}
	return func(w http.ResponseWriter, r *http.Request) {
		target, remote := resolver.Resolve(chi.URLParam(r, "*"))
		if !remote || target == "" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// unavailable renders the unreachable-catalog page and reports whether it did.
func unavailable(deps Deps, p pages, w http.ResponseWriter) bool {
	if deps.App.State() != gallery.StateUnreachable {
		return false
	}
	err := deps.App.LoadError()
	hint := "Check that the catalog file exists and is valid JSON or YAML, then restart the server."
	if errors.Is(err, catalog.ErrUnreachable) {
		hint = "Check the catalog.source setting and that the catalog host is reachable, then reload the page."
	}
	p.render(w, http.StatusServiceUnavailable, "error.html", pageData{
		Title: "Gallery unavailable",
		Error: errorView{
			Heading: "The gallery could not be loaded",
			Message: err.Error(),
			Hint:    hint,
		},
	})
	return true
}

func handleGrid(deps Deps, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(deps, p, w) {
			return
		}

		grid, filters := deps.App.SelectFilter(r.URL.Query().Get("tag"))
		counts := make(map[string]int, len(grid.Items))
		for _, it := range grid.Items {
			counts[it.Artwork.ID] = deps.App.CommentCount(it.Artwork.ID)
		}

		p.render(w, http.StatusOK, "gallery.html", pageData{
			Notice:        notices[r.URL.Query().Get("notice")],
			Summary:       deps.App.ReviewSummary(),
			Grid:          grid,
			Filters:       filters,
			CommentCounts: counts,
		})
	}
}

func parseIndex(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	return i, err == nil
}

func notFound(p pages, w http.ResponseWriter, msg string) {
	p.render(w, http.StatusNotFound, "error.html", pageData{
		Title: "Not found",
		Error: errorView{Heading: "Not found", Message: msg},
	})
}

func artworkPage(r *http.Request, d gallery.Detail, form formState) pageData {
	return pageData{
		Title:      d.Title,
		Notice:     notices[r.URL.Query().Get("notice")],
		ScrollLock: d.ScrollLock,
		Detail:     d,
		Filter:     r.URL.Query().Get("tag"),
		Form:       form,
	}
}

func handleArtwork(deps Deps, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(deps, p, w) {
			return
		}
		i, ok := parseIndex(r)
		if !ok {
			notFound(p, w, "artwork index must be a number")
			return
		}
		d, err := deps.App.Open(i)
		if err != nil {
			notFound(p, w, err.Error())
			return
		}
		p.render(w, http.StatusOK, "artwork.html", artworkPage(r, d, newForm()))
	}
}

// handleCloseLightbox closes the lightbox and returns to the grid under the
// page's filter, or the active one when the link carries none.
func handleCloseLightbox(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.App.Close()
		tag := r.URL.Query().Get("tag")
		if tag == "" {
			tag = deps.App.ActiveFilter()
		}
		http.Redirect(w, r, "/?tag="+url.QueryEscape(tag), http.StatusSeeOther)
	}
}

func handlePostComment(deps Deps, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(deps, p, w) {
			return
		}
		i, ok := parseIndex(r)
		if !ok {
			notFound(p, w, "artwork index must be a number")
			return
		}
		d, err := deps.App.Artwork(i)
		if err != nil {
			notFound(p, w, err.Error())
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}

		in := social.CommentInput{
			ArtworkID: d.ID,
			Name:      r.PostForm.Get("name"),
			Email:     r.PostForm.Get("email"),
			Text:      r.PostForm.Get("text"),
		}
		_, err = deps.App.AddComment(r.Context(), in)
		if err != nil {
			form := newForm()
			form.Values["name"] = in.Name
			form.Values["email"] = in.Email
			form.Values["text"] = in.Text

			code := formFailure(err, &form)
			p.render(w, code, "artwork.html", artworkPage(r, d, form))
			return
		}

		target := fmt.Sprintf("/artworks/%d?notice=comment", i)
		if tag := r.URL.Query().Get("tag"); tag != "" {
			target += "&tag=" + url.QueryEscape(tag)
		}
		http.Redirect(w, r, target+"#comment-list", http.StatusSeeOther)
	}
}

// formFailure fills form with the failure details and returns the status.
func formFailure(err error, form *formState) int {
	var verr *social.ValidationError
	switch {
	case errors.As(err, &verr):
		form.Errors = verr.Fields
		form.Message = "Please correct the highlighted fields."
		return http.StatusBadRequest
	case errors.Is(err, social.ErrPersist):
		form.Message = "Your submission could not be saved. Please try again."
		return http.StatusInternalServerError
	default:
		form.Message = err.Error()
		return http.StatusBadRequest
	}
}

func reviewsPage(deps Deps, r *http.Request, form formState, open bool) pageData {
	return pageData{
		Title:     "Reviews",
		Notice:    notices[r.URL.Query().Get("notice")],
		Summary:   deps.App.ReviewSummary(),
		Reviews:   deps.App.Reviews(),
		ModalOpen: open,
		Form:      form,
	}
}

func handleReviews(deps Deps, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open := r.URL.Query().Get("write") != ""
		p.render(w, http.StatusOK, "reviews.html", reviewsPage(deps, r, newForm(), open))
	}
}

func handlePostReview(deps Deps, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}

		rating, _ := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("rating")))
		in := social.ReviewInput{
			Name:   r.PostForm.Get("name"),
			Rating: rating,
			Text:   r.PostForm.Get("text"),
		}
		if _, err := deps.App.AddReview(r.Context(), in); err != nil {
			form := newForm()
			form.Values["name"] = in.Name
			form.Values["rating"] = r.PostForm.Get("rating")
			form.Values["text"] = in.Text

			code := formFailure(err, &form)
			p.render(w, code, "reviews.html", reviewsPage(deps, r, form, true))
			return
		}

		http.Redirect(w, r, "/reviews?notice=review", http.StatusSeeOther)
	}
}

func handleExportDownload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, name, err := deps.App.Export()
		if err != nil {
			http.Error(w, "export failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		w.Write(data)
	}
}

func handleImportUpload(deps Deps, p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)

		data, err := readUpload(r)
		if err != nil {
			p.render(w, http.StatusBadRequest, "error.html", pageData{
				Title: "Import failed",
				Error: errorView{Heading: "Import failed", Message: err.Error()},
			})
			return
		}

		if _, err := deps.App.Import(data); err != nil {
			code := http.StatusInternalServerError
			msg := "The backup could not be saved. Your existing data was not changed."
			if errors.Is(err, backup.ErrMalformed) {
				code = http.StatusBadRequest
				msg = "Invalid backup file. Choose a file exported from this gallery."
			}
			slog.Warn("backup import rejected", "error", err)
			p.render(w, code, "error.html", pageData{
				Title: "Import failed",
				Error: errorView{Heading: "Import failed", Message: msg, Hint: err.Error()},
			})
			return
		}

		http.Redirect(w, r, "/?notice=imported", http.StatusSeeOther)
	}
}

// readUpload returns the "file" part of a multipart form, or the raw body
// for any other content type.
func readUpload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		return data, nil
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("no backup file selected: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file: %w", err)
	}
	return data, nil
}
