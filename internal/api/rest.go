package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/atelier/internal/backup"
	"github.com/kalambet/atelier/internal/catalog"
	"github.com/kalambet/atelier/internal/gallery"
	"github.com/kalambet/atelier/internal/social"
	"github.com/kalambet/atelier/internal/storage"
)

// CatalogResponse is the body of GET /api/catalog.
type CatalogResponse struct {
	State    string            `json:"state"`
	Artworks []catalog.Artwork `json:"artworks"`
	Tags     []string          `json:"tags"`
}

// GridResponse is the body of GET /api/grid.
type GridResponse struct {
	gallery.GridView
	Filters []gallery.FilterButton `json:"filters"`
}

// NewAPIHandler returns the JSON API used by the CLI and scripts.
func NewAPIHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/catalog", handleCatalog(deps))
	r.Post("/catalog/reload", handleCatalogReload(deps))
	r.Get("/tags", handleTags(deps))
	r.Get("/grid", handleGridJSON(deps))
	r.Get("/artworks/{id}", handleArtworkJSON(deps))
	r.Get("/artworks/{id}/comments", handleListComments(deps))
	r.Post("/artworks/{id}/comments", handleAddComment(deps))
	r.Get("/reviews", handleListReviews(deps))
	r.Post("/reviews", handleAddReview(deps))
	r.Get("/reviews/summary", handleReviewSummary(deps))
	r.Get("/backup", handleExportJSON(deps))
	r.Post("/backup", handleImportJSON(deps))
	r.Get("/backup/runs", handleBackupRuns(deps))

	return r
}

// requireCatalog writes a 503 when the catalog failed to load.
func requireCatalog(deps Deps, w http.ResponseWriter) bool {
	if deps.App.State() == gallery.StateUnreachable {
		httpError(w, http.StatusServiceUnavailable, errTypeUnavailable, "catalog unavailable: %v", deps.App.LoadError())
		return false
	}
	return true
}

func handleCatalog(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireCatalog(deps, w) {
			return
		}
		cat := deps.App.Catalog()
		tags := cat.Tags()
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, CatalogResponse{
			State:    deps.App.State().String(),
			Artworks: cat.Artworks(),
			Tags:     tags,
		})
	}
}

func handleCatalogReload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Loader == nil {
			httpError(w, http.StatusNotImplemented, errTypeAPI, "catalog reload not configured")
			return
		}
		if err := deps.App.ReloadCatalog(r.Context(), deps.Loader); err != nil {
			httpError(w, http.StatusServiceUnavailable, errTypeUnavailable, "reloading catalog: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"state":    deps.App.State().String(),
			"artworks": deps.App.Catalog().Len(),
		})
	}
}

func handleTags(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireCatalog(deps, w) {
			return
		}
		tags := deps.App.Catalog().Tags()
		if tags == nil {
			tags = []string{}
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func handleGridJSON(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireCatalog(deps, w) {
			return
		}
		grid, filters := deps.App.Grid(r.URL.Query().Get("tag"))
		writeJSON(w, http.StatusOK, GridResponse{GridView: grid, Filters: filters})
	}
}

func handleArtworkJSON(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireCatalog(deps, w) {
			return
		}
		i, ok := artworkIndex(deps, r)
		if !ok {
			httpError(w, http.StatusNotFound, errTypeNotFound, "artwork %q not found", chi.URLParam(r, "id"))
			return
		}
		d, err := deps.App.Artwork(i)
		if err != nil {
			httpError(w, http.StatusNotFound, errTypeNotFound, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// artworkIndex resolves {id} to a catalog index. A numeric id that is not a
// known artwork id is taken as an index.
func artworkIndex(deps Deps, r *http.Request) (int, bool) {
	id := chi.URLParam(r, "id")
	cat := deps.App.Catalog()
	if i, ok := cat.Index(id); ok {
		return i, true
	}
	i, err := strconv.Atoi(id)
	if err != nil || i < 0 || i >= cat.Len() {
		return 0, false
	}
	return i, true
}

func handleListComments(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireCatalog(deps, w) {
			return
		}
		id := chi.URLParam(r, "id")
		if _, ok := deps.App.Catalog().Index(id); !ok {
			httpError(w, http.StatusNotFound, errTypeNotFound, "%v: %q", gallery.ErrUnknownArtwork, id)
			return
		}
		writeJSON(w, http.StatusOK, deps.App.Comments(id))
	}
}

func handleAddComment(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireCatalog(deps, w) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
		defer r.Body.Close()

		var in social.CommentInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httpError(w, http.StatusBadRequest, errTypeInvalidRequest, "invalid request body: %v", err)
			return
		}
		in.ArtworkID = chi.URLParam(r, "id")

		c, err := deps.App.AddComment(r.Context(), in)
		if err != nil {
			writeSubmitError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleListReviews(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.App.Reviews())
	}
}

func handleAddReview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
		defer r.Body.Close()

		var in social.ReviewInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httpError(w, http.StatusBadRequest, errTypeInvalidRequest, "invalid request body: %v", err)
			return
		}

		rv, err := deps.App.AddReview(r.Context(), in)
		if err != nil {
			writeSubmitError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rv)
	}
}

func handleReviewSummary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.App.ReviewSummary())
	}
}

func writeSubmitError(w http.ResponseWriter, err error) {
	var verr *social.ValidationError
	switch {
	case errors.As(err, &verr):
		validationError(w, verr.Fields)
	case errors.Is(err, gallery.ErrUnknownArtwork):
		httpError(w, http.StatusNotFound, errTypeNotFound, "%v", err)
	case errors.Is(err, social.ErrPersist):
		httpError(w, http.StatusInternalServerError, errTypeStorage, "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, errTypeAPI, "%v", err)
	}
}

func handleExportJSON(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, name, err := deps.App.Export()
		if err != nil {
			httpError(w, http.StatusInternalServerError, errTypeAPI, "export failed: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		w.Write(data)
	}
}

func handleImportJSON(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, errTypeInvalidRequest, "reading request body: %v", err)
			return
		}

		res, err := deps.App.Import(data)
		switch {
		case errors.Is(err, backup.ErrMalformed):
			httpError(w, http.StatusBadRequest, errTypeMalformed, "invalid backup file: %v", err)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, errTypeStorage, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleBackupRuns(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Runs == nil {
			writeJSON(w, http.StatusOK, []storage.BackupRun{})
			return
		}

		limit := 20
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, errTypeInvalidRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, 200)
		}

		runs, err := deps.Runs.ListBackupRuns(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, errTypeStorage, "listing backup runs: %v", err)
			return
		}
		if runs == nil {
			runs = []storage.BackupRun{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}
