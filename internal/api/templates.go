package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/atelier/internal/gallery"
	"github.com/kalambet/atelier/internal/social"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"gallery.html", "artwork.html", "reviews.html", "error.html"}

var templateFuncs = template.FuncMap{
	"stars": stars,
	"date": func(t time.Time) string {
		return t.Local().Format("Jan 2, 2006 15:04")
	},
	"orNA": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return gallery.NotAvailable
		}
		return s
	},
	"inc":      func(i int) int { return i + 1 },
	"imageSrc": imageSrc,
	"ratings": func() []int {
		out := make([]int, 0, social.MaxRating-social.MinRating+1)
		for r := social.MinRating; r <= social.MaxRating; r++ {
			out = append(out, r)
		}
		return out
	},
}

// imageSrc maps a catalog image reference to a URL the browser can load.
// Absolute URLs pass through; relative paths are served under /images/.
func imageSrc(ref string) string {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "/"):
		return ref
	default:
		return "/images/" + strings.TrimPrefix(ref, "./")
	}
}

// stars renders a 0-5 rating as filled and empty stars.
func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > social.MaxRating {
		n = social.MaxRating
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", social.MaxRating-n)
}

type pages map[string]*template.Template

func parsePages() (pages, error) {
	base, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	out := make(pages, len(pageNames))
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// render executes the page into a buffer first so a template error can
// still produce a clean 500.
func (p pages) render(w http.ResponseWriter, code int, name string, data any) {
	t, ok := p[name]
	if !ok {
		http.Error(w, "unknown page "+name, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("rendering page", "page", name, "error", err)
		http.Error(w, "internal error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}
