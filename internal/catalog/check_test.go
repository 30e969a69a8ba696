package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestCheck_LocalImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "images", "a1.jpg"), []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := New([]Artwork{
		{ID: "a1", Title: "Present", Image: "images/a1.jpg"},
		{ID: "a2", Title: "Absent", Image: "images/a2.jpg"},
		{ID: "a3", Title: "", Image: "images/a1.jpg"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := ImageResolver{Base: filepath.Join(dir, "catalog.json")}
	problems, err := Check(context.Background(), cat, r, 2)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	if len(problems) != 2 {
		t.Fatalf("got %d problems, want 2: %+v", len(problems), problems)
	}
	if problems[0].ArtworkID != "a2" {
		t.Errorf("problems[0] = %+v, want a2", problems[0])
	}
	if problems[1].ArtworkID != "a3" || problems[1].Reason != "missing title" {
		t.Errorf("problems[1] = %+v, want a3 missing title", problems[1])
	}
}

func TestCheck_RemoteImages(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if r.URL.Path == "/img/ok.jpg" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(upstream.Close)

	cat, err := New([]Artwork{
		{ID: "ok", Title: "OK", Image: "img/ok.jpg"},
		{ID: "gone", Title: "Gone", Image: upstream.URL + "/img/gone.jpg"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := ImageResolver{Base: upstream.URL + "/catalog.json", HTTPClient: upstream.Client()}
	problems, err := Check(context.Background(), cat, r, 0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(problems) != 1 || problems[0].ArtworkID != "gone" {
		t.Errorf("problems = %+v, want only gone", problems)
	}
}

func TestImageResolver_Resolve(t *testing.T) {
	r := ImageResolver{Base: "https://example.com/gallery/data.json"}
	got, remote := r.Resolve("images/x.jpg")
	if !remote || got != "https://example.com/gallery/images/x.jpg" {
		t.Errorf("Resolve = %q, %v", got, remote)
	}

	r = ImageResolver{Base: "/srv/gallery/data.json"}
	got, remote = r.Resolve("images/x.jpg")
	if remote || got != filepath.Join("/srv/gallery", "images", "x.jpg") {
		t.Errorf("Resolve = %q, %v", got, remote)
	}
}
