package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Problem describes an artwork whose record or image reference is unusable.
type Problem struct {
	Index     int    `json:"index"`
	ArtworkID string `json:"artwork_id"`
	Reason    string `json:"reason"`
}

// ImageResolver turns an artwork's image reference into something checkable.
type ImageResolver struct {
	// Base is the catalog source; relative image references resolve against it.
	Base       string
	HTTPClient *http.Client
}

// Resolve returns either an absolute URL or a local file path for ref.
func (r ImageResolver) Resolve(ref string) (string, bool) {
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return ref, true
	}
	if strings.HasPrefix(r.Base, "http://") || strings.HasPrefix(r.Base, "https://") {
		base, err := url.Parse(r.Base)
		if err != nil {
			return "", false
		}
		ru, err := url.Parse(ref)
		if err != nil {
			return "", false
		}
		return base.ResolveReference(ru).String(), true
	}
	if filepath.IsAbs(ref) {
		return ref, false
	}
	return filepath.Join(filepath.Dir(r.Base), filepath.FromSlash(ref)), false
}

func (r ImageResolver) exists(ctx context.Context, ref string) error {
	target, remote := r.Resolve(ref)
	if target == "" {
		return fmt.Errorf("cannot resolve image reference %q", ref)
	}
	if !remote {
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("image %s: %w", target, err)
		}
		if info.IsDir() {
			return fmt.Errorf("image %s is a directory", target)
		}
		return nil
	}

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("image %s: %w", target, err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("image %s returned status %d", target, resp.StatusCode)
	}
	return nil
}

// Check validates every artwork's required fields and image reference with
// bounded concurrency. Problems are returned in catalog order.
func Check(ctx context.Context, c *Catalog, r ImageResolver, concurrency int) ([]Problem, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]*Problem, c.Len())
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, a := range c.Artworks() {
		i, a := i, a
		if reason := missingFields(a); reason != "" {
			results[i] = &Problem{Index: i, ArtworkID: a.ID, Reason: reason}
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := r.exists(gCtx, a.Image); err != nil {
				results[i] = &Problem{Index: i, ArtworkID: a.ID, Reason: err.Error()}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var problems []Problem
	for _, p := range results {
		if p != nil {
			problems = append(problems, *p)
		}
	}
	return problems, nil
}

func missingFields(a Artwork) string {
	var missing []string
	if strings.TrimSpace(a.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(a.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(a.Image) == "" {
		missing = append(missing, "image")
	}
	if len(missing) == 0 {
		return ""
	}
	return "missing " + strings.Join(missing, ", ")
}
