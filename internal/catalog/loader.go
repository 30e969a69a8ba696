package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxCatalogSize = 10 << 20 // 10MB

var (
	// ErrUnreachable is returned when the catalog document cannot be fetched.
	ErrUnreachable = errors.New("catalog unreachable")
	// ErrMalformed is returned when the catalog document was fetched but does not parse.
	ErrMalformed = errors.New("catalog malformed")
	// ErrDuplicateID is returned when two artworks share an identifier.
	ErrDuplicateID = errors.New("duplicate artwork id")
)

// Loader fetches and validates the catalog document from Source, which is
// either a local file path or an http(s) URL.
type Loader struct {
	Source     string
	HTTPClient *http.Client
	logger     *slog.Logger
}

// NewLoader creates a Loader for source. A nil client uses http.DefaultClient.
func NewLoader(source string, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{Source: source, HTTPClient: client, logger: slog.Default()}
}

// IsRemote reports whether the source is fetched over HTTP.
func (l *Loader) IsRemote() bool {
	return strings.HasPrefix(l.Source, "http://") || strings.HasPrefix(l.Source, "https://")
}

// Load reads the catalog. A document with no artworks is a successful,
// empty catalog, not an error.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	data, format, err := l.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	artworks, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	cat, err := New(artworks)
	if err != nil {
		return nil, err
	}

	l.logger.Info("catalog loaded", "source", l.Source, "artworks", cat.Len(), "tags", len(cat.Tags()))
	return cat, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, string, error) {
	if !l.IsRemote() {
		data, err := os.ReadFile(l.Source)
		if err != nil {
			return nil, "", err
		}
		return data, formatFromName(l.Source), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Source, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid catalog url: %w", err)
	}
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("catalog url returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, "", fmt.Errorf("reading catalog response: %w", err)
	}

	format := formatFromName(req.URL.Path)
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = "yaml"
	}
	return data, format, nil
}

func formatFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func decode(data []byte, format string) ([]Artwork, error) {
	var doc document
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return doc.Artworks, nil
}
