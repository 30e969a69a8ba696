package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/atelier/internal/gallery"
	"github.com/kalambet/atelier/internal/social"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	App *gallery.App
}

// NewMCPServer creates an MCP server with the gallery tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"atelier",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("atelier: browse an artist's portfolio, read and leave comments and reviews."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_artworks",
			mcp.WithDescription("List artworks in the gallery grid, optionally filtered by an exact tag."),
			mcp.WithString("tag", mcp.Description(`Tag to filter by; "all" shows everything, omitting it keeps the current filter`)),
		),
		mcpListArtworks(deps),
	)

	s.AddTool(
		mcp.NewTool("open_artwork",
			mcp.WithDescription("Open an artwork in the lightbox by catalog index and return its details and comments."),
			mcp.WithNumber("index", mcp.Description("Zero-based catalog index"), mcp.Required()),
		),
		mcpOpenArtwork(deps),
	)

	s.AddTool(
		mcp.NewTool("navigate",
			mcp.WithDescription("Move the open lightbox. Navigation wraps around the catalog."),
			mcp.WithString("direction",
				mcp.Description("next, previous, or close; the lightbox keys Escape, ArrowLeft and ArrowRight are accepted too"),
				mcp.Enum("next", "previous", "close", gallery.KeyEscape, gallery.KeyArrowLeft, gallery.KeyArrowRight),
				mcp.Required(),
			),
		),
		mcpNavigate(deps),
	)

	s.AddTool(
		mcp.NewTool("list_comments",
			mcp.WithDescription("List comments for one artwork, newest first."),
			mcp.WithString("artwork_id", mcp.Description("Artwork id"), mcp.Required()),
		),
		mcpListComments(deps),
	)

	s.AddTool(
		mcp.NewTool("add_comment",
			mcp.WithDescription("Post a comment on an artwork."),
			mcp.WithString("artwork_id", mcp.Description("Artwork id"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Commenter name"), mcp.Required()),
			mcp.WithString("email", mcp.Description("Optional email, never displayed")),
			mcp.WithString("text", mcp.Description("Comment text"), mcp.Required()),
		),
		mcpAddComment(deps),
	)

	s.AddTool(
		mcp.NewTool("list_reviews",
			mcp.WithDescription("List gallery reviews, newest first."),
		),
		mcpListReviews(deps),
	)

	s.AddTool(
		mcp.NewTool("add_review",
			mcp.WithDescription("Leave a 1-5 star review of the gallery."),
			mcp.WithString("name", mcp.Description("Reviewer name"), mcp.Required()),
			mcp.WithNumber("rating", mcp.Description("Rating from 1 to 5"), mcp.Required()),
			mcp.WithString("text", mcp.Description("Review text"), mcp.Required()),
		),
		mcpAddReview(deps),
	)

	s.AddTool(
		mcp.NewTool("review_summary",
			mcp.WithDescription("Return the mean rating, review count and star display value."),
		),
		mcpReviewSummary(deps),
	)

	s.AddTool(
		mcp.NewTool("export_backup",
			mcp.WithDescription("Export all comments and reviews as a backup JSON document."),
		),
		mcpExportBackup(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"gallery://catalog",
			"Gallery Catalog",
			mcp.WithResourceDescription("All artworks and the tag universe as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(deps),
	)

	return s
}

func mcpListArtworks(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := deps.App.LoadError(); err != nil {
			return mcpError(fmt.Sprintf("catalog unavailable: %v", err)), nil
		}
		grid, _ := deps.App.SelectFilter(req.GetString("tag", deps.App.ActiveFilter()))
		return mcpJSON(grid), nil
	}
}

func mcpOpenArtwork(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, err := req.RequireInt("index")
		if err != nil {
			return mcpError("index is required"), nil
		}
		d, err := deps.App.Open(index)
		if err != nil {
			return mcpError(fmt.Sprintf("cannot open artwork: %v", err)), nil
		}
		return mcpJSON(d), nil
	}
}

// navigateKeys maps navigate directions onto lightbox keys.
var navigateKeys = map[string]string{
	"next":                gallery.KeyArrowRight,
	"previous":            gallery.KeyArrowLeft,
	"close":               gallery.KeyEscape,
	gallery.KeyArrowRight: gallery.KeyArrowRight,
	gallery.KeyArrowLeft:  gallery.KeyArrowLeft,
	gallery.KeyEscape:     gallery.KeyEscape,
}

func mcpNavigate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		direction, err := req.RequireString("direction")
		if err != nil {
			return mcpError("direction is required"), nil
		}

		key, ok := navigateKeys[direction]
		if !ok {
			return mcpError(fmt.Sprintf("unknown direction %q", direction)), nil
		}
		handled, err := deps.App.HandleKey(key)
		if err != nil {
			return mcpError(fmt.Sprintf("navigation failed: %v", err)), nil
		}
		if !handled {
			return mcpError("no artwork is open; call open_artwork first"), nil
		}

		d, open := deps.App.Lightbox()
		if !open {
			return mcpText("Lightbox closed"), nil
		}
		return mcpJSON(d), nil
	}
}

func mcpListComments(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("artwork_id")
		if err != nil {
			return mcpError("artwork_id is required"), nil
		}
		return mcpJSON(deps.App.Comments(id)), nil
	}
}

func mcpAddComment(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("artwork_id")
		if err != nil {
			return mcpError("artwork_id is required"), nil
		}

		c, err := deps.App.AddComment(ctx, social.CommentInput{
			ArtworkID: id,
			Name:      req.GetString("name", ""),
			Email:     req.GetString("email", ""),
			Text:      req.GetString("text", ""),
		})
		if err != nil {
			return mcpSubmitError(err), nil
		}
		return mcpText(fmt.Sprintf("Posted comment %s on %s", c.ID, c.ArtworkID)), nil
	}
}

func mcpListReviews(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(deps.App.Reviews()), nil
	}
}

func mcpAddReview(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rv, err := deps.App.AddReview(ctx, social.ReviewInput{
			Name:   req.GetString("name", ""),
			Rating: req.GetInt("rating", 0),
			Text:   req.GetString("text", ""),
		})
		if err != nil {
			return mcpSubmitError(err), nil
		}
		return mcpText(fmt.Sprintf("Saved %d-star review %s", rv.Rating, rv.ID)), nil
	}
}

func mcpReviewSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(deps.App.ReviewSummary()), nil
	}
}

func mcpExportBackup(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _, err := deps.App.Export()
		if err != nil {
			return mcpError(fmt.Sprintf("export failed: %v", err)), nil
		}
		return mcpText(string(data)), nil
	}
}

func mcpResourceCatalog(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if err := deps.App.LoadError(); err != nil {
			return nil, fmt.Errorf("catalog unavailable: %w", err)
		}
		cat := deps.App.Catalog()
		tags := cat.Tags()
		if tags == nil {
			tags = []string{}
		}

		b, err := json.Marshal(CatalogResponse{
			State:    deps.App.State().String(),
			Artworks: cat.Artworks(),
			Tags:     tags,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpSubmitError(err error) *mcp.CallToolResult {
	var verr *social.ValidationError
	if errors.As(err, &verr) {
		return mcpError(verr.Error())
	}
	return mcpError(fmt.Sprintf("failed to save: %v", err))
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
