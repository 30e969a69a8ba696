package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/atelier/internal/backup"
	"github.com/kalambet/atelier/internal/catalog"
	"github.com/kalambet/atelier/internal/config"
	"github.com/kalambet/atelier/internal/social"
)

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the artwork catalog",
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check [source]",
	Short: "Validate the catalog and verify every image reference",
	Long: `Validate the catalog document and verify that every artwork's image exists.

The source defaults to catalog.source from the configuration. Local images are
checked on disk; remote images are checked with a HEAD request.

Examples:
  atelier catalog check
  atelier catalog check ./catalog.yaml
  atelier catalog check https://example.com/gallery/catalog.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		source := cfg.Catalog.Source
		if len(args) == 1 {
			source = args[0]
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = cfg.Catalog.CheckConcurrency
		}

		problems, err := runCatalogCheck(cmd.Context(), source, concurrency, os.Stdout)
		if err != nil {
			return err
		}
		if problems > 0 {
			return fmt.Errorf("%d artwork(s) have problems", problems)
		}
		return nil
	},
}

var catalogTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tags of the served catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runCatalogTags(cmd.Context(), client, os.Stdout)
	},
}

func runCatalogCheck(ctx context.Context, source string, concurrency int, w io.Writer) (int, error) {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	printStep("Loading %s", source)
	cat, err := catalog.NewLoader(source, httpClient).Load(ctx)
	if err != nil {
		return 0, err
	}

	problems, err := catalog.Check(ctx, cat, catalog.ImageResolver{Base: source, HTTPClient: httpClient}, concurrency)
	if err != nil {
		return 0, err
	}

	for _, p := range problems {
		fmt.Fprintf(w, "  #%d %s: %s\n", p.Index, colorize(colorBold, p.ArtworkID), p.Reason)
	}
	if len(problems) == 0 {
		printSuccess("%d artworks, %d tags, all images present", cat.Len(), len(cat.Tags()))
	}
	return len(problems), nil
}

func runCatalogTags(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/tags")
	if err != nil {
		return err
	}
	var tags []string
	if err := decodeJSON(resp, &tags); err != nil {
		return err
	}
	if len(tags) == 0 {
		printWarning("No tags in the catalog")
		return nil
	}
	for _, t := range tags {
		fmt.Fprintln(w, t)
	}
	return nil
}

func init() {
	catalogCheckCmd.Flags().Int("concurrency", 0, "parallel image checks (default: catalog.check_concurrency)")
	catalogCmd.AddCommand(catalogCheckCmd)
	catalogCmd.AddCommand(catalogTagsCmd)
}

// --- comments ---

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Read artwork comments",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <artwork-id>",
	Short: "List comments for one artwork, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runCommentsList(cmd.Context(), client, args[0], os.Stdout)
	},
}

func runCommentsList(ctx context.Context, c *apiClient, artworkID string, w io.Writer) error {
	resp, err := c.get(ctx, "/artworks/"+url.PathEscape(artworkID)+"/comments")
	if err != nil {
		return err
	}
	var comments []social.Comment
	if err := decodeJSON(resp, &comments); err != nil {
		return err
	}
	if len(comments) == 0 {
		printWarning("No comments yet")
		return nil
	}
	for _, cm := range comments {
		fmt.Fprintf(w, "%s  %s\n  %s\n", colorize(colorBold, cm.Name), cm.Date.Local().Format("2006-01-02 15:04"), cm.Text)
	}
	return nil
}

func init() {
	commentsCmd.AddCommand(commentsListCmd)
}

// --- reviews ---

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Read and write site reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reviews, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runReviewsList(cmd.Context(), client, os.Stdout)
	},
}

var reviewsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Submit a review",
	Long: `Submit a review of the gallery.

Examples:
  atelier reviews add --name Ana --rating 5 --text "A joy to browse"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		rating, _ := cmd.Flags().GetInt("rating")
		text, _ := cmd.Flags().GetString("text")
		if name == "" || text == "" || rating == 0 {
			return fmt.Errorf("--name, --rating, and --text are required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runReviewsAdd(cmd.Context(), client, social.ReviewInput{Name: name, Rating: rating, Text: text})
	},
}

var reviewsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the average rating",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runReviewsSummary(cmd.Context(), client, os.Stdout)
	},
}

func runReviewsList(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/reviews")
	if err != nil {
		return err
	}
	var reviews []social.Review
	if err := decodeJSON(resp, &reviews); err != nil {
		return err
	}
	if len(reviews) == 0 {
		printWarning("No reviews yet")
		return nil
	}
	for _, r := range reviews {
		fmt.Fprintf(w, "%s %s  %s\n  %s\n", starBar(r.Rating), colorize(colorBold, r.Name), r.Date.Local().Format("2006-01-02"), r.Text)
	}
	return nil
}

func runReviewsAdd(ctx context.Context, c *apiClient, in social.ReviewInput) error {
	resp, err := c.post(ctx, "/reviews", in)
	if err != nil {
		return err
	}
	var created social.Review
	if err := decodeJSON(resp, &created); err != nil {
		return err
	}
	printSuccess("Review %s saved", created.ID)
	return nil
}

func runReviewsSummary(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/reviews/summary")
	if err != nil {
		return err
	}
	var s social.Summary
	if err := decodeJSON(resp, &s); err != nil {
		return err
	}
	if s.Count == 0 {
		fmt.Fprintln(w, "No reviews yet")
		return nil
	}
	fmt.Fprintf(w, "%s %.1f from %d review(s)\n", starBar(s.Stars), s.Mean, s.Count)
	return nil
}

func init() {
	reviewsAddCmd.Flags().String("name", "", "reviewer name")
	reviewsAddCmd.Flags().Int("rating", 0, "rating from 1 to 5")
	reviewsAddCmd.Flags().String("text", "", "review text")
	reviewsCmd.AddCommand(reviewsListCmd)
	reviewsCmd.AddCommand(reviewsAddCmd)
	reviewsCmd.AddCommand(reviewsSummaryCmd)
}

// --- backup ---

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore comments and reviews",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a backup document",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		path, err := runBackupExport(cmd.Context(), client, output)
		if err != nil {
			return err
		}
		printSuccess("Backup written to %s", path)
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore comments and reviews from a backup document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		res, err := runBackupImport(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		printSuccess("Restored %d comment(s) and %d review(s)", res.Comments, res.Reviews)
		return nil
	},
}

// runBackupExport saves the server's export. An empty output or a directory
// uses the server's suggested file name.
func runBackupExport(ctx context.Context, c *apiClient, output string) (string, error) {
	resp, err := c.get(ctx, "/backup")
	if err != nil {
		return "", err
	}
	data, name, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = backup.FileName(time.Now())
	}

	path := output
	switch {
	case path == "":
		path = name
	case strings.HasSuffix(path, string(os.PathSeparator)):
		path = filepath.Join(path, name)
	default:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, name)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return path, nil
}

func runBackupImport(ctx context.Context, c *apiClient, path string) (backup.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return backup.Result{}, fmt.Errorf("reading backup: %w", err)
	}
	resp, err := c.postRaw(ctx, "/backup", data)
	if err != nil {
		return backup.Result{}, err
	}
	var res backup.Result
	if err := decodeJSON(resp, &res); err != nil {
		return backup.Result{}, err
	}
	return res, nil
}

func init() {
	backupExportCmd.Flags().String("output", "", "output file or directory (default: server-suggested name)")
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "$"+k.EnvVar))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value.\n\nValid keys:\n  " + strings.Join(config.ValidKeys(), "\n  "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
