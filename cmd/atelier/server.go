package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/atelier/internal/api"
	"github.com/kalambet/atelier/internal/backup"
	"github.com/kalambet/atelier/internal/catalog"
	"github.com/kalambet/atelier/internal/config"
	"github.com/kalambet/atelier/internal/gallery"
	"github.com/kalambet/atelier/internal/social"
	"github.com/kalambet/atelier/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gallery server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running gallery server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gallery server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "atelier.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// openedStore bundles the configured KV backend with its optional run log.
type openedStore struct {
	kv    storage.KV
	runs  *storage.Store
	close func() error
}

func openStore(ctx context.Context, cfg config.Config) (*openedStore, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return &openedStore{kv: storage.NewMemory(), close: func() error { return nil }}, nil
	case config.BackendRedis:
		r, err := storage.OpenRedis(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return &openedStore{kv: r, close: r.Close}, nil
	default:
		s, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		return &openedStore{kv: s, runs: s, close: s.Close}, nil
	}
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "atelier version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("atelier is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("atelier is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := store.close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	loader := catalog.NewLoader(cfg.Catalog.Source, &http.Client{Timeout: 15 * time.Second})
	app := gallery.Load(ctx, loader, store.kv)
	slog.Info("catalog loaded", "source", cfg.Catalog.Source, "state", app.State(), "artworks", app.Catalog().Len())

	deps := api.Deps{
		App:       app,
		Loader:    loader,
		ImagesDir: cfg.Catalog.ImagesRoot(),
	}
	if deps.ImagesDir == "" && loader.IsRemote() {
		deps.ImageBase = cfg.Catalog.Source
	}
	if store.runs != nil {
		deps.Runs = store.runs
	}
	router, err := api.NewRouter(deps)
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Backup.Schedule != "" {
		var runs backup.RunRecorder
		if store.runs != nil {
			runs = store.runs
		}
		sched := backup.NewScheduler(app.Bridge(), cfg.BackupDir(), cfg.Backup.Schedule, runs)
		go func() {
			if err := sched.Run(ctx); err != nil {
				slog.Error("backup scheduler stopped", "error", err)
			}
		}()
	}

	if withMCP {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(api.MCPDeps{App: app}))
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "atelier listening on http://%s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("atelier is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop atelier (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to atelier (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Catalog", "%s", cfg.Catalog.Source)
	printStatus("Store", "%s", cfg.Store.Backend)
	if cfg.Backup.Schedule != "" {
		printStatus("Backups", "%s into %s", cfg.Backup.Schedule, cfg.BackupDir())
	} else {
		printStatus("Backups", "manual only")
	}

	if running {
		c := &apiClient{baseURL: serverURL + "/api", httpClient: client}
		if err := printGalleryStats(context.Background(), c, os.Stderr); err != nil {
			printStatus("Gallery", "unavailable (%v)", err)
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func printGalleryStats(ctx context.Context, c *apiClient, w io.Writer) error {
	resp, err := c.get(ctx, "/catalog")
	if err != nil {
		return err
	}
	var cat api.CatalogResponse
	if err := decodeJSON(resp, &cat); err != nil {
		return err
	}
	fmt.Fprintf(w, "  %s %d artworks, %d tags\n", colorize(colorBold, "Gallery:"), len(cat.Artworks), len(cat.Tags))

	resp, err = c.get(ctx, "/reviews/summary")
	if err != nil {
		return err
	}
	var sum social.Summary
	if err := decodeJSON(resp, &sum); err != nil {
		return err
	}
	fmt.Fprintf(w, "  %s %d (average %.1f)\n", colorize(colorBold, "Reviews:"), sum.Count, sum.Mean)
	return nil
}
