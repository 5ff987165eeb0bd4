package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	"golang.org/x/sync/errgroup"

	"github.com/movigation/moviesir/internal/api"
	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/config"
	"github.com/movigation/moviesir/internal/embedding"
	"github.com/movigation/moviesir/internal/recommend"
	"github.com/movigation/moviesir/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the moviesir server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running moviesir server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show moviesir system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "moviesir.pid")
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

func runServer() error {
	fmt.Fprintf(os.Stderr, "moviesir version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("moviesir is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("moviesir is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Load the catalog and both embedding tables in parallel.
	var (
		movies       []catalog.Movie
		semIDs       []int64
		semVectors   [][]float32
		graphIDs     []int64
		graphVectors [][]float32
	)
	loadStart := time.Now()
	g, loadCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movies, err = store.LoadMovies(loadCtx)
		if err != nil {
			return fmt.Errorf("loading movies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		semIDs, semVectors, err = store.LoadVectors(loadCtx, storage.SemanticTable)
		if err != nil {
			return fmt.Errorf("loading semantic vectors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		graphIDs, graphVectors, err = store.LoadVectors(loadCtx, storage.GraphTable)
		if err != nil {
			return fmt.Errorf("loading graph vectors: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	cat := catalog.New(movies)
	semantic, err := embedding.NewSpace(semIDs, semVectors)
	if err != nil {
		return fmt.Errorf("building semantic space: %w", err)
	}
	graph, err := embedding.NewSpace(graphIDs, graphVectors)
	if err != nil {
		return fmt.Errorf("building graph space: %w", err)
	}

	engine, err := recommend.New(cat, semantic, graph,
		recommend.WithMinYear(cfg.Engine.MinYear),
		recommend.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	slog.Info("engine ready",
		"movies", cat.Len(),
		"aligned", engine.AlignedCount(),
		"load_time", time.Since(loadStart).Round(time.Millisecond),
	)

	// Build HTTP handler and server.
	handler := api.NewAppHandler(api.AppDeps{
		Engine:        engine,
		Store:         store,
		Catalog:       cat,
		Token:         cfg.Auth.APIToken,
		HistoryWindow: cfg.Engine.HistoryWindow,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Engine:  engine,
		Catalog: cat,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "moviesir listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
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
		printError("moviesir is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop moviesir (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to moviesir (PID %d)", pid)
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

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		defer resp.Body.Close()
		if resp.StatusCode == 200 {
			var health struct {
				Movies int `json:"movies"`
			}
			if json.NewDecoder(resp.Body).Decode(&health) == nil {
				printStatus("Server", "running on port %d", cfg.Server.Port)
				printStatus("Movies", "%d", health.Movies)
			} else {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			}
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Min year", "%d", cfg.Engine.MinYear)
	printStatus("History window", "%d", cfg.Engine.HistoryWindow)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
