// Package main is the nuvem CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nuvemlab/nuvem/internal/aggregate"
	"github.com/nuvemlab/nuvem/internal/auth"
	"github.com/nuvemlab/nuvem/internal/cli"
	"github.com/nuvemlab/nuvem/internal/config"
	"github.com/nuvemlab/nuvem/internal/models"
	"github.com/nuvemlab/nuvem/internal/report"
	"github.com/nuvemlab/nuvem/internal/server"
	"github.com/nuvemlab/nuvem/internal/store"
	"github.com/nuvemlab/nuvem/internal/watch"
	"github.com/nuvemlab/nuvem/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/nuvem/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "nuvem server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := config.Default()
			config.LoadSecrets(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "submit":
		runSubmit()
	case "top":
		runTop()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("nuvem version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (submissions, board reloads, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("backend", cfg.Storage.Backend),
		zap.Bool("debug", debugMode),
	)

	st, err := store.New(store.Options{
		Backend:      cfg.Storage.Backend,
		DataPath:     cfg.Storage.DataPath,
		DatabasePath: cfg.Storage.DatabasePath,
	})
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	gate := auth.NewGate(cfg.Admin)
	if !gate.Enabled() {
		logger.Warn("admin endpoints disabled: ADMIN_PASS is not set")
	}

	var reporter report.Generator
	gen, err := report.NewGeminiGenerator(context.Background(), cfg.Report)
	if err != nil {
		logger.Fatal("Failed to create report generator", zap.Error(err))
	}
	if gen != nil {
		reporter = gen
	} else {
		logger.Info("report generation disabled: GEMINI_API_KEY is not set")
	}

	hub := server.NewHub()

	// Other processes may rewrite the board file directly; watch it so
	// connected clients still get change events. The sqlite backend has
	// no file to watch, writes there always go through this process.
	var watchSvc *watch.Watcher
	if cfg.Storage.Backend == store.BackendFile || cfg.Storage.Backend == "" {
		watchOpts := []watch.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watch.WithLogger(logger))
		}
		watchSvc = watch.NewWatcher(cfg.Storage.DataPath, hub.Broadcast, watchOpts...)
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start board watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(st, gate, reporter, hub, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSubmissionText joins all positional args with spaces so multi-word
// submissions work the same with or without shell quoting.
func buildSubmissionText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSubmit() {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: nuvem submit [flags] <text>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	text := buildSubmissionText(fs.Args())
	if text == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	entry, err := submitViaHTTP(*serverURL, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Submit failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteEntry(os.Stdout, entry, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func submitViaHTTP(serverURL, text string) (*models.Entry, error) {
	body, err := json.Marshal(models.SubmitRequest{Text: text})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/entries", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var entry models.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &entry, nil
}

func runTop() {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	limit := fs.Int("limit", 0, "number of words (default: server/config top_words)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	var cloud *models.CloudView
	if *serverURL != "" {
		cloud, err = cloudViaHTTP(*serverURL, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Top failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cloud, err = cloudFromStorage(*configPath, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Top failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteCloud(os.Stdout, cloud, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func cloudViaHTTP(serverURL string, limit int) (*models.CloudView, error) {
	url := serverURL + "/api/v1/cloud"
	if limit > 0 {
		url = fmt.Sprintf("%s?limit=%d", url, limit)
	}
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var cloud models.CloudView
	if err := json.NewDecoder(resp.Body).Decode(&cloud); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &cloud, nil
}

// cloudFromStorage reads the board directly, for when the server is not running.
func cloudFromStorage(configPath string, limit int) (*models.CloudView, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	st, err := store.New(store.Options{
		Backend:      cfg.Storage.Backend,
		DataPath:     cfg.Storage.DataPath,
		DatabasePath: cfg.Storage.DatabasePath,
	})
	if err != nil {
		return nil, err
	}
	defer st.Close()

	board, err := st.Load(context.Background())
	if err != nil && !store.IsCorrupt(err) {
		return nil, err
	}
	if limit <= 0 {
		limit = cfg.Cloud.TopWords
	}
	freq := aggregate.Count(board.Entries)
	return &models.CloudView{
		Prompt:      board.Prompt,
		Words:       freq.TopN(limit),
		TotalWords:  freq.Total(),
		UniqueWords: freq.Unique(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	status, err := statusViaHTTP(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(serverURL + "/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

func printUsage() {
	fmt.Println(`nuvem - Live word cloud board

Usage:
  nuvem server [flags]           Start the HTTP server
  nuvem submit [flags] <text>    Submit a word to the board
  nuvem top [flags]              Show the most frequent words
  nuvem status [flags]           Show board/server status
  nuvem version                  Show version
  nuvem help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/nuvem/config.yaml)
  --debug            Enable debug logging (submissions, board reloads, etc.)

Submit Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Top Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --limit int        Number of words to show (default from server/config)
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  nuvem server
  nuvem submit colaboração
  nuvem submit "trabalho em equipe"
  nuvem top --limit 20
  nuvem top --output json            # structured JSON for other apps
  nuvem status`)
}
