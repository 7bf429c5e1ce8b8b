// vecfall selects an embedding backend from a fallback chain and serves
// embedding and similarity search over it.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/marekhanus/vecfall/builtin"
	"github.com/marekhanus/vecfall/internal/backend"
	"github.com/marekhanus/vecfall/internal/config"
	"github.com/marekhanus/vecfall/internal/mcp"
	"github.com/marekhanus/vecfall/pkg/plugin/host"
	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

var (
	version   = "0.1.0"
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vecfall",
	Short: "Embedding backend selection with fallback",
	Long: `vecfall selects a text-embedding backend from an ordered fallback
chain (Jina AI, OpenAI, local Ollama) and exposes embedding and
similarity search over the selected backend.

Remote backends are tried when their API key is configured; a local
Ollama server is always the terminal fallback.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vecfall %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var embedCmd = &cobra.Command{
	Use:   "embed [text]",
	Short: "Embed a text and print the vector",
	Long:  `Embed a text and print the vector as JSON. Reads stdin when no text argument is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := textFromArgsOrStdin(args)
		if err != nil {
			return err
		}
		return runEmbed(cmd.Context(), text)
	},
}

var storeCmd = &cobra.Command{
	Use:   "store <id> [text]",
	Short: "Embed a document and store it for similarity search",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := textFromArgsOrStdin(args[1:])
		if err != nil {
			return err
		}
		return runStore(cmd.Context(), args[0], text)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find stored documents similar to a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runSearch(cmd.Context(), args[0], limit)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Try every embedding backend and report availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the selected backend and store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigPath(".")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Save(".", config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, warnings, err := config.Load(".")
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Printf("Warning: %s\n", w)
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				fmt.Printf("Error: %v\n", e)
			}
			return fmt.Errorf("config is invalid")
		}
		fmt.Println("Config is valid")
		return nil
	},
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage external embedding plugins",
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := pluginsDir()
		if err != nil {
			return err
		}

		manager := host.NewManager(dir)
		plugins, err := manager.DiscoverPlugins()
		if err != nil {
			return err
		}
		if len(plugins) == 0 {
			fmt.Printf("No plugins found in %s\n", dir)
			return nil
		}
		for _, p := range plugins {
			fmt.Println(p)
		}
		return nil
	},
}

var pluginLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Load a plugin and run a test embed through it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPluginLoad(cmd.Context(), args[0])
	},
}

func pluginsDir() (string, error) {
	cfg, _, err := config.Load(".")
	if err != nil {
		return "", err
	}
	if cfg.Plugins.Dir != "" {
		return cfg.Plugins.Dir, nil
	}
	return config.PluginsDir("."), nil
}

func runPluginLoad(ctx context.Context, name string) error {
	dir, err := pluginsDir()
	if err != nil {
		return err
	}

	manager := host.NewManager(dir)
	defer manager.UnloadAll()

	loaded, err := manager.LoadPlugin(name)
	if err != nil {
		return fmt.Errorf("failed to load plugin: %w", err)
	}

	// Drive the plugin through the same adapter the rest of the code uses.
	p := host.NewEmbeddingAdapter(loaded.Embedding)
	if err := p.Initialize(ctx); err != nil {
		return fmt.Errorf("plugin failed to initialize: %w", err)
	}

	fmt.Printf("Plugin loaded: %s\n", name)
	fmt.Printf("  Name:       %s\n", p.Name())
	fmt.Printf("  Dimensions: %d\n", p.Dimensions())

	fmt.Println("\nTesting embedding...")
	vec, err := p.Embed(ctx, "Hello, world!")
	if err != nil {
		return fmt.Errorf("test embed failed: %w", err)
	}
	fmt.Printf("  Generated embedding of dimension %d\n", len(vec))

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	searchCmd.Flags().Int("limit", 10, "maximum results")

	configCmd.AddCommand(configInitCmd, configValidateCmd)
	pluginCmd.AddCommand(pluginListCmd, pluginLoadCmd)

	rootCmd.AddCommand(versionCmd, embedCmd, storeCmd, searchCmd, doctorCmd, statusCmd, serveCmd, configCmd, pluginCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// selectBackend loads config, resolves environment fallbacks, and runs the
// fallback chain.
func selectBackend(ctx context.Context) (provider.EmbeddingProvider, *config.Config, error) {
	cfg, warnings, err := config.Load(".")
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		slog.Debug(w)
	}
	config.ResolveEnv(cfg)

	candidates := backend.Candidates(&cfg.Embedding, provider.DefaultRegistry)
	p, err := backend.Select(ctx, candidates, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

// openStore creates and initializes the configured vector store.
func openStore(cfg *config.Config) (provider.VectorStore, error) {
	store, err := provider.DefaultRegistry.CreateVectorStore(cfg.Store.Provider)
	if err != nil {
		return nil, err
	}
	path := cfg.Store.Path
	if path == "" {
		path = config.StoreDBPath(".")
	}
	if err := store.Init(path); err != nil {
		return nil, err
	}
	return store, nil
}

func runEmbed(ctx context.Context, text string) error {
	p, _, err := selectBackend(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	vec, err := p.Embed(ctx, text)
	if err != nil {
		return err
	}

	out, _ := json.Marshal(map[string]any{
		"backend":    p.Name(),
		"dimensions": len(vec),
		"embedding":  vec,
	})
	fmt.Println(string(out))
	return nil
}

func runStore(ctx context.Context, id, text string) error {
	p, cfg, err := selectBackend(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	vec, err := p.Embed(ctx, text)
	if err != nil {
		return err
	}

	doc := &types.Document{ID: id, Content: text, Embedding: vec}
	if err := store.Upsert(ctx, []*types.Document{doc}); err != nil {
		return err
	}

	fmt.Printf("Stored document %s (%d dimensions)\n", id, len(vec))
	return nil
}

func runSearch(ctx context.Context, query string, limit int) error {
	p, cfg, err := selectBackend(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	vec, err := p.Embed(ctx, query)
	if err != nil {
		return err
	}

	results, err := store.Query(ctx, vec, limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s  distance=%.4f\n  %s\n", r.Document.ID, r.Distance, firstLine(r.Document.Content))
	}
	return nil
}

func runDoctor(ctx context.Context) error {
	cfg, _, err := config.Load(".")
	if err != nil {
		return err
	}
	config.ResolveEnv(cfg)

	// Doctor reports every backend, even ones the fallback chain would
	// skip for lack of a credential.
	probe := *cfg
	if probe.Embedding.JinaAPIKey == "" {
		probe.Embedding.JinaAPIKey = "-"
	}
	if probe.Embedding.OpenAIAPIKey == "" {
		probe.Embedding.OpenAIAPIKey = "-"
	}
	probe.Embedding.Backend = ""

	failures := 0
	for _, cand := range backend.Candidates(&probe.Embedding, provider.DefaultRegistry) {
		p, err := cand.Build()
		if err == nil {
			err = p.Initialize(ctx)
			p.Close()
		}
		if err != nil {
			failures++
			fmt.Printf("FAIL  %-8s %v\n", cand.Name, err)
		} else {
			fmt.Printf("OK    %-8s %d dimensions\n", cand.Name, p.Dimensions())
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d backend(s) unavailable. Start a local Ollama server or set %s or %s.\n",
			failures, config.EnvJinaAPIKey, config.EnvOpenAIAPIKey)
	}
	return nil
}

func runStatus(ctx context.Context) error {
	p, cfg, err := selectBackend(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Printf("Backend:    %s\n", p.Name())
	fmt.Printf("Dimensions: %d\n", p.Dimensions())

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Store:      %s (%d documents)\n", store.Name(), stats.Documents)
	return nil
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, cfg, err := selectBackend(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := mcp.New(mcp.Config{
		Embedding: p,
		Store:     store,
	})
	if err != nil {
		return err
	}

	// Warn on config edits while serving; the selected backend is kept.
	watcher, err := config.NewWatcher(config.WatcherConfig{
		ProjectRoot: ".",
		OnChange: func(path string) {
			slog.Warn("config file changed, restart to apply", "path", path)
		},
	})
	if err == nil {
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	slog.Info("starting MCP server", "backend", p.Name(), "store", store.Name())
	return srv.ServeStdio()
}

func textFromArgsOrStdin(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no text provided")
	}
	return text, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
