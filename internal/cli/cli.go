package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesetter/internal/config"
	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/pipeline"
	"github.com/matzehuels/pagesetter/pkg/render/sink"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pagesetter"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Config is loaded by the root command before any subcommand runs.
	Config config.Config

	configPath string
	verbose    bool
	out        io.Writer
	errOut     io.Writer
}

// New creates a new CLI instance with a default logger writing to w.
// Command output goes to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		out:    os.Stdout,
		errOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner over the configured cache. noCache
// forces the null cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	opts := c.Config.CacheOptions()
	if opts.Backend == cache.BackendFile && opts.Dir == "" {
		dir, err := config.CacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		opts.Dir = dir
	}
	store, err := cache.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", opts.Backend, err)
	}
	return store, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// inputFlags are the load flags shared by every pipeline command.
type inputFlags struct {
	source  string
	preset  string
	zoom    float64
	noCache bool
	refresh bool
}

// options builds pipeline options for input, layering flags over the
// config file.
func (c *CLI) options(input []byte, path string, f inputFlags) pipeline.Options {
	opts := pipeline.Options{
		Source:  f.source,
		Input:   input,
		Zoom:    c.Config.Extract.Zoom,
		Labels:  c.Config.Render.Labels,
		Refresh: f.refresh,
		Logger:  c.Logger,
	}
	if opts.Source == "" {
		opts.Source = sourceFor(path, input)
	}
	if f.zoom > 0 {
		opts.Zoom = f.zoom
	}
	if f.preset != "" {
		opts.Preset = f.preset
	} else {
		opts.Template = c.Config.Template()
	}
	return opts
}

// sourceFor guesses the input source from the file name, falling back to
// sniffing the content.
func sourceFor(path string, data []byte) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return pipeline.SourceCanvasHTML
	case strings.HasSuffix(lower, ".canvas.json"):
		return pipeline.SourceCanvasJSON
	}
	trimmed := strings.TrimSpace(string(data[:min(len(data), 512)]))
	switch {
	case strings.HasPrefix(trimmed, "<"):
		return pipeline.SourceCanvasHTML
	case strings.Contains(trimmed, `"blocks"`):
		return pipeline.SourceDocument
	case strings.Contains(trimmed, `"nodes"`):
		return pipeline.SourceCanvasJSON
	}
	return pipeline.SourceDocument
}

// parseFormats parses a comma-separated format string into a slice. Empty
// selects the configured formats.
func (c *CLI) parseFormats(s string) []string {
	if s == "" {
		return c.Config.Render.Formats
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Files
// =============================================================================

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput creates path, or returns the command output when path is
// empty or "-".
func (c *CLI) openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{c.out}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// basePath derives the base output path. An empty output strips the
// extension from input; a known format extension is stripped from output.
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return appName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	for _, f := range sink.Formats {
		if ext == sink.Extension(f) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
