package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/drilldown/internal/config"
	"github.com/matzehuels/drilldown/pkg/buildinfo"
	"github.com/matzehuels/drilldown/pkg/session"
	"github.com/matzehuels/drilldown/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "drilldown"

	// metricsNamespace prefixes every metric exposed by `serve`.
	metricsNamespace = "drilldown"
)

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

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Drilldown builds nested ecosystem graphs",
		Long: `Drilldown edits ecosystem graphs: entities connected by flows, where any
entity can open into a nested graph of its own. Documents are plain JSON or
YAML files and can be kept in a storage backend.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/drilldown/config.toml)")

	root.AddGroup(
		&cobra.Group{ID: "doc", Title: "Documents:"},
		&cobra.Group{ID: "store", Title: "Storage:"},
	)
	for _, cmd := range []*cobra.Command{
		c.newCommand(),
		c.treeCommand(),
		c.inspectCommand(),
		c.editCommand(),
		c.checkCommand(),
		c.statsCommand(),
		c.exportCommand(),
		c.importCommand(),
		c.renderCommand(),
		c.layoutCommand(),
		c.groupsCommand(),
	} {
		cmd.GroupID = "doc"
		root.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{c.saveCommand(), c.loadCommand(), c.storeCommand()} {
		cmd.GroupID = "store"
		root.AddCommand(cmd)
	}
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the command
// context. An explicit --verbose wins over the configured level.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	switch {
	case c.verbose:
		c.SetLogLevel(LogDebug)
	case cfg.Log.Level != "":
		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			c.Logger.Warn("ignoring log level", "level", cfg.Log.Level, "file", cfg.Path)
		} else {
			c.SetLogLevel(level)
		}
	}
	for _, key := range cfg.Undecoded {
		c.Logger.Warn("unknown config key", "key", key, "file", cfg.Path)
	}
	c.Logger.Debug("config loaded", "file", cfg.Path, "store", cfg.Store.Backend)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Session and Store Factories
// =============================================================================

// newSession returns an empty document seeded with the configured groups.
func (c *CLI) newSession(title string) *session.Session {
	return session.New(session.Options{
		Title:  title,
		Groups: c.cfg.GroupProps(),
		Logger: c.Logger,
	})
}

// openDocument loads the document file at path into a new session.
func (c *CLI) openDocument(ctx context.Context, path string) (*session.Session, error) {
	s := c.newSession("")
	if _, err := s.OpenFile(ctx, path); err != nil {
		return nil, err
	}
	return s, nil
}

// openStore connects the configured storage backend. Remote backends get a
// spinner while they connect.
func (c *CLI) openStore(ctx context.Context) (*storage.Store, error) {
	opts, err := c.cfg.StorageOptions()
	if err != nil {
		return nil, err
	}
	kind := storage.Kind(strings.ToLower(string(opts.Backend)))
	if kind != storage.KindRedis && kind != storage.KindMongo {
		return storage.Open(ctx, opts)
	}

	spinner := newSpinnerWithContext(ctx, "Connecting to "+string(kind)+"...")
	spinner.Start()
	st, err := storage.Open(ctx, opts)
	spinner.Stop()
	return st, err
}

// =============================================================================
// Output Helpers
// =============================================================================

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
