package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/io"
	"github.com/matzehuels/drilldown/pkg/storage"
)

// saveCommand copies a document file into the storage backend.
func (c *CLI) saveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <file> [key]",
		Short: "Store a document in the storage backend",
		Long: `Store a document in the storage backend.

The key defaults to a slug of the document title.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openDocument(ctx, args[0])
			if err != nil {
				return err
			}
			key := groups.Slug(s.Title())
			if len(args) == 2 {
				key = args[1]
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := s.Save(ctx, st, key); err != nil {
				return err
			}
			printSuccess("Saved %s", StyleHighlight.Render(s.Title()))
			printKeyValue("key", key)
			printKeyValue("backend", st.Backend().Name())
			return nil
		},
	}
}

// loadCommand writes a stored document to a file.
func (c *CLI) loadCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "load <key> [file]",
		Short:             "Write a stored document to a file",
		Long:              "Write a stored document to a file (default <key>.json, - for stdout).",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeStoredKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]
			path := key + ".json"
			if len(args) == 2 {
				path = args[1]
			}
			if path != "-" && !force {
				if _, err := os.Stat(path); err == nil {
					return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
				}
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			s := c.newSession("")
			if _, err := s.Load(ctx, st, key); err != nil {
				return err
			}
			if path == "-" {
				return s.Serializer.Write(stdout, io.FormatJSON)
			}
			if err := s.SaveFile(path); err != nil {
				return err
			}
			printSuccess("Loaded %s", StyleHighlight.Render(s.Title()))
			printFile(path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// storeCommand manages the storage backend.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and clean the storage backend",
	}
	cmd.AddCommand(c.storeKeysCommand())
	cmd.AddCommand(c.storeRemoveCommand())
	cmd.AddCommand(c.storeClearCommand())
	cmd.AddCommand(c.storePathCommand())
	return cmd
}

func (c *CLI) storeKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored document keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			keys, err := st.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(stdout, k)
			}
			return nil
		},
	}
}

func (c *CLI) storeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <key>...",
		Short:             "Remove stored documents",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeStoredKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			for _, key := range args {
				found, err := st.Has(ctx, key)
				if err != nil {
					return err
				}
				if !found {
					return errors.New(errors.ErrCodeNotFound, "no document stored under %q", key)
				}
				if err := st.Remove(ctx, key); err != nil {
					return err
				}
				printSuccess("Removed %s", key)
			}
			return nil
		},
	}
}

func (c *CLI) storeClearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored document under the configured prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Size(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("Store is empty")
				return nil
			}
			if !yes {
				if !isTerminal(os.Stdin) {
					return errors.New(errors.ErrCodeInvalidInput, "refusing to clear %d documents without --yes", n)
				}
				confirm := huh.NewConfirm().
					Title(fmt.Sprintf("Remove %d stored documents?", n)).
					Affirmative("Remove").
					Negative("Keep").
					Value(&yes)
				if err := confirm.Run(); err != nil {
					return err
				}
				if !yes {
					printInfo("Nothing removed")
					return nil
				}
			}
			if err := st.Clear(ctx); err != nil {
				return err
			}
			printSuccess("Cleared %d documents", n)
			printDetail("Backend: %s, prefix %s", st.Backend().Name(), st.Prefix())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the configured backend keeps documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := c.cfg.StorageOptions()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, storeLocation(opts))
			return nil
		},
	}
}

// storeLocation describes where a backend keeps its data.
func storeLocation(opts storage.Options) string {
	switch opts.Backend {
	case storage.KindFile:
		return opts.Dir
	case storage.KindSQLite:
		return opts.Path
	case storage.KindRedis:
		return fmt.Sprintf("redis://%s/%d", opts.RedisAddr, opts.RedisDB)
	case storage.KindMongo:
		return fmt.Sprintf("%s (%s.%s)", opts.MongoURI, opts.Database, opts.Collection)
	}
	return "(in memory)"
}
