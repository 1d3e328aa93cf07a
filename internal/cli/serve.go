package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/drilldown/internal/server"
	"github.com/matzehuels/drilldown/internal/watch"
	"github.com/matzehuels/drilldown/pkg/render"
	"github.com/matzehuels/drilldown/pkg/session"
)

type serveOpts struct {
	addr    string
	watch   bool
	noStore bool
	cors    []string
}

// serveCommand exposes one editing session over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a document over the HTTP API",
		Long: `Serve a document over the HTTP API.

With a file argument the document is loaded from it; --watch reloads it
whenever the file changes on disk. Without a file an empty document is
served. Metrics are exposed at /metrics.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if !cmd.Flags().Changed("addr") {
				opts.addr = c.cfg.Server.Addr
			}
			if !cmd.Flags().Changed("watch") {
				opts.watch = c.cfg.Server.Watch
			}
			if !cmd.Flags().Changed("cors") {
				opts.cors = c.cfg.Server.CORSOrigins
			}

			var sess *session.Session
			if len(args) == 1 {
				s, err := c.openDocument(ctx, args[0])
				if err != nil {
					return err
				}
				sess = s
			} else {
				sess = c.newSession("")
			}

			metrics := server.NewMetrics(metricsNamespace)
			metrics.Install()

			cfg := server.Config{
				Session:     sess,
				Metrics:     metrics,
				CORSOrigins: opts.cors,
				Scene:       render.Options{Title: sess.Title(), Layout: c.cfg.LayoutOptions()},
				Logger:      logger,
			}
			if !opts.noStore {
				st, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				cfg.Store = st
			}
			srv := server.New(cfg)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(gctx, opts.addr) })
			if opts.watch && len(args) == 1 {
				w := watch.NewFile(args[0], srv.Reload, logger)
				g.Go(func() error { return w.Run(gctx) })
			} else if opts.watch {
				logger.Warn("--watch needs a file argument")
			}

			printSuccess("Serving %s", StyleHighlight.Render(sess.Title()))
			printKeyValue("api", "http://"+opts.addr+"/api/graph")
			printKeyValue("metrics", "http://"+opts.addr+"/metrics")
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:8080", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the file when it changes")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "disable the /api/documents routes")
	cmd.Flags().StringSliceVar(&opts.cors, "cors", nil, "allowed CORS origins (comma-separated)")
	return cmd
}
