package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/render"
	"github.com/matzehuels/drilldown/pkg/render/nodelink"
	"github.com/matzehuels/drilldown/pkg/session"
)

const (
	engineNative   = "native"   // force layout drawn with svgo / gg
	engineGraphviz = "graphviz" // DOT laid out by graphviz
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	format    string // svg, png, dot
	engine    string
	drill     []string // entity ids or labels to drill into before drawing
	width     float64
	height    float64
	scale     float64 // png only
	handdrawn bool
	noLegend  bool
	detailed  bool // graphviz/dot: descriptions in node labels
	recursive bool // graphviz/dot: nested graphs as clusters
}

// renderCommand draws one level of a document.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: "svg", engine: engineNative, scale: 2}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw a document level as SVG, PNG or DOT",
		Long: `Draw a document level as SVG, PNG or DOT.

The root graph is drawn unless --drill names a path of nested entities, e.g.
--drill api,auth draws the graph inside "auth", which lives inside "api".`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			if opts.output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				opts.output = base + "." + opts.format
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default <file>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, png, dot")
	cmd.Flags().StringVarP(&opts.engine, "engine", "e", opts.engine, "svg engine: native, graphviz")
	cmd.Flags().StringSliceVar(&opts.drill, "drill", nil, "entities to drill into before drawing (comma-separated)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "pixel density for png")
	cmd.Flags().BoolVar(&opts.handdrawn, "handdrawn", false, "use the hand-drawn font")
	cmd.Flags().BoolVar(&opts.noLegend, "no-legend", false, "omit the group legend")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include descriptions (graphviz, dot)")
	cmd.Flags().BoolVar(&opts.recursive, "recursive", false, "draw nested graphs as clusters (graphviz, dot)")
	return cmd
}

func (o *renderOpts) validate() error {
	switch o.format {
	case "svg", "png", "dot":
	default:
		return errors.New(errors.ErrCodeUnsupported, "invalid format %q (must be svg, png or dot)", o.format)
	}
	switch o.engine {
	case engineNative, engineGraphviz:
	default:
		return errors.New(errors.ErrCodeUnsupported, "invalid engine %q (must be native or graphviz)", o.engine)
	}
	if o.engine == engineGraphviz && o.format == "png" {
		return errors.New(errors.ErrCodeUnsupported, "png output needs the native engine")
	}
	if o.scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive")
	}
	return nil
}

func (c *CLI) runRender(ctx context.Context, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	s, err := c.openDocument(ctx, path)
	if err != nil {
		return err
	}
	if err := drillPath(s, opts.drill); err != nil {
		return err
	}

	data, err := c.draw(ctx, s, opts)
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, data); err != nil {
		return err
	}
	if opts.output != "-" {
		prog.done("Rendered " + s.Stack.Path(" › "))
		printFile(opts.output)
	}
	return nil
}

func (c *CLI) draw(ctx context.Context, s *session.Session, opts *renderOpts) ([]byte, error) {
	current := s.Model.Current()
	dotOpts := nodelink.Options{Detailed: opts.detailed, Recursive: opts.recursive}

	switch {
	case opts.format == "dot":
		return []byte(nodelink.ToDOT(current, s.Groups, dotOpts)), nil

	case opts.engine == engineGraphviz:
		spinner := newSpinnerWithContext(ctx, "Running graphviz...")
		spinner.Start()
		defer spinner.Stop()
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(current, s.Groups, dotOpts))
	}

	lo := c.cfg.LayoutOptions()
	if opts.width > 0 {
		lo.Width = opts.width
	}
	if opts.height > 0 {
		lo.Height = opts.height
	}
	scene := render.NewScene(current, s.Groups, render.Options{
		Title:     s.Title(),
		Layout:    lo,
		NoLegend:  opts.noLegend,
		Handdrawn: opts.handdrawn,
	})

	var buf bytes.Buffer
	if opts.format == "png" {
		if err := render.WritePNG(&buf, scene, opts.scale); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
		}
		return buf.Bytes(), nil
	}
	if err := render.WriteSVG(&buf, scene); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drillPath opens the nested graphs named by path, one level per element.
// Only existing nested graphs are entered.
func drillPath(s *session.Session, path []string) error {
	for _, q := range path {
		id := q
		if _, ok := s.Model.Entity(q); !ok {
			id = ""
			for _, e := range s.Model.Current().Nodes {
				if strings.EqualFold(e.Label, q) {
					id = e.ID
					break
				}
			}
		}
		if id == "" {
			return errors.New(errors.ErrCodeNotFound, "no entity %q in %s", q, s.Model.Current().Label)
		}
		if !s.Builder.Drill(id) {
			return errors.New(errors.ErrCodeInvalidInput, "entity %q has no nested graph", q)
		}
	}
	return nil
}
