package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matzehuels/drilldown/pkg/analysis"
	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
)

// newCommand creates an empty document file.
func (c *CLI) newCommand() *cobra.Command {
	var title string
	var force bool

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create an empty document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
			}
			s := c.newSession(title)
			if err := s.SaveFile(path); err != nil {
				return err
			}
			printSuccess("Created %s", StyleHighlight.Render(s.Title()))
			printFile(path)
			printNextStep("Start editing", "drilldown edit "+path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "document title")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// treeCommand prints the nested outline of a document.
func (c *CLI) treeCommand() *cobra.Command {
	var charset string
	opts := treeOptions{width: 48}

	cmd := &cobra.Command{
		Use:               "tree <file>",
		Short:             "Print a document as a nested outline",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, ok := treeCharsets[charset]
			if !ok {
				return errors.New(errors.ErrCodeInvalidInput, "unknown charset %q (want unicode or ascii)", charset)
			}
			opts.charset = cs
			opts.color = isTerminal(os.Stdout)

			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			writeTree(stdout, s.Stack.Root(), s.Groups, opts)
			return nil
		},
	}
	cmd.Flags().StringVar(&charset, "charset", "unicode", "connector glyphs: unicode, ascii")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "nested levels to expand (0 = all)")
	cmd.Flags().BoolVar(&opts.flows, "flows", false, "list outgoing flows under each entity")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "truncate labels to this many columns (0 = no limit)")
	return cmd
}

// inspectCommand shows one entity with its description rendered as markdown.
func (c *CLI) inspectCommand() *cobra.Command {
	var raw bool
	var style string

	cmd := &cobra.Command{
		Use:   "inspect <file> <entity>",
		Short: "Show an entity, its flows and its nested graph",
		Long: `Show an entity, its flows and its nested graph.

The entity is matched by id first, then by label (case-insensitive), across
every level of the document.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			hit, ok := findEntity(s.Stack.Root(), args[1])
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "no entity %q in %s", args[1], args[0])
			}
			md := entityMarkdown(hit, s.Groups)
			if raw {
				_, err := fmt.Fprint(stdout, md)
				return err
			}
			out, err := renderMarkdown(md, style)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(stdout, out)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty")
	return cmd
}

// checkCommand reports referential-integrity problems.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "check <file>",
		Short:             "Check a document for dangling flows and duplicate ids",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			root := s.Stack.Root()
			problems := root.Validate()
			if len(problems) == 0 {
				report := analysis.Analyze(root)
				printSuccess("%s is consistent", args[0])
				printStats(report.Entities, report.Flows, len(report.Levels))
				return nil
			}
			for _, p := range problems {
				where := strings.Join(p.Path, " › ")
				if p.FlowID != "" {
					printError("%s: flow %s: %s", where, p.FlowID, p.Reason)
				} else {
					printError("%s: %s", where, p.Reason)
				}
			}
			return errors.New(errors.ErrCodeInvalidInput, "%d problems in %s", len(problems), args[0])
		},
	}
}

// statsCommand prints structural statistics per level.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "stats <file>",
		Short:             "Print per-level structure statistics",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report := analysis.Analyze(s.Stack.Root())
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintln(stdout, StyleTitle.Render(s.Title()))
			printStats(report.Entities, report.Flows, len(report.Levels))
			rows := make([][]string, 0, len(report.Levels))
			for _, l := range report.Levels {
				hub := "—"
				if l.Hub != "" {
					hub = fmt.Sprintf("%s (%d)", l.Hub, l.HubDegree)
				}
				rows = append(rows, []string{
					strings.Repeat("  ", l.Depth) + l.Label,
					strconv.Itoa(l.Entities),
					strconv.Itoa(l.Flows),
					strconv.Itoa(l.Nested),
					strconv.Itoa(l.Components),
					strconv.Itoa(l.Isolated),
					strconv.Itoa(l.Dangling),
					hub,
				})
			}
			printTable([]string{"Level", "Entities", "Flows", "Nested", "Parts", "Isolated", "Dangling", "Hub"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// =============================================================================
// Helpers
// =============================================================================

// entityHit is an entity located somewhere in a document.
type entityHit struct {
	entity *graph.Entity
	graph  *graph.Graph
	path   []string
}

// findEntity looks for query as an id, then as a label, depth-first.
func findEntity(root *graph.Graph, query string) (entityHit, bool) {
	match := func(e *graph.Entity) bool { return e.ID == query }
	if hit, ok := searchEntity(root, nil, match, map[*graph.Graph]bool{}); ok {
		return hit, true
	}
	match = func(e *graph.Entity) bool { return strings.EqualFold(e.Label, query) }
	return searchEntity(root, nil, match, map[*graph.Graph]bool{})
}

func searchEntity(g *graph.Graph, path []string, match func(*graph.Entity) bool, seen map[*graph.Graph]bool) (entityHit, bool) {
	if g == nil || seen[g] {
		return entityHit{}, false
	}
	seen[g] = true
	path = append(path[:len(path):len(path)], g.Label)
	for _, e := range g.Nodes {
		if match(e) {
			return entityHit{entity: e, graph: g, path: path}, true
		}
	}
	for _, e := range g.Nodes {
		if hit, ok := searchEntity(e.SubGraph, path, match, seen); ok {
			return hit, true
		}
	}
	return entityHit{}, false
}

// entityMarkdown describes an entity as a markdown document.
func entityMarkdown(hit entityHit, reg *groups.Registry) string {
	e := hit.entity
	grp := reg.Resolve(e.Group)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Label)
	fmt.Fprintf(&b, "- **ID:** `%s`\n", e.ID)
	fmt.Fprintf(&b, "- **Group:** %s (`%s`, %s)\n", grp.Title, grp.Key, grp.Color)
	fmt.Fprintf(&b, "- **Level:** %s\n", strings.Join(hit.path, " › "))
	if e.Position != nil {
		fmt.Fprintf(&b, "- **Position:** %.0f, %.0f\n", e.Position.X, e.Position.Y)
	}
	b.WriteString("\n")
	if e.Description != "" {
		b.WriteString(e.Description)
		b.WriteString("\n\n")
	}

	flows := hit.graph.FlowsOf(e.ID)
	if len(flows) > 0 {
		b.WriteString("## Flows\n\n| | Entity | Kind | Direction | Label |\n|---|---|---|---|---|\n")
		for _, f := range flows {
			dir, other := "out", f.Target
			if f.Target == e.ID {
				dir, other = "in", f.Source
			}
			if o, ok := hit.graph.Entity(other); ok {
				other = o.Label
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", dir, other, f.Kind, f.Direction, f.Label)
		}
		b.WriteString("\n")
	}

	if sub := e.SubGraph; sub != nil {
		fmt.Fprintf(&b, "## %s\n\n", sub.Label)
		if len(sub.Nodes) == 0 {
			b.WriteString("_empty_\n")
		}
		for _, child := range sub.Nodes {
			fmt.Fprintf(&b, "- %s\n", child.Label)
		}
	}
	return b.String()
}

// renderMarkdown renders md for the terminal with a glamour style.
func renderMarkdown(md, style string) (string, error) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "markdown style %q", style)
	}
	return r.Render(md)
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
