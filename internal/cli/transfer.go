package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/drilldown/pkg/io"
)

// exportCommand writes a document in the current package format.
func (c *CLI) exportCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a document as a metadata + data package",
		Long: `Export a document as a metadata + data package.

Without --output the package is written to "<title>_<date>.<ext>" in the
current directory. Use --output - for stdout.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := io.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := s.Serializer.Marshal(f)
			if err != nil {
				return err
			}
			if output == "" {
				output = s.Serializer.Filename(f)
			}
			if err := writeOutput(output, data); err != nil {
				return err
			}
			if output != "-" {
				printSuccess("Exported %s", StyleHighlight.Render(s.Title()))
				printFile(output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(io.FormatJSON), "package format: json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

// importCommand reads any accepted document shape and writes it back in the
// current format.
func (c *CLI) importCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "import <src> <dst>",
		Short: "Convert a package or legacy document into a drilldown document",
		Long: `Convert a package or legacy document into a drilldown document.

Both the metadata + data package and the bare {nodes, links} shape are
accepted, including legacy field names (desc, type, exportDate). Missing ids,
groups, kinds and directions are filled in. The output format follows the
extension of dst.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.newSession("")
			d, err := s.OpenFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if title != "" {
				s.SetTitle(title)
			}
			if err := s.SaveFile(args[1]); err != nil {
				return err
			}
			root := s.Stack.Root()
			printSuccess("Imported %s (%s document)", StyleHighlight.Render(s.Title()), d.Shape)
			printStats(len(root.Nodes), len(root.Links), countLevels(root))
			printFile(args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "override the document title")
	return cmd
}
