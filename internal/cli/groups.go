package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
)

// groupsCommand manages the style groups of a document.
func (c *CLI) groupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List and edit the style groups of a document",
	}
	cmd.AddCommand(c.groupsListCommand())
	cmd.AddCommand(c.groupsDefineCommand())
	cmd.AddCommand(c.groupsUpdateCommand())
	cmd.AddCommand(c.groupsRemoveCommand())
	return cmd
}

func (c *CLI) groupsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "list <file>",
		Short:             "List groups and how many entities use them",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			usage := groupUsage(s.Stack.Root(), s.Groups)
			rows := make([][]string, 0, s.Groups.Len())
			for _, g := range s.Groups.All() {
				rows = append(rows, []string{
					g.Key,
					g.Title,
					swatch(g.Color) + " " + g.Color,
					fmt.Sprintf("%g", g.Radius),
					fmt.Sprintf("%d", usage[g.Key]),
					g.Description,
				})
			}
			printTable([]string{"Key", "Title", "Color", "Radius", "Entities", "Description"}, rows)
			return nil
		},
	}
}

// groupFlags are the editable group properties.
type groupFlags struct {
	title, color, description string
	radius                    float64
}

func (f *groupFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "display title")
	cmd.Flags().StringVar(&f.color, "color", "", "hex color, e.g. #22c55e")
	cmd.Flags().Float64Var(&f.radius, "radius", 0, "entity radius")
	cmd.Flags().StringVar(&f.description, "description", "", "free-form description")
}

func (f *groupFlags) validate() error {
	if f.color != "" {
		if err := errors.ValidateColor(f.color); err != nil {
			return err
		}
	}
	if f.radius != 0 {
		return errors.ValidateRadius(f.radius)
	}
	return nil
}

func (c *CLI) groupsDefineCommand() *cobra.Command {
	var flags groupFlags

	cmd := &cobra.Command{
		Use:   "define <file> [key]",
		Short: "Create or replace a group",
		Long: `Create or replace a group.

Without a key the group is added the way the editor adds one: under a fresh
id, with color ` + "#3b82f6" + ` and radius 25 unless given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var key string
			if len(args) == 2 {
				key = args[1]
				s.Groups.Define(key, groups.Props{
					Title:       flags.title,
					Color:       flags.color,
					Radius:      flags.radius,
					Description: flags.description,
				})
			} else {
				s.Builder.Enable()
				k, ok := s.Builder.AddGroup(flags.title, flags.color, flags.radius)
				if !ok {
					return errors.New(errors.ErrCodeInternal, "group not added")
				}
				key = k
				if flags.description != "" {
					s.Groups.Update(key, groups.Patch{Description: &flags.description})
				}
			}

			if err := s.SaveFile(args[0]); err != nil {
				return err
			}
			g, _ := s.Groups.Get(key)
			printSuccess("Defined group %s %s", swatch(g.Color), StyleHighlight.Render(g.Title))
			printKeyValue("key", key)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) groupsUpdateCommand() *cobra.Command {
	var flags groupFlags

	cmd := &cobra.Command{
		Use:   "update <file> <key>",
		Short: "Change properties of an existing group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var p groups.Patch
			changed := cmd.Flags().Changed
			if changed("title") {
				p.Title = &flags.title
			}
			if changed("color") {
				p.Color = &flags.color
			}
			if changed("radius") {
				p.Radius = &flags.radius
			}
			if changed("description") {
				p.Description = &flags.description
			}
			if !s.Groups.Update(args[1], p) {
				return errors.New(errors.ErrCodeNotFound, "no group %q in %s", args[1], args[0])
			}
			if err := s.SaveFile(args[0]); err != nil {
				return err
			}
			printSuccess("Updated group %s", args[1])
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) groupsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file> <key>",
		Short: "Remove a group; its entities fall back to the default group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[1]
			if key == groups.DefaultKey {
				return errors.New(errors.ErrCodeInvalidInput, "the default group cannot be removed")
			}
			s, err := c.openDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			users := groupUsage(s.Stack.Root(), s.Groups)[key]
			if !s.Groups.Remove(key) {
				return errors.New(errors.ErrCodeNotFound, "no group %q in %s", key, args[0])
			}
			if err := s.SaveFile(args[0]); err != nil {
				return err
			}
			printSuccess("Removed group %s", key)
			if users > 0 {
				printWarning("%d entities now use the default group", users)
			}
			return nil
		},
	}
}

// groupUsage counts entities per resolved group key across all levels.
func groupUsage(root *graph.Graph, reg *groups.Registry) map[string]int {
	usage := make(map[string]int)
	root.Walk(func(g *graph.Graph, _ int) bool {
		for _, e := range g.Nodes {
			usage[reg.ResolveKey(e.Group)]++
		}
		return true
	})
	return usage
}
