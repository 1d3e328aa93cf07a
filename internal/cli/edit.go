package cli

import (
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/matzehuels/drilldown/internal/config"
	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/session"
)

// editCommand opens the interactive terminal builder.
func (c *CLI) editCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a document in the terminal builder",
		Long: `Edit a document in the terminal builder.

Without a file the most recently edited document is reopened. A file that
does not exist yet is created on the first save.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return errors.New(errors.ErrCodeInvalidInput, "edit needs an interactive terminal")
			}
			ctx := cmd.Context()

			dir, err := config.Dir()
			if err != nil {
				return err
			}
			recent, err := session.NewRecentStore(dir)
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				last, ok, err := recent.Last()
				if err != nil {
					return err
				}
				if !ok {
					return errors.New(errors.ErrCodeInvalidInput, "no recent document, pass a file")
				}
				path = last.Path
			}

			var s *session.Session
			if _, err := os.Stat(path); err == nil {
				if s, err = c.openDocument(ctx, path); err != nil {
					return err
				}
			} else {
				if title == "" {
					title = titleFromPath(path)
				}
				s = c.newSession(title)
			}

			// The logger would draw over the alternate screen; route it
			// into the status bar while the editor runs.
			status := &statusLog{}
			c.Logger.SetOutput(status)
			m := newEditor(s, path, c.cfg.LayoutOptions(), status)
			_, runErr := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			c.Logger.SetOutput(os.Stderr)
			if runErr != nil {
				return runErr
			}

			if s.Dirty() {
				save := true
				confirm := huh.NewConfirm().
					Title("Save changes to " + path + "?").
					Affirmative("Save").
					Negative("Discard").
					Value(&save)
				if err := confirm.Run(); err != nil {
					return err
				}
				if save {
					if err := s.SaveFile(path); err != nil {
						return err
					}
					printSuccess("Saved %s", path)
				}
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			return recent.Touch(path, s.Title())
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "title for a new document")
	return cmd
}

// titleFromPath turns "payments-platform.json" into "Payments Platform".
func titleFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = groups.Capitalize(w)
	}
	return strings.Join(words, " ")
}
