package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/repl"
)

func newReplCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start interactive mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatch := func(args []string) error {
				root := NewRootCommand()
				root.SetArgs(args)
				err := root.Execute()
				if errors.Is(err, ErrNoMatches) {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
					return nil
				}
				return err
			}
			return repl.New(opts.cfg, opts.book, dispatch).Run()
		},
	}
}
