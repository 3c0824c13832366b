package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/buildinfo"
)

func newDoctorCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Print diagnostic information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "bookgrep diagnostic information")
			fmt.Fprintf(out, "Version: %s (commit: %s)\n\n", buildinfo.Version, buildinfo.Commit)

			fmt.Fprintf(out, "Book path: %s\n", orUnset(opts.book))
			if opts.book != "" {
				if b, err := opts.openBook(); err != nil {
					fmt.Fprintf(out, "Book error: %v\n", err)
				} else {
					info := b.Info()
					b.Close()
					fmt.Fprintln(out, "Book info:")
					fmt.Fprintf(out, "  Default currency: %s\n", info.DefaultCurrency)
					fmt.Fprintf(out, "  Account count: %d\n", info.AccountCount)
					fmt.Fprintf(out, "  Transaction count: %d\n", info.TransactionCount)
					fmt.Fprintf(out, "  Notes column: %t\n", info.HasNotesColumn)
					fmt.Fprintf(out, "  Notes in slots: %t\n", info.HasSlotsNotes)
				}
			}

			dump, err := opts.cfg.Dump()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nEffective configuration:\n%s", dump)

			fmt.Fprintln(out, "\nEnvironment:")
			fmt.Fprintf(out, "  BOOKGREP_BOOK: %s\n", orUnset(os.Getenv("BOOKGREP_BOOK")))
			return nil
		},
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
