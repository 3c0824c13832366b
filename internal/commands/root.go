// Package commands wires the CLI: flag parsing, config layering, book
// opening and result rendering around the query pipeline.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/book"
	"github.com/bookgrep-dev/bookgrep/internal/buildinfo"
	"github.com/bookgrep-dev/bookgrep/internal/config"
	"github.com/bookgrep-dev/bookgrep/internal/output"
)

// ErrNoMatches signals a successful query with an empty result. The
// process maps it to exit code 1; every other error exits 2.
var ErrNoMatches = errors.New("no matches")

// globalOptions are the persistent flags shared by every subcommand,
// merged with the loaded config file and environment.
type globalOptions struct {
	configPath  string
	book        string
	format      string
	noHeader    bool
	sortKey     string
	reverse     bool
	limit       int
	offset      int
	fullAccount bool

	cfg    config.Config
	logger *log.Logger
}

// load runs once per invocation, after flag parsing. Flags that were
// not set on the command line fall back to the config layer.
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if !cmd.Flags().Changed("book") {
		o.book = cfg.Book
	}
	if !cmd.Flags().Changed("format") {
		o.format = cfg.Format
	}
	if !cmd.Flags().Changed("no-header") {
		o.noHeader = !cfg.ShowHeader
	}
	if _, err := output.ParseFormat(o.format); err != nil {
		return err
	}
	return nil
}

// openBook opens the configured book, failing with a usage hint when
// no path is configured anywhere.
func (o *globalOptions) openBook() (*book.Book, error) {
	if o.book == "" {
		return nil, fmt.Errorf("no book configured: use --book, BOOKGREP_BOOK or the config file")
	}
	return book.Open(o.book)
}

func (o *globalOptions) formatter() output.Formatter {
	return output.Formatter{Format: output.Format(o.format), ShowHeader: !o.noHeader}
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "bookgrep"}),
	}

	rootCmd := &cobra.Command{
		Use:     "bookgrep",
		Short:   "Grep-like search and reporting for GnuCash SQLite books",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/bookgrep/config.yaml)")
	pf.StringVar(&opts.book, "book", "", "path to GnuCash SQLite file")
	pf.StringVar(&opts.format, "format", config.DefaultOutputFormat, "output format: table, csv or json")
	pf.BoolVar(&opts.noHeader, "no-header", false, "omit header row in table/CSV output")
	pf.StringVar(&opts.sortKey, "sort", "date", "sort key: date, amount, account or description")
	pf.BoolVar(&opts.reverse, "reverse", false, "reverse sort order")
	pf.IntVar(&opts.limit, "limit", 0, "limit output to N rows")
	pf.IntVar(&opts.offset, "offset", 0, "skip first N rows")
	pf.BoolVar(&opts.fullAccount, "full-account", false, "show full account paths instead of leaf names")

	rootCmd.AddCommand(newGrepCommand(opts))
	rootCmd.AddCommand(newLedgerCommand(opts))
	rootCmd.AddCommand(newAccountsCommand(opts))
	rootCmd.AddCommand(newTxCommand(opts))
	rootCmd.AddCommand(newSplitCommand(opts))
	rootCmd.AddCommand(newDoctorCommand(opts))
	rootCmd.AddCommand(newCacheCommand(opts))
	rootCmd.AddCommand(newReplCommand(opts))

	return rootCmd
}

// Execute runs the CLI and returns the process exit code: 0 for
// matches, 1 for a clean empty result, 2 for any error.
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrNoMatches) {
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
