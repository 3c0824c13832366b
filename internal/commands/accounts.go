package commands

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

func newAccountsCommand(opts *globalOptions) *cobra.Command {
	var (
		regex         bool
		caseSensitive bool
		tree          bool
		treePrune     bool
		maxDepth      int
		showGUIDs     bool
	)

	cmd := &cobra.Command{
		Use:   "accounts [PATTERN]",
		Short: "Search accounts by name pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) > 0 {
				pattern = args[0]
			}

			b, err := opts.openBook()
			if err != nil {
				return err
			}
			defer b.Close()

			matched, err := b.MatchAccounts(pattern, regex, caseSensitive, true)
			if err != nil {
				return err
			}
			if len(matched) == 0 {
				return ErrNoMatches
			}

			accounts := matched
			if treePrune {
				accounts = pruneToMatchingPaths(matched, b.Accounts())
			}
			sort.Slice(accounts, func(i, j int) bool {
				return accounts[i].Path < accounts[j].Path
			})

			var rows []model.AccountRow
			for _, a := range accounts {
				depth := 0
				if tree {
					depth = model.Depth(a.Path)
					if maxDepth >= 0 && depth > maxDepth {
						continue
					}
				}
				rows = append(rows, model.AccountRow{
					Path:     a.Path,
					Type:     a.Type,
					Currency: a.Commodity,
					ID:       a.ID,
					ShowID:   showGUIDs,
					Depth:    depth,
				})
			}

			if opts.offset > 0 {
				if opts.offset >= len(rows) {
					rows = nil
				} else {
					rows = rows[opts.offset:]
				}
			}
			if opts.limit > 0 && opts.limit < len(rows) {
				rows = rows[:opts.limit]
			}
			if len(rows) == 0 {
				return ErrNoMatches
			}

			return opts.formatter().Accounts(cmd.OutOrStdout(), rows, tree)
		},
	}

	cmd.Flags().BoolVar(&regex, "regex", false, "treat pattern as a regular expression")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "use case-sensitive matching")
	cmd.Flags().BoolVar(&tree, "tree", false, "render as an indented account tree")
	cmd.Flags().BoolVar(&treePrune, "tree-prune", false, "show tree pruned to matching paths with full subtrees")
	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "limit tree depth")
	cmd.Flags().BoolVar(&showGUIDs, "show-guids", false, "include account GUIDs in output")

	return cmd
}

// pruneToMatchingPaths keeps the ancestors of every match plus the
// complete subtree below each match, so the tree renders the paths to
// the matches in context.
func pruneToMatchingPaths(matched, all []model.AccountRecord) []model.AccountRecord {
	matchedPaths := make(map[string]bool, len(matched))
	keep := make(map[string]bool, len(matched))
	for _, a := range matched {
		matchedPaths[a.Path] = true
		keep[a.Path] = true
	}

	for _, a := range all {
		for _, m := range matched {
			if strings.HasPrefix(m.Path, a.Path+":") || strings.HasPrefix(a.Path, m.Path+":") {
				keep[a.Path] = true
				break
			}
		}
	}

	var out []model.AccountRecord
	for _, a := range all {
		if keep[a.Path] {
			out = append(out, a)
		}
	}
	return out
}
