package commands

import (
	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/assemble"
	"github.com/bookgrep-dev/bookgrep/internal/pipeline"
	"github.com/bookgrep-dev/bookgrep/internal/query"
)

func newGrepCommand(opts *globalOptions) *cobra.Command {
	var (
		regex         bool
		caseSensitive bool
		fields        string
		account       string
		accountRegex  bool
		noSubtree     bool
		dates         dateFilterOptions
		amountRange   string
		signed        bool
		fullTx        bool
		dedupe        string
		contextMode   string
		cur           currencyOptions
	)

	cmd := &cobra.Command{
		Use:   "grep TEXT",
		Short: "Search splits and transactions for text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := query.Params{
				Text:          args[0],
				Regex:         regex,
				CaseSensitive: caseSensitive,
				Signed:        signed,
			}

			fs, err := query.ParseFields(fields)
			if err != nil {
				return err
			}
			p.Fields = fs

			if err := dates.apply(&p); err != nil {
				return err
			}
			if amountRange != "" {
				p.MinAmount, p.MaxAmount, err = query.ParseAmountSpan(amountRange)
				if err != nil {
					return err
				}
			}
			p.Dedupe, err = query.ParseGranularity(dedupe)
			if err != nil {
				return err
			}

			asm := assemble.Off
			if fullTx {
				asm, err = assemble.ParseMode(contextMode)
				if err != nil {
					return err
				}
			}
			policy, err := cur.policy(opts)
			if err != nil {
				return err
			}

			b, err := opts.openBook()
			if err != nil {
				return err
			}
			defer b.Close()

			scope, err := resolveScope(b, account, accountRegex, !noSubtree)
			if err != nil {
				return err
			}
			for _, a := range scope {
				p.AccountIDs = append(p.AccountIDs, a.ID)
			}

			crit, err := query.New(p)
			if err != nil {
				return err
			}

			return runQuery(cmd, opts, b, pipeline.Request{
				Criteria:      crit,
				Policy:        policy,
				Assemble:      asm,
				NotesExplicit: cmd.Flags().Changed("in") && fs.Notes,
				AccountScope:  scope,
			})
		},
	}

	cmd.Flags().BoolVar(&regex, "regex", false, "treat text as a regular expression")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "use case-sensitive matching")
	cmd.Flags().StringVar(&fields, "in", "desc,memo,notes", "fields to search: desc, memo, notes")
	cmd.Flags().StringVar(&account, "account", "", "restrict to accounts matching pattern")
	cmd.Flags().BoolVar(&accountRegex, "account-regex", false, "account pattern is a regular expression")
	cmd.Flags().BoolVar(&noSubtree, "no-subtree", false, "don't include descendant accounts")
	addDateFlags(cmd, &dates)
	cmd.Flags().StringVar(&amountRange, "amount", "", "amount range MIN..MAX, inclusive")
	cmd.Flags().BoolVar(&signed, "signed", false, "filter and show signed amounts instead of absolute")
	cmd.Flags().BoolVar(&fullTx, "full-tx", false, "show full transactions containing matches")
	cmd.Flags().StringVar(&dedupe, "dedupe", "split", "deduplication mode: split or tx")
	cmd.Flags().StringVar(&contextMode, "context", "full", "context mode for --full-tx: full or balanced")
	addCurrencyFlags(cmd, &cur)

	return cmd
}
