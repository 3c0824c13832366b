package commands

import (
	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/pipeline"
	"github.com/bookgrep-dev/bookgrep/internal/query"
)

func newLedgerCommand(opts *globalOptions) *cobra.Command {
	var (
		accountRegex bool
		noSubtree    bool
		dates        dateFilterOptions
		amountRange  string
		signed       bool
		cur          currencyOptions
	)

	cmd := &cobra.Command{
		Use:   "ledger ACCOUNT_PATTERN",
		Short: "Display ledger entries for matching accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := query.Params{Signed: signed}
			if err := dates.apply(&p); err != nil {
				return err
			}
			if amountRange != "" {
				var err error
				p.MinAmount, p.MaxAmount, err = query.ParseAmountSpan(amountRange)
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

			scope, err := resolveScope(b, args[0], accountRegex, !noSubtree)
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
				Criteria:     crit,
				Policy:       policy,
				AccountScope: scope,
			})
		},
	}

	cmd.Flags().BoolVar(&accountRegex, "account-regex", false, "account pattern is a regular expression")
	cmd.Flags().BoolVar(&noSubtree, "no-subtree", false, "don't include descendant accounts")
	addDateFlags(cmd, &dates)
	cmd.Flags().StringVar(&amountRange, "amount", "", "amount range MIN..MAX, inclusive")
	cmd.Flags().BoolVar(&signed, "signed", false, "filter and show signed amounts instead of absolute")
	addCurrencyFlags(cmd, &cur)

	return cmd
}
