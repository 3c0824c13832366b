package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/book"
	"github.com/bookgrep-dev/bookgrep/internal/currency"
	"github.com/bookgrep-dev/bookgrep/internal/model"
	"github.com/bookgrep-dev/bookgrep/internal/pipeline"
	"github.com/bookgrep-dev/bookgrep/internal/query"
)

// currencyOptions are the conversion flags shared by grep and ledger.
type currencyOptions struct {
	mode         string
	baseCurrency string
	alsoOriginal bool
	fxLookback   int
}

func addCurrencyFlags(cmd *cobra.Command, c *currencyOptions) {
	cmd.Flags().StringVar(&c.mode, "currency", "auto", "currency display mode: auto, base, split or account")
	cmd.Flags().StringVar(&c.baseCurrency, "base-currency", "", "base currency for conversions (default from config)")
	cmd.Flags().BoolVar(&c.alsoOriginal, "also-original", false, "show original currency alongside converted")
	cmd.Flags().IntVar(&c.fxLookback, "fx-lookback", 0, "max days to look back for exchange rates (default from config)")
}

func (c currencyOptions) policy(opts *globalOptions) (currency.Policy, error) {
	mode, err := currency.ParseMode(c.mode)
	if err != nil {
		return currency.Policy{}, err
	}
	base := c.baseCurrency
	if base == "" {
		base = opts.cfg.BaseCurrency
	}
	lookback := c.fxLookback
	if lookback <= 0 {
		lookback = opts.cfg.LookbackDays
	}
	return currency.Policy{
		Mode:         mode,
		BaseCurrency: base,
		LookbackDays: lookback,
		AlsoOriginal: c.alsoOriginal,
	}, nil
}

// dateFilterOptions are the date range flags shared by grep and ledger.
type dateFilterOptions struct {
	after     string
	before    string
	dateRange string
}

func addDateFlags(cmd *cobra.Command, d *dateFilterOptions) {
	cmd.Flags().StringVar(&d.after, "after", "", "posted on or after date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.before, "before", "", "posted before date, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&d.dateRange, "date", "", "date range A..B, inclusive on both ends")
}

// apply fills the date fields of the criteria params.
func (d dateFilterOptions) apply(p *query.Params) error {
	if d.after != "" {
		t, err := query.ParseDate(d.after)
		if err != nil {
			return err
		}
		p.After = &t
	}
	if d.before != "" {
		t, err := query.ParseDate(d.before)
		if err != nil {
			return err
		}
		p.Before = &t
	}
	if d.dateRange != "" {
		span, err := query.ParseDateSpan(d.dateRange)
		if err != nil {
			return err
		}
		p.Span = span
	}
	return nil
}

// resolveScope expands an account pattern to the concrete account
// selection, or returns nil for an unscoped query.
func resolveScope(b *book.Book, pattern string, isRegex, subtree bool) ([]model.AccountRecord, error) {
	if pattern == "" {
		return nil, nil
	}
	accounts, err := b.MatchAccounts(pattern, isRegex, false, subtree)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts matching %q: %w", pattern, ErrNoMatches)
	}
	return accounts, nil
}

// runQuery executes a prepared request against the book, logs warnings
// to stderr and renders the result to the command's stdout.
func runQuery(cmd *cobra.Command, opts *globalOptions, b *book.Book, req pipeline.Request) error {
	sortKey, err := pipeline.ParseSortKey(opts.sortKey)
	if err != nil {
		return err
	}
	req.Sort = sortKey
	req.Reverse = opts.reverse
	req.Offset = opts.offset
	req.Limit = opts.limit
	req.FullAccount = opts.fullAccount

	res, err := pipeline.Run(b, b, req)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		opts.logger.Warn(w.Message, "code", w.Code)
	}
	if res.Empty() {
		return ErrNoMatches
	}

	f := opts.formatter()
	if len(res.Blocks) > 0 {
		return f.Transactions(cmd.OutOrStdout(), res.Blocks)
	}
	return f.Splits(cmd.OutOrStdout(), res.Splits)
}
