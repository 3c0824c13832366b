package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

func newTxCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tx GUID",
		Short: "Display a transaction by GUID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openBook()
			if err != nil {
				return err
			}
			defer b.Close()

			tx, found, err := b.Transaction(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("transaction not found: %s: %w", args[0], ErrNoMatches)
			}

			row := model.TransactionRow{
				TxID:        tx.TxID,
				Date:        tx.Date,
				Description: tx.Description,
				Notes:       tx.Notes,
			}
			for _, s := range tx.Splits {
				row.Splits = append(row.Splits, splitToRow(s, tx.Description, tx.Notes, opts.fullAccount))
			}

			return opts.formatter().Transactions(cmd.OutOrStdout(), []model.TransactionRow{row})
		},
	}
}

func newSplitCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "split GUID",
		Short: "Display a split by GUID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.openBook()
			if err != nil {
				return err
			}
			defer b.Close()

			sc, found, err := b.SplitByID(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("split not found: %s: %w", args[0], ErrNoMatches)
			}

			row := splitToRow(sc.Split, sc.Description, sc.Notes, opts.fullAccount)
			return opts.formatter().Splits(cmd.OutOrStdout(), []model.SplitRow{row})
		},
	}
}

// splitToRow builds a display row without currency conversion; tx and
// split show raw signed book values.
func splitToRow(s model.SplitRecord, description, notes string, fullAccount bool) model.SplitRow {
	account := s.AccountPath
	if !fullAccount {
		account = model.LeafName(s.AccountPath)
	}
	return model.SplitRow{
		Date:        s.Date,
		Description: description,
		Account:     account,
		Memo:        s.Memo,
		Notes:       notes,
		Amount:      s.Value,
		Currency:    s.Commodity,
		TxID:        s.TxID,
		SplitID:     s.SplitID,
	}
}
