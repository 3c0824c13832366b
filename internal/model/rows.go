package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitRow is one split prepared for display: amount and currency are the
// resolved display values, with the original pair retained when a conversion
// happened and the caller asked for it.
type SplitRow struct {
	Date        time.Time
	Description string
	Account     string // full path or leaf name, per query options
	Memo        string
	Notes       string
	Amount      decimal.Decimal
	Currency    string
	Rate        decimal.Decimal // meaningful only when Converted
	Converted   bool
	TxID        string
	SplitID     string

	OrigAmount   decimal.Decimal
	OrigCurrency string
	HasOriginal  bool
}

// TransactionRow is one assembled transaction block with its selected splits.
type TransactionRow struct {
	TxID        string
	Date        time.Time
	Description string
	Notes       string
	Splits      []SplitRow
}

// DisplayedSum returns the sum of the block's displayed amounts. Rows that
// fell back to different currencies still contribute their face value; the
// sum is a sort key, not an accounting figure.
func (t TransactionRow) DisplayedSum() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range t.Splits {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// AccountRow is one account prepared for display.
type AccountRow struct {
	Path      string
	Type      string
	Currency  string
	ID        string
	ShowID    bool
	Depth     int
}
