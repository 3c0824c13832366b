package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SplitRecord is one leg of a transaction as stored in the book.
// Values are exact decimals in the split's native commodity.
type SplitRecord struct {
	SplitID     string
	TxID        string
	AccountID   string
	AccountPath string // full colon-joined path, e.g. "Assets:Bank:Checking"
	Commodity   string // mnemonic of the owning account's commodity
	Value       decimal.Decimal
	Memo        string
	Date        time.Time // posted date, midnight UTC
}

// TransactionRecord groups the complete split set of one transaction.
type TransactionRecord struct {
	TxID        string
	Date        time.Time
	Description string
	Notes       string
	Splits      []SplitRecord
}

// AccountRecord is one account in the chart of accounts.
type AccountRecord struct {
	ID        string
	Path      string
	Type      string
	Commodity string
	ParentID  string
}

// LeafName returns the final path component of an account path.
func LeafName(path string) string {
	if i := strings.LastIndex(path, ":"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Depth returns the nesting depth of an account path (0 for top-level).
func Depth(path string) int {
	return strings.Count(path, ":")
}
