package pipeline

import (
	"fmt"
	"sort"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

// SortKey selects the result ordering.
type SortKey int

const (
	SortDate SortKey = iota
	SortAmount
	SortAccount
	SortDescription
)

// ParseSortKey parses a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "date":
		return SortDate, nil
	case "amount":
		return SortAmount, nil
	case "account":
		return SortAccount, nil
	case "description":
		return SortDescription, nil
	}
	return SortDate, fmt.Errorf("unknown sort key %q", s)
}

func sortSplitRows(rows []model.SplitRow, key SortKey, reverse bool) {
	less := func(a, b model.SplitRow) bool {
		switch key {
		case SortAmount:
			return a.Amount.LessThan(b.Amount)
		case SortAccount:
			return a.Account < b.Account
		case SortDescription:
			return a.Description < b.Description
		default:
			return a.Date.Before(b.Date)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if reverse {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

// sortTxRows orders transaction blocks. Amount means the sum of the block's
// displayed amounts; date and description are the transaction's own fields;
// account is the first constituent row's account.
func sortTxRows(rows []model.TransactionRow, key SortKey, reverse bool) {
	account := func(r model.TransactionRow) string {
		if len(r.Splits) == 0 {
			return ""
		}
		return r.Splits[0].Account
	}
	less := func(a, b model.TransactionRow) bool {
		switch key {
		case SortAmount:
			return a.DisplayedSum().LessThan(b.DisplayedSum())
		case SortAccount:
			return account(a) < account(b)
		case SortDescription:
			return a.Description < b.Description
		default:
			return a.Date.Before(b.Date)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if reverse {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}
