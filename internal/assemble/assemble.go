// Package assemble regroups matching splits into transaction blocks and,
// in balanced mode, reconstructs the minimal balancing context of each
// transaction.
package assemble

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

// Mode selects how matching splits are expanded to transaction context.
type Mode int

const (
	Off      Mode = iota // each matching split is its own row
	Full                 // every split of the parent transaction
	Balanced             // matching splits plus a minimal balancing subset
)

// ParseMode parses "full" or "balanced" (the context flag of --full-tx).
func ParseMode(s string) (Mode, error) {
	switch s {
	case "full":
		return Full, nil
	case "balanced":
		return Balanced, nil
	}
	return Full, fmt.Errorf("unknown context mode %q", s)
}

// Block is one assembled transaction with its selected splits.
type Block struct {
	Tx     model.TransactionRecord
	Splits []model.SplitRecord
}

// Expand selects the splits to show for one transaction given which of its
// splits matched. In Balanced mode a transaction whose remainder cannot zero
// out every commodity falls back to Full for that transaction only, and the
// returned warning is non-nil.
func Expand(tx model.TransactionRecord, matched map[string]bool, mode Mode) (Block, *model.Warning) {
	switch mode {
	case Balanced:
		selected, ok := selectBalanced(tx.Splits, matched)
		if ok {
			return Block{Tx: tx, Splits: selected}, nil
		}
		w := model.Warning{
			Code:    model.WarnUnbalanceable,
			Message: fmt.Sprintf("transaction %s not balanceable, showing full context", tx.TxID),
		}
		return Block{Tx: tx, Splits: dedupeByID(tx.Splits)}, &w
	default:
		return Block{Tx: tx, Splits: dedupeByID(tx.Splits)}, nil
	}
}

// selectBalanced starts from the matching splits and greedily consumes the
// remaining splits, ordered by descending absolute value with ascending
// split ID as tie-break, adding only splits whose commodity sum is still
// non-zero. The ordering is the algorithm's contract: it decides which
// completion wins when several minimal ones exist.
func selectBalanced(all []model.SplitRecord, matched map[string]bool) ([]model.SplitRecord, bool) {
	var selected, remaining []model.SplitRecord
	for _, s := range dedupeByID(all) {
		if matched[s.SplitID] {
			selected = append(selected, s)
		} else {
			remaining = append(remaining, s)
		}
	}

	sort.Slice(remaining, func(i, j int) bool {
		ai, aj := remaining[i].Value.Abs(), remaining[j].Value.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return remaining[i].SplitID < remaining[j].SplitID
	})

	sums := make(map[string]decimal.Decimal)
	for _, s := range selected {
		sums[s.Commodity] = sums[s.Commodity].Add(s.Value)
	}

	for _, s := range remaining {
		if sums[s.Commodity].IsZero() {
			continue
		}
		selected = append(selected, s)
		sums[s.Commodity] = sums[s.Commodity].Add(s.Value)
	}

	for _, sum := range sums {
		if !sum.IsZero() {
			return nil, false
		}
	}
	return selected, true
}

func dedupeByID(splits []model.SplitRecord) []model.SplitRecord {
	seen := make(map[string]bool, len(splits))
	out := make([]model.SplitRecord, 0, len(splits))
	for _, s := range splits {
		if seen[s.SplitID] {
			continue
		}
		seen[s.SplitID] = true
		out = append(out, s)
	}
	return out
}
