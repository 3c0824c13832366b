// Package pipeline orchestrates one query: filter, currency annotation,
// optional transaction assembly, dedupe, sort and pagination. The transform
// is pure and synchronous; all inputs are materialized by the Source for the
// duration of one query.
package pipeline

import (
	"fmt"

	"github.com/bookgrep-dev/bookgrep/internal/assemble"
	"github.com/bookgrep-dev/bookgrep/internal/currency"
	"github.com/bookgrep-dev/bookgrep/internal/model"
	"github.com/bookgrep-dev/bookgrep/internal/query"
)

// SplitContext is one split joined with its transaction's text fields, the
// unit the matcher evaluates. Notes is empty when the book does not support
// notes.
type SplitContext struct {
	Split       model.SplitRecord
	Description string
	Notes       string
}

// Source supplies one query's records. Implementations: the book reader and
// the sidecar cache.
type Source interface {
	// NotesSupported reports the schema capability flag, resolved once
	// per session.
	NotesSupported() bool
	// Splits streams split contexts. Sources may prefilter using the
	// hints, but correctness never depends on it: the matcher
	// re-validates every record.
	Splits(hints Hints) ([]SplitContext, error)
	// Transaction fetches a transaction's complete split set.
	Transaction(txID string) (model.TransactionRecord, bool, error)
}

// Hints are optional prefilters a Source may apply.
type Hints struct {
	Criteria     query.Criteria
	AccountScope []string // account IDs, nil = all
}

// Request describes one query.
type Request struct {
	Criteria query.Criteria
	Policy   currency.Policy
	Assemble assemble.Mode
	Sort     SortKey
	Reverse  bool
	Offset   int
	Limit    int // 0 = unlimited

	FullAccount   bool
	NotesExplicit bool // notes were explicitly requested, not defaulted

	// AccountScope is the expanded account selection (nil when the query
	// is not scoped by account).
	AccountScope []model.AccountRecord
}

// Result is the ordered, paginated outcome plus accumulated warnings.
// Exactly one of Splits/Blocks is populated, depending on the assembly mode.
type Result struct {
	Splits   []model.SplitRow
	Blocks   []model.TransactionRow
	Warnings []model.Warning
}

// Empty reports whether the query matched nothing.
func (r Result) Empty() bool { return len(r.Splits) == 0 && len(r.Blocks) == 0 }

// Run executes one query against a source. Validation errors were already
// raised when the Criteria was built; everything that can go wrong per row
// degrades locally and surfaces as a warning.
func Run(src Source, quotes currency.QuoteSource, req Request) (Result, error) {
	var res Result

	crit := req.Criteria
	if crit.Fields().Notes && !src.NotesSupported() {
		crit = crit.WithoutNotes()
		if req.NotesExplicit {
			res.Warnings = append(res.Warnings, model.Warning{
				Code:    model.WarnNotesUnsupported,
				Message: "notes are not supported by this book schema; searching description and memo only",
			})
		}
	}

	var scopeIDs []string
	for _, a := range req.AccountScope {
		scopeIDs = append(scopeIDs, a.ID)
	}

	contexts, err := src.Splits(Hints{Criteria: crit, AccountScope: scopeIDs})
	if err != nil {
		return Result{}, fmt.Errorf("streaming splits: %w", err)
	}

	// Dedupe happens during the scan: by split ID normally, by transaction
	// ID when requested or when assembly changes the row unit to tx.
	txDedupe := crit.Dedupe() == query.DedupeTx || req.Assemble != assemble.Off
	seenSplit := make(map[string]bool)
	seenTx := make(map[string]bool)

	var matched []SplitContext
	for _, sc := range contexts {
		if !crit.Matches(sc.Split, sc.Description, sc.Notes) {
			continue
		}
		if seenSplit[sc.Split.SplitID] {
			continue
		}
		seenSplit[sc.Split.SplitID] = true
		if txDedupe {
			if seenTx[sc.Split.TxID] {
				continue
			}
			seenTx[sc.Split.TxID] = true
		}
		matched = append(matched, sc)
	}
	if len(matched) == 0 {
		return res, nil
	}

	splits := make([]model.SplitRecord, len(matched))
	for i, sc := range matched {
		splits[i] = sc.Split
	}
	target, hasTarget := currency.DisplayCurrency(req.Policy, splits, currency.AccountCurrencies(req.AccountScope))

	conv := currency.NewConverter(quotes, req.Policy.LookbackDays)
	ann := &annotator{
		converter:   conv,
		target:      target,
		hasTarget:   hasTarget,
		signed:      crit.Signed(),
		fullAccount: req.FullAccount,
		alsoOrig:    req.Policy.AlsoOriginal,
	}

	if req.Assemble == assemble.Off {
		rows := make([]model.SplitRow, len(matched))
		for i, sc := range matched {
			rows[i] = ann.row(sc.Split, sc.Description, sc.Notes)
		}
		sortSplitRows(rows, req.Sort, req.Reverse)
		res.Splits = paginate(rows, req.Offset, req.Limit)
	} else {
		blocks, warns, err := assembleBlocks(src, matched, req.Assemble, ann)
		if err != nil {
			return Result{}, err
		}
		res.Warnings = append(res.Warnings, warns...)
		sortTxRows(blocks, req.Sort, req.Reverse)
		res.Blocks = paginate(blocks, req.Offset, req.Limit)
	}

	if n := ann.unavailable; n > 0 {
		res.Warnings = append(res.Warnings, model.Warning{
			Code:    model.WarnConversionUnavailable,
			Message: fmt.Sprintf("%d row(s) shown in original currency: no usable rate to %s", n, target),
		})
	}

	return res, nil
}

// assembleBlocks regroups matched splits by parent transaction, in first-seen
// order, and expands each group per the assembly mode.
func assembleBlocks(src Source, matched []SplitContext, mode assemble.Mode, ann *annotator) ([]model.TransactionRow, []model.Warning, error) {
	var order []string
	matchedByTx := make(map[string]map[string]bool)
	for _, sc := range matched {
		txID := sc.Split.TxID
		if matchedByTx[txID] == nil {
			matchedByTx[txID] = make(map[string]bool)
			order = append(order, txID)
		}
		matchedByTx[txID][sc.Split.SplitID] = true
	}

	// Matched splits by tx, as a fallback when the source cannot produce
	// the complete transaction.
	fallback := make(map[string][]model.SplitRecord)
	for _, sc := range matched {
		fallback[sc.Split.TxID] = append(fallback[sc.Split.TxID], sc.Split)
	}
	descByTx := make(map[string]string)
	notesByTx := make(map[string]string)
	for _, sc := range matched {
		descByTx[sc.Split.TxID] = sc.Description
		notesByTx[sc.Split.TxID] = sc.Notes
	}

	var rows []model.TransactionRow
	var warns []model.Warning
	for _, txID := range order {
		tx, found, err := src.Transaction(txID)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching transaction %s: %w", txID, err)
		}
		if !found {
			tx = model.TransactionRecord{
				TxID:        txID,
				Date:        fallback[txID][0].Date,
				Description: descByTx[txID],
				Notes:       notesByTx[txID],
				Splits:      fallback[txID],
			}
		}

		block, warn := assemble.Expand(tx, matchedByTx[txID], mode)
		if warn != nil {
			warns = append(warns, *warn)
		}

		row := model.TransactionRow{
			TxID:        tx.TxID,
			Date:        tx.Date,
			Description: tx.Description,
			Notes:       tx.Notes,
		}
		for _, s := range block.Splits {
			row.Splits = append(row.Splits, ann.row(s, tx.Description, tx.Notes))
		}
		rows = append(rows, row)
	}
	return rows, warns, nil
}

// annotator turns split records into display rows, applying the signed
// policy and the query-wide currency target with per-row degradation.
type annotator struct {
	converter   *currency.Converter
	target      string
	hasTarget   bool
	signed      bool
	fullAccount bool
	alsoOrig    bool
	unavailable int
}

func (a *annotator) row(s model.SplitRecord, description, notes string) model.SplitRow {
	v := s.Value
	if !a.signed {
		v = v.Abs()
	}

	row := model.SplitRow{
		Date:        s.Date,
		Description: description,
		Account:     s.AccountPath,
		Memo:        s.Memo,
		Notes:       notes,
		Amount:      v,
		Currency:    s.Commodity,
		TxID:        s.TxID,
		SplitID:     s.SplitID,
	}
	if !a.fullAccount {
		row.Account = model.LeafName(s.AccountPath)
	}

	if a.hasTarget && a.target != s.Commodity {
		c := a.converter.Convert(v, s.Commodity, a.target, s.Date)
		if c.Converted {
			row.Amount = c.Amount
			row.Currency = c.Currency
			row.Rate = c.Rate
			row.Converted = true
			if a.alsoOrig {
				row.OrigAmount = c.OriginalAmount
				row.OrigCurrency = c.OriginalCurrency
				row.HasOriginal = true
			}
		} else {
			a.unavailable++
		}
	}

	return row
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
