package book

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bookgrep-dev/bookgrep/internal/model"
	"github.com/bookgrep-dev/bookgrep/internal/pipeline"
	"github.com/bookgrep-dev/bookgrep/internal/query"
)

// Splits streams all splits joined with their transactions and accounts.
// The hints narrow the SQL where cheap (dates, account scope); the pipeline
// re-validates every row regardless.
func (b *Book) Splits(hints pipeline.Hints) ([]pipeline.SplitContext, error) {
	q := `SELECT s.guid, s.tx_guid, s.account_guid, COALESCE(s.memo, ''),
			s.value_num, s.value_denom, t.post_date, COALESCE(t.description, '')` +
		b.notesSelect() + `
		FROM splits s
		JOIN transactions t ON s.tx_guid = t.guid` + b.notesJoin()

	var conds []string
	var args []any
	if after := hints.Criteria.After(); after != nil {
		conds = append(conds, "date(t.post_date) >= date(?)")
		args = append(args, after.Format(query.DateFormat))
	}
	if before := hints.Criteria.Before(); before != nil {
		conds = append(conds, "date(t.post_date) < date(?)")
		args = append(args, before.Format(query.DateFormat))
	}
	if len(hints.AccountScope) > 0 {
		placeholders := strings.Repeat("?,", len(hints.AccountScope))
		conds = append(conds, "s.account_guid IN ("+placeholders[:len(placeholders)-1]+")")
		for _, id := range hints.AccountScope {
			args = append(args, id)
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY t.post_date, t.guid, s.guid"

	rows, err := b.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying splits: %w", err)
	}
	defer rows.Close()

	byID := b.accountIndex()
	var out []pipeline.SplitContext
	for rows.Next() {
		var guid, txGUID, accGUID, memo, postDate, description string
		var num, denom int64
		var notes sql.NullString
		if err := rows.Scan(&guid, &txGUID, &accGUID, &memo, &num, &denom, &postDate, &description, &notes); err != nil {
			return nil, err
		}
		acc, ok := byID[accGUID]
		if !ok {
			// Split under ROOT/TRADING; not part of the queryable book.
			continue
		}
		date, err := parseDate(postDate)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", guid, err)
		}
		out = append(out, pipeline.SplitContext{
			Split: model.SplitRecord{
				SplitID:     guid,
				TxID:        txGUID,
				AccountID:   accGUID,
				AccountPath: acc.Path,
				Commodity:   acc.Commodity,
				Value:       ratio(num, denom),
				Memo:        memo,
				Date:        date,
			},
			Description: description,
			Notes:       notes.String,
		})
	}
	return out, rows.Err()
}

// Transaction fetches one transaction's complete split set.
func (b *Book) Transaction(txID string) (model.TransactionRecord, bool, error) {
	var postDate, description string
	err := b.db.QueryRow(`SELECT t.post_date, COALESCE(t.description, '')
		FROM transactions t WHERE t.guid = ?`, txID).Scan(&postDate, &description)
	if err == sql.ErrNoRows {
		return model.TransactionRecord{}, false, nil
	}
	if err != nil {
		return model.TransactionRecord{}, false, fmt.Errorf("fetching transaction %s: %w", txID, err)
	}

	date, err := parseDate(postDate)
	if err != nil {
		return model.TransactionRecord{}, false, err
	}
	notes, err := b.Notes(txID)
	if err != nil {
		return model.TransactionRecord{}, false, err
	}

	tx := model.TransactionRecord{TxID: txID, Date: date, Description: description, Notes: notes}

	rows, err := b.db.Query(`SELECT s.guid, s.account_guid, COALESCE(s.memo, ''),
			s.value_num, s.value_denom
		FROM splits s WHERE s.tx_guid = ? ORDER BY s.guid`, txID)
	if err != nil {
		return model.TransactionRecord{}, false, err
	}
	defer rows.Close()

	byID := b.accountIndex()
	for rows.Next() {
		var guid, accGUID, memo string
		var num, denom int64
		if err := rows.Scan(&guid, &accGUID, &memo, &num, &denom); err != nil {
			return model.TransactionRecord{}, false, err
		}
		s := model.SplitRecord{
			SplitID:   guid,
			TxID:      txID,
			AccountID: accGUID,
			Memo:      memo,
			Value:     ratio(num, denom),
			Date:      date,
		}
		if acc, ok := byID[accGUID]; ok {
			s.AccountPath = acc.Path
			s.Commodity = acc.Commodity
		}
		tx.Splits = append(tx.Splits, s)
	}
	return tx, true, rows.Err()
}

// SplitByID looks up a single split with its transaction context.
func (b *Book) SplitByID(splitID string) (pipeline.SplitContext, bool, error) {
	var txGUID string
	err := b.db.QueryRow(`SELECT tx_guid FROM splits WHERE guid = ?`, splitID).Scan(&txGUID)
	if err == sql.ErrNoRows {
		return pipeline.SplitContext{}, false, nil
	}
	if err != nil {
		return pipeline.SplitContext{}, false, err
	}
	tx, found, err := b.Transaction(txGUID)
	if err != nil || !found {
		return pipeline.SplitContext{}, false, err
	}
	for _, s := range tx.Splits {
		if s.SplitID == splitID {
			return pipeline.SplitContext{Split: s, Description: tx.Description, Notes: tx.Notes}, true, nil
		}
	}
	return pipeline.SplitContext{}, false, nil
}

// Notes returns a transaction's notes, from the notes column or the slots
// table depending on schema, empty when absent or unsupported.
func (b *Book) Notes(txID string) (string, error) {
	var q string
	switch {
	case b.info.HasNotesColumn:
		q = `SELECT COALESCE(notes, '') FROM transactions WHERE guid = ?`
	case b.info.HasSlotsNotes:
		q = `SELECT COALESCE(string_val, '') FROM slots WHERE obj_guid = ? AND name = 'notes'`
	default:
		return "", nil
	}
	var notes string
	err := b.db.QueryRow(q, txID).Scan(&notes)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetching notes for %s: %w", txID, err)
	}
	return notes, nil
}

func (b *Book) notesSelect() string {
	switch {
	case b.info.HasNotesColumn:
		return ", t.notes"
	case b.info.HasSlotsNotes:
		return ", sl.string_val"
	default:
		return ", NULL"
	}
}

func (b *Book) notesJoin() string {
	if !b.info.HasNotesColumn && b.info.HasSlotsNotes {
		return " LEFT JOIN slots sl ON sl.obj_guid = t.guid AND sl.name = 'notes'"
	}
	return ""
}

func (b *Book) accountIndex() map[string]model.AccountRecord {
	byID := make(map[string]model.AccountRecord, len(b.accounts))
	for _, n := range b.accounts {
		byID[n.record.ID] = n.record
	}
	return byID
}

// ratio converts a stored num/denom pair into an exact decimal.
func ratio(num, denom int64) decimal.Decimal {
	if denom == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(num).Div(decimal.NewFromInt(denom))
}
