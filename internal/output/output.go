// Package output renders query results as aligned tables, CSV or JSON.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatCSV, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q, want table, csv or json", s)
}

// Formatter writes result rows in one of the supported encodings. The
// notes and original-amount columns appear only when some row carries
// them, so plain queries stay narrow.
type Formatter struct {
	Format     Format
	ShowHeader bool
}

const (
	maxDescription = 40
	maxAccount     = 35
	maxMemo        = 25
)

// Splits renders split rows. Empty input writes nothing.
func (f Formatter) Splits(w io.Writer, rows []model.SplitRow) error {
	if len(rows) == 0 {
		return nil
	}
	switch f.Format {
	case FormatJSON:
		return f.splitsJSON(w, rows)
	case FormatCSV:
		return f.splitsCSV(w, rows)
	default:
		return f.splitsTable(w, rows)
	}
}

// Transactions renders assembled transaction blocks. CSV flattens the
// blocks back into split rows.
func (f Formatter) Transactions(w io.Writer, blocks []model.TransactionRow) error {
	if len(blocks) == 0 {
		return nil
	}
	switch f.Format {
	case FormatJSON:
		return f.transactionsJSON(w, blocks)
	case FormatCSV:
		var flat []model.SplitRow
		for _, tx := range blocks {
			flat = append(flat, tx.Splits...)
		}
		return f.splitsCSV(w, flat)
	default:
		return f.transactionsTable(w, blocks)
	}
}

// Accounts renders account rows, optionally as an indented tree.
func (f Formatter) Accounts(w io.Writer, rows []model.AccountRow, tree bool) error {
	if len(rows) == 0 {
		return nil
	}
	switch f.Format {
	case FormatJSON:
		return f.accountsJSON(w, rows)
	case FormatCSV:
		return f.accountsCSV(w, rows)
	default:
		return f.accountsTable(w, rows, tree)
	}
}

func hasNotes(rows []model.SplitRow) bool {
	for _, r := range rows {
		if r.Notes != "" {
			return true
		}
	}
	return false
}

func hasOriginal(rows []model.SplitRow) bool {
	for _, r := range rows {
		if r.HasOriginal {
			return true
		}
	}
	return false
}

func (f Formatter) splitsTable(w io.Writer, rows []model.SplitRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	notes := hasNotes(rows)
	orig := hasOriginal(rows)

	if f.ShowHeader {
		cols := []string{"Date", "Description", "Account", "Memo"}
		if notes {
			cols = append(cols, "Notes")
		}
		cols = append(cols, "Amount", "Ccy")
		if orig {
			cols = append(cols, "Orig Amt", "Orig Ccy")
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	for _, r := range rows {
		cols := []string{
			r.Date.Format("2006-01-02"),
			truncate(r.Description, maxDescription),
			truncate(r.Account, maxAccount),
			truncate(r.Memo, maxMemo),
		}
		if notes {
			cols = append(cols, truncate(r.Notes, maxMemo))
		}
		cols = append(cols, formatAmount(r.Amount), r.Currency)
		if orig {
			if r.HasOriginal {
				cols = append(cols, formatAmount(r.OrigAmount), r.OrigCurrency)
			} else {
				cols = append(cols, "", "")
			}
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func (f Formatter) splitsCSV(w io.Writer, rows []model.SplitRow) error {
	cw := csv.NewWriter(w)
	notes := hasNotes(rows)
	orig := hasOriginal(rows)

	if f.ShowHeader {
		cols := []string{"date", "description", "account", "memo"}
		if notes {
			cols = append(cols, "notes")
		}
		cols = append(cols, "amount", "currency", "fx_rate", "tx_guid", "split_guid")
		if orig {
			cols = append(cols, "amount_orig", "currency_orig")
		}
		if err := cw.Write(cols); err != nil {
			return err
		}
	}
	for _, r := range rows {
		rate := ""
		if r.Converted {
			rate = r.Rate.String()
		}
		cols := []string{r.Date.Format("2006-01-02"), r.Description, r.Account, r.Memo}
		if notes {
			cols = append(cols, r.Notes)
		}
		cols = append(cols, r.Amount.String(), r.Currency, rate, r.TxID, r.SplitID)
		if orig {
			if r.HasOriginal {
				cols = append(cols, r.OrigAmount.String(), r.OrigCurrency)
			} else {
				cols = append(cols, "", "")
			}
		}
		if err := cw.Write(cols); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type splitJSON struct {
	Date         string `json:"date"`
	Description  string `json:"description"`
	Account      string `json:"account"`
	Memo         string `json:"memo"`
	Notes        string `json:"notes,omitempty"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	FxRate       string `json:"fx_rate,omitempty"`
	TxGUID       string `json:"tx_guid"`
	SplitGUID    string `json:"split_guid"`
	AmountOrig   string `json:"amount_orig,omitempty"`
	CurrencyOrig string `json:"currency_orig,omitempty"`
}

func toSplitJSON(r model.SplitRow) splitJSON {
	j := splitJSON{
		Date:        r.Date.Format("2006-01-02"),
		Description: r.Description,
		Account:     r.Account,
		Memo:        r.Memo,
		Notes:       r.Notes,
		Amount:      r.Amount.String(),
		Currency:    r.Currency,
		TxGUID:      r.TxID,
		SplitGUID:   r.SplitID,
	}
	if r.Converted {
		j.FxRate = r.Rate.String()
	}
	if r.HasOriginal {
		j.AmountOrig = r.OrigAmount.String()
		j.CurrencyOrig = r.OrigCurrency
	}
	return j
}

func (f Formatter) splitsJSON(w io.Writer, rows []model.SplitRow) error {
	out := make([]splitJSON, len(rows))
	for i, r := range rows {
		out[i] = toSplitJSON(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (f Formatter) transactionsTable(w io.Writer, blocks []model.TransactionRow) error {
	for i, tx := range blocks {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s] %s\n", tx.Date.Format("2006-01-02"), tx.Description)
		if tx.Notes != "" {
			fmt.Fprintf(w, "  Notes: %s\n", tx.Notes)
		}
		fmt.Fprintf(w, "  GUID: %s\n", tx.TxID)
		for _, s := range tx.Splits {
			fmt.Fprintf(w, "    %-40s %12s %s\n", s.Account, formatAmount(s.Amount), s.Currency)
			if s.Memo != "" {
				fmt.Fprintf(w, "      Memo: %s\n", s.Memo)
			}
		}
	}
	return nil
}

type txJSON struct {
	TxGUID      string      `json:"tx_guid"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Notes       string      `json:"notes,omitempty"`
	Splits      []splitJSON `json:"splits"`
}

func (f Formatter) transactionsJSON(w io.Writer, blocks []model.TransactionRow) error {
	out := make([]txJSON, len(blocks))
	for i, tx := range blocks {
		j := txJSON{
			TxGUID:      tx.TxID,
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			Notes:       tx.Notes,
			Splits:      make([]splitJSON, len(tx.Splits)),
		}
		for k, s := range tx.Splits {
			j.Splits[k] = toSplitJSON(s)
		}
		out[i] = j
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (f Formatter) accountsTable(w io.Writer, rows []model.AccountRow, tree bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	showID := len(rows) > 0 && rows[0].ShowID

	if f.ShowHeader {
		cols := []string{"Account", "Type", "Currency"}
		if showID {
			cols = append(cols, "GUID")
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	for _, r := range rows {
		name := r.Path
		if tree {
			name = strings.Repeat("  ", r.Depth) + model.LeafName(r.Path)
		}
		cols := []string{name, r.Type, r.Currency}
		if showID {
			cols = append(cols, r.ID)
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func (f Formatter) accountsCSV(w io.Writer, rows []model.AccountRow) error {
	cw := csv.NewWriter(w)
	showID := len(rows) > 0 && rows[0].ShowID
	if f.ShowHeader {
		cols := []string{"name", "type", "currency"}
		if showID {
			cols = append(cols, "guid")
		}
		if err := cw.Write(cols); err != nil {
			return err
		}
	}
	for _, r := range rows {
		cols := []string{r.Path, r.Type, r.Currency}
		if showID {
			cols = append(cols, r.ID)
		}
		if err := cw.Write(cols); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type accountJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	GUID     string `json:"guid,omitempty"`
}

func (f Formatter) accountsJSON(w io.Writer, rows []model.AccountRow) error {
	out := make([]accountJSON, len(rows))
	for i, r := range rows {
		out[i] = accountJSON{Name: r.Path, Type: r.Type, Currency: r.Currency}
		if r.ShowID {
			out[i].GUID = r.ID
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
