package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

func row(desc, account string, amount string) model.SplitRow {
	return model.SplitRow{
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Account:     account,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "EUR",
		TxID:        "tx1",
		SplitID:     "sp1",
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "csv", "json"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestSplitsTable(t *testing.T) {
	var buf bytes.Buffer
	f := Formatter{Format: FormatTable, ShowHeader: true}
	require.NoError(t, f.Splits(&buf, []model.SplitRow{row("Groceries", "Expenses:Food", "-42.50")}))

	out := buf.String()
	assert.Contains(t, out, "Date")
	assert.Contains(t, out, "2024-03-05")
	assert.Contains(t, out, "Expenses:Food")
	assert.Contains(t, out, "-42.50")
	// No notes in any row, so no notes column.
	assert.NotContains(t, out, "Notes")
}

func TestSplitsTableNoHeader(t *testing.T) {
	var buf bytes.Buffer
	f := Formatter{Format: FormatTable}
	require.NoError(t, f.Splits(&buf, []model.SplitRow{row("Groceries", "Expenses:Food", "-42.50")}))
	assert.NotContains(t, buf.String(), "Date")
}

func TestSplitsTableNotesColumnAppears(t *testing.T) {
	r := row("Groceries", "Expenses:Food", "-42.50")
	r.Notes = "weekly shop"
	var buf bytes.Buffer
	f := Formatter{Format: FormatTable, ShowHeader: true}
	require.NoError(t, f.Splits(&buf, []model.SplitRow{r}))
	assert.Contains(t, buf.String(), "Notes")
	assert.Contains(t, buf.String(), "weekly shop")
}

func TestSplitsTableOriginalColumns(t *testing.T) {
	r := row("Hotel", "Expenses:Travel", "95.00")
	r.HasOriginal = true
	r.OrigAmount = decimal.RequireFromString("100")
	r.OrigCurrency = "USD"
	var buf bytes.Buffer
	f := Formatter{Format: FormatTable, ShowHeader: true}
	require.NoError(t, f.Splits(&buf, []model.SplitRow{r}))
	assert.Contains(t, buf.String(), "Orig Amt")
	assert.Contains(t, buf.String(), "USD")
}

func TestSplitsTableTruncatesLongText(t *testing.T) {
	r := row(strings.Repeat("x", 60), "Expenses:Food", "1.00")
	var buf bytes.Buffer
	f := Formatter{Format: FormatTable}
	require.NoError(t, f.Splits(&buf, []model.SplitRow{r}))
	assert.Contains(t, buf.String(), strings.Repeat("x", 37)+"...")
	assert.NotContains(t, buf.String(), strings.Repeat("x", 41))
}

func TestSplitsCSV(t *testing.T) {
	r := row("Groceries, weekly", "Expenses:Food", "-42.50")
	r.Converted = true
	r.Rate = decimal.RequireFromString("0.92")
	var buf bytes.Buffer
	f := Formatter{Format: FormatCSV, ShowHeader: true}
	require.NoError(t, f.Splits(&buf, []model.SplitRow{r}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,description,account,memo,amount,currency,fx_rate,tx_guid,split_guid", lines[0])
	assert.Contains(t, lines[1], `"Groceries, weekly"`)
	assert.Contains(t, lines[1], "0.92")
}

func TestSplitsJSON(t *testing.T) {
	var buf bytes.Buffer
	f := Formatter{Format: FormatJSON}
	require.NoError(t, f.Splits(&buf, []model.SplitRow{row("Groceries", "Expenses:Food", "-42.5")}))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "-42.5", got[0]["amount"])
	assert.Equal(t, "EUR", got[0]["currency"])
	_, hasNotes := got[0]["notes"]
	assert.False(t, hasNotes)
	_, hasRate := got[0]["fx_rate"]
	assert.False(t, hasRate)
}

func TestEmptyWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	f := Formatter{Format: FormatTable, ShowHeader: true}
	require.NoError(t, f.Splits(&buf, nil))
	require.NoError(t, f.Transactions(&buf, nil))
	require.NoError(t, f.Accounts(&buf, nil, false))
	assert.Empty(t, buf.String())
}

func TestTransactionsTable(t *testing.T) {
	s1 := row("", "Assets:Checking", "-42.50")
	s1.Memo = "card payment"
	s2 := row("", "Expenses:Food", "42.50")
	tx := model.TransactionRow{
		TxID:        "tx1",
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "Weekly shop",
		Notes:       "bought veggies",
		Splits:      []model.SplitRow{s1, s2},
	}

	var buf bytes.Buffer
	f := Formatter{Format: FormatTable, ShowHeader: true}
	require.NoError(t, f.Transactions(&buf, []model.TransactionRow{tx, tx}))

	out := buf.String()
	assert.Contains(t, out, "[2024-03-05] Weekly shop")
	assert.Contains(t, out, "Notes: bought veggies")
	assert.Contains(t, out, "GUID: tx1")
	assert.Contains(t, out, "Memo: card payment")
	// Blank line between blocks.
	assert.Contains(t, out, "\n\n[2024-03-05]")
}

func TestTransactionsCSVFlattens(t *testing.T) {
	tx := model.TransactionRow{
		TxID: "tx1", Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Description: "Weekly shop",
		Splits:      []model.SplitRow{row("Weekly shop", "A", "1"), row("Weekly shop", "B", "-1")},
	}
	var buf bytes.Buffer
	f := Formatter{Format: FormatCSV, ShowHeader: true}
	require.NoError(t, f.Transactions(&buf, []model.TransactionRow{tx}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestAccountsTree(t *testing.T) {
	rows := []model.AccountRow{
		{Path: "Assets", Type: "ASSET", Currency: "EUR", Depth: 0},
		{Path: "Assets:Checking", Type: "BANK", Currency: "EUR", Depth: 1},
	}
	var buf bytes.Buffer
	f := Formatter{Format: FormatTable, ShowHeader: true}
	require.NoError(t, f.Accounts(&buf, rows, true))
	assert.Contains(t, buf.String(), "  Checking")
	assert.NotContains(t, buf.String(), "Assets:Checking")
}

func TestAccountsGUIDColumn(t *testing.T) {
	rows := []model.AccountRow{
		{Path: "Assets", Type: "ASSET", Currency: "EUR", ID: "acc-1", ShowID: true},
	}
	var buf bytes.Buffer
	f := Formatter{Format: FormatCSV, ShowHeader: true}
	require.NoError(t, f.Accounts(&buf, rows, false))
	assert.Contains(t, buf.String(), "guid")
	assert.Contains(t, buf.String(), "acc-1")
}
