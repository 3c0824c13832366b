package commands

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fixtureBook writes a small two-currency book and returns its path.
func fixtureBook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gnucash")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
CREATE TABLE commodities (guid TEXT PRIMARY KEY, namespace TEXT, mnemonic TEXT);
CREATE TABLE accounts (guid TEXT PRIMARY KEY, name TEXT, account_type TEXT,
	commodity_guid TEXT, parent_guid TEXT);
CREATE TABLE transactions (guid TEXT PRIMARY KEY, currency_guid TEXT,
	post_date TEXT, description TEXT, notes TEXT);
CREATE TABLE splits (guid TEXT PRIMARY KEY, tx_guid TEXT, account_guid TEXT,
	memo TEXT, value_num INTEGER, value_denom INTEGER);
CREATE TABLE prices (guid TEXT PRIMARY KEY, commodity_guid TEXT,
	currency_guid TEXT, date TEXT, value_num INTEGER, value_denom INTEGER);
CREATE TABLE slots (id INTEGER PRIMARY KEY, obj_guid TEXT, name TEXT, string_val TEXT);

INSERT INTO commodities VALUES ('cur-eur', 'CURRENCY', 'EUR');
INSERT INTO accounts VALUES ('acc-root', 'Root', 'ROOT', NULL, NULL);
INSERT INTO accounts VALUES ('acc-assets', 'Assets', 'ASSET', 'cur-eur', 'acc-root');
INSERT INTO accounts VALUES ('acc-checking', 'Checking', 'BANK', 'cur-eur', 'acc-assets');
INSERT INTO accounts VALUES ('acc-food', 'Food', 'EXPENSE', 'cur-eur', 'acc-root');
INSERT INTO transactions (guid, currency_guid, post_date, description)
	VALUES ('tx1', 'cur-eur', '2024-03-05 10:30:00', 'Weekly shop');
INSERT INTO transactions (guid, currency_guid, post_date, description)
	VALUES ('tx2', 'cur-eur', '2024-04-01 00:00:00', 'Restaurant dinner');
INSERT INTO splits VALUES ('sp1', 'tx1', 'acc-checking', '', -4250, 100);
INSERT INTO splits VALUES ('sp2', 'tx1', 'acc-food', 'groceries', 4250, 100);
INSERT INTO splits VALUES ('sp3', 'tx2', 'acc-checking', '', -8000, 100);
INSERT INTO splits VALUES ('sp4', 'tx2', 'acc-food', '', 8000, 100);
`)
	require.NoError(t, err)
	return path
}

// run executes the CLI in process and returns captured stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestGrepFindsMatches(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "grep", "weekly", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly shop")
	assert.NotContains(t, out, "Restaurant dinner")
}

func TestGrepNoMatches(t *testing.T) {
	book := fixtureBook(t)
	_, err := run(t, "grep", "nonexistent", "--book", book)
	require.ErrorIs(t, err, ErrNoMatches)
}

func TestGrepInvalidRegex(t *testing.T) {
	book := fixtureBook(t)
	_, err := run(t, "grep", "[unclosed", "--regex", "--book", book)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoMatches)
}

func TestGrepAccountScope(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "grep", "shop", "--book", book, "--account", "Checking")
	require.NoError(t, err)
	assert.Contains(t, out, "Checking")
	assert.NotContains(t, out, "Food")
}

func TestGrepDateFilter(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "grep", "e", "--book", book, "--after", "2024-04-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Restaurant dinner")
	assert.NotContains(t, out, "Weekly shop")
}

func TestGrepFullTx(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "grep", "groceries", "--book", book, "--full-tx")
	require.NoError(t, err)
	assert.Contains(t, out, "[2024-03-05] Weekly shop")
	// Full context shows the other leg too.
	assert.Contains(t, out, "Checking")
}

func TestGrepJSONFormat(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "grep", "weekly", "--book", book, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"description": "Weekly shop"`)
}

func TestLedger(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "ledger", "Food", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly shop")
	assert.Contains(t, out, "Restaurant dinner")
}

func TestLedgerUnknownAccount(t *testing.T) {
	book := fixtureBook(t)
	_, err := run(t, "ledger", "Nonexistent", "--book", book)
	require.ErrorIs(t, err, ErrNoMatches)
}

func TestAccounts(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "accounts", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Assets:Checking")
	assert.Contains(t, out, "Food")
}

func TestAccountsPattern(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "accounts", "check", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Checking")
	assert.NotContains(t, out, "Food")
}

func TestTxShowsAllSplits(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "tx", "tx1", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "[2024-03-05] Weekly shop")
	assert.Contains(t, out, "GUID: tx1")
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "Food")
}

func TestTxNotFound(t *testing.T) {
	book := fixtureBook(t)
	_, err := run(t, "tx", "missing", "--book", book)
	require.ErrorIs(t, err, ErrNoMatches)
}

func TestSplitByGUID(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "split", "sp2", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "groceries")
}

func TestDoctor(t *testing.T) {
	book := fixtureBook(t)
	out, err := run(t, "doctor", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Transaction count: 2")
	assert.Contains(t, out, "base_currency: EUR")
}

func TestCacheLifecycle(t *testing.T) {
	book := fixtureBook(t)
	cachePath := filepath.Join(t.TempDir(), "cache.db")
	t.Setenv("BOOKGREP_CACHE_PATH", cachePath)

	out, err := run(t, "cache", "build", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "4 splits")

	out, err = run(t, "cache", "status", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Cache exists: true")
	assert.Contains(t, out, "Split count: 4")

	out, err = run(t, "cache", "drop", "--book", book)
	require.NoError(t, err)
	assert.Contains(t, out, "Cache dropped.")
}

func TestNoBookConfigured(t *testing.T) {
	_, err := run(t, "grep", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no book configured")
}
