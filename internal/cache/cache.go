// Package cache manages the optional sidecar database: denormalized
// split rows with precomputed lowercase search fields and an FTS5
// index, stored next to the book and rebuildable at any time.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bookgrep-dev/bookgrep/internal/book"
	"github.com/bookgrep-dev/bookgrep/internal/pipeline"
)

const schemaVersion = 1

// ErrExists is returned by Build when a cache is already present and
// force was not requested.
var ErrExists = errors.New("cache already exists")

// Manager operates on one sidecar cache file tied to one book path.
type Manager struct {
	cachePath string
	bookPath  string
}

// DefaultPath places the cache next to the book.
func DefaultPath(bookPath string) string {
	return bookPath + ".bookgrep-cache"
}

func NewManager(cachePath, bookPath string) *Manager {
	return &Manager{cachePath: cachePath, bookPath: bookPath}
}

// Status describes the cache file and its stored metadata.
type Status struct {
	Exists        bool
	Path          string
	SizeBytes     int64
	Modified      time.Time
	SplitCount    int
	SchemaVersion int
	SourceBook    string
	BuildTime     string
}

// Status inspects the cache file without modifying it.
func (m *Manager) Status() (Status, error) {
	st := Status{Path: m.cachePath}
	fi, err := os.Stat(m.cachePath)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Exists = true
	st.SizeBytes = fi.Size()
	st.Modified = fi.ModTime()

	db, err := sql.Open("sqlite", "file:"+m.cachePath+"?mode=ro")
	if err != nil {
		return st, err
	}
	defer db.Close()

	if err := db.QueryRow(`SELECT COUNT(*) FROM splits`).Scan(&st.SplitCount); err != nil {
		return st, fmt.Errorf("reading cache %s: %w", m.cachePath, err)
	}
	meta := func(key string) string {
		var v string
		if err := db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&v); err != nil {
			return ""
		}
		return v
	}
	st.SchemaVersion, _ = strconv.Atoi(meta("schema_version"))
	st.SourceBook = meta("book_path")
	st.BuildTime = meta("build_time")
	return st, nil
}

// Build creates the cache from an open book. An existing cache is an
// error unless force is set, in which case it is dropped first.
// Returns the number of splits cached.
func (m *Manager) Build(b *book.Book, force bool) (int, error) {
	if _, err := os.Stat(m.cachePath); err == nil {
		if !force {
			return 0, fmt.Errorf("%w at %s", ErrExists, m.cachePath)
		}
		if _, err := m.Drop(); err != nil {
			return 0, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(m.cachePath), 0o755); err != nil {
		return 0, err
	}

	db, err := sql.Open("sqlite", m.cachePath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return 0, fmt.Errorf("creating cache schema: %w", err)
		}
	}
	metadata := [][2]string{
		{"schema_version", strconv.Itoa(schemaVersion)},
		{"book_path", m.bookPath},
		{"build_time", time.Now().Format(time.RFC3339)},
	}
	for _, kv := range metadata {
		if _, err := tx.Exec(`INSERT INTO metadata (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return 0, err
		}
	}

	splits, err := b.Splits(pipeline.Hints{})
	if err != nil {
		return 0, err
	}
	ins, err := tx.Prepare(`INSERT INTO splits (
			split_guid, tx_guid, account_guid, tx_date,
			description, description_lower,
			account_name, account_name_lower,
			memo, memo_lower, amount, currency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer ins.Close()

	for _, sc := range splits {
		s := sc.Split
		_, err := ins.Exec(
			s.SplitID, s.TxID, s.AccountID, s.Date.Format("2006-01-02"),
			sc.Description, strings.ToLower(sc.Description),
			s.AccountPath, strings.ToLower(s.AccountPath),
			s.Memo, strings.ToLower(s.Memo),
			s.Value.String(), s.Commodity,
		)
		if err != nil {
			return 0, fmt.Errorf("caching split %s: %w", s.SplitID, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO splits_fts (split_guid, description, account_name, memo)
		SELECT split_guid, description, account_name, memo FROM splits`); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(splits), nil
}

// Drop deletes the cache file, reporting whether one existed.
func (m *Manager) Drop() (bool, error) {
	err := os.Remove(m.cachePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Entry is one cached split row.
type Entry struct {
	SplitID     string
	TxID        string
	AccountID   string
	Date        string
	Description string
	AccountPath string
	Memo        string
	Amount      string
	Currency    string
}

// Search queries the cache directly. FTS uses the full-text index;
// otherwise a LIKE scan over the precomputed lowercase fields.
func (m *Manager) Search(text string, useFTS bool, limit int) ([]Entry, error) {
	if _, err := os.Stat(m.cachePath); err != nil {
		return nil, fmt.Errorf("cache does not exist at %s, run 'cache build' first", m.cachePath)
	}
	db, err := sql.Open("sqlite", "file:"+m.cachePath+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows *sql.Rows
	if useFTS {
		q := `SELECT s.split_guid, s.tx_guid, s.account_guid, s.tx_date,
				s.description, s.account_name, s.memo, s.amount, s.currency
			FROM splits s
			JOIN splits_fts fts ON s.split_guid = fts.split_guid
			WHERE splits_fts MATCH ?
			ORDER BY s.tx_date DESC`
		args := []any{text}
		if limit > 0 {
			q += " LIMIT ?"
			args = append(args, limit)
		}
		rows, err = db.Query(q, args...)
	} else {
		pattern := "%" + strings.ToLower(text) + "%"
		q := `SELECT split_guid, tx_guid, account_guid, tx_date,
				description, account_name, memo, amount, currency
			FROM splits
			WHERE description_lower LIKE ? OR memo_lower LIKE ? OR account_name_lower LIKE ?
			ORDER BY tx_date DESC`
		args := []any{pattern, pattern, pattern}
		if limit > 0 {
			q += " LIMIT ?"
			args = append(args, limit)
		}
		rows, err = db.Query(q, args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SplitID, &e.TxID, &e.AccountID, &e.Date,
			&e.Description, &e.AccountPath, &e.Memo, &e.Amount, &e.Currency); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var schemaStatements = []string{
	`CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT)`,
	`CREATE TABLE splits (
		split_guid TEXT PRIMARY KEY,
		tx_guid TEXT NOT NULL,
		account_guid TEXT NOT NULL,
		tx_date TEXT NOT NULL,
		description TEXT NOT NULL,
		description_lower TEXT NOT NULL,
		account_name TEXT NOT NULL,
		account_name_lower TEXT NOT NULL,
		memo TEXT,
		memo_lower TEXT,
		amount TEXT NOT NULL,
		currency TEXT
	)`,
	`CREATE INDEX idx_splits_tx_date ON splits(tx_date)`,
	`CREATE INDEX idx_splits_tx_guid ON splits(tx_guid)`,
	`CREATE INDEX idx_splits_account ON splits(account_name_lower)`,
	`CREATE VIRTUAL TABLE splits_fts USING fts5(
		split_guid, description, account_name, memo
	)`,
}
