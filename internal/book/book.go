// Package book provides read-only access to a GnuCash SQLite file. It maps
// the stored schema into the record types the query pipeline consumes and
// implements its Source and QuoteSource contracts.
package book

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// OpenError reports a book that could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open book %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Info describes an open book's schema capabilities and size.
type Info struct {
	Path             string
	DefaultCurrency  string
	HasNotesColumn   bool
	HasSlotsNotes    bool
	AccountCount     int
	TransactionCount int
}

// Book is an open, read-only GnuCash file. The account hierarchy is loaded
// once at open time; everything else is queried on demand.
type Book struct {
	db   *sql.DB
	info Info

	accounts []accountNode
}

// Open opens a GnuCash SQLite file read-only and probes its capabilities.
func Open(path string) (*Book, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if st.IsDir() {
		return nil, &OpenError{Path: path, Err: fmt.Errorf("not a file")}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	b := &Book{db: db, info: Info{Path: path}}
	if err := b.probe(); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	if err := b.loadAccounts(); err != nil {
		db.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	return b, nil
}

// Close releases the underlying database handle.
func (b *Book) Close() error { return b.db.Close() }

// Info returns the capability and size summary probed at open time.
func (b *Book) Info() Info { return b.info }

// NotesSupported reports whether transaction notes are queryable, via either
// a notes column or the slots table. Resolved once per session.
func (b *Book) NotesSupported() bool {
	return b.info.HasNotesColumn || b.info.HasSlotsNotes
}

func (b *Book) probe() error {
	rows, err := b.db.Query(`PRAGMA table_info(transactions)`)
	if err != nil {
		return fmt.Errorf("probing transactions schema: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		if name == "notes" {
			b.info.HasNotesColumn = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// GnuCash proper stores transaction notes as slots.
	var n int
	err = b.db.QueryRow(`SELECT COUNT(*) FROM slots
		WHERE name = 'notes' AND obj_guid IN (SELECT guid FROM transactions)`).Scan(&n)
	if err == nil && n > 0 {
		b.info.HasSlotsNotes = true
	}

	if err := b.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&b.info.TransactionCount); err != nil {
		return fmt.Errorf("counting transactions: %w", err)
	}

	// The most common account commodity stands in for the book's default
	// currency.
	b.info.DefaultCurrency = "EUR"
	var mnemonic string
	err = b.db.QueryRow(`SELECT c.mnemonic FROM accounts a
		JOIN commodities c ON a.commodity_guid = c.guid
		WHERE a.account_type NOT IN ('ROOT', 'TRADING')
		GROUP BY c.mnemonic ORDER BY COUNT(*) DESC LIMIT 1`).Scan(&mnemonic)
	if err == nil && mnemonic != "" {
		b.info.DefaultCurrency = mnemonic
	}

	return nil
}

// dateLayouts are the post_date/price date encodings seen across GnuCash
// versions.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102150405",
}

// parseDate parses a stored timestamp and truncates it to UTC midnight;
// filtering operates on posted date only.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
