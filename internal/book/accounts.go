package book

import (
	"fmt"

	"github.com/bookgrep-dev/bookgrep/internal/model"
	"github.com/bookgrep-dev/bookgrep/internal/query"
)

type accountNode struct {
	record model.AccountRecord
}

// loadAccounts reads the chart of accounts once and materializes full
// colon-joined paths. ROOT and TRADING accounts are excluded, as are any
// accounts whose ancestry cannot be resolved.
func (b *Book) loadAccounts() error {
	rows, err := b.db.Query(`SELECT a.guid, a.name, a.account_type,
			COALESCE(a.parent_guid, ''), COALESCE(c.mnemonic, '')
		FROM accounts a
		LEFT JOIN commodities c ON a.commodity_guid = c.guid`)
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	defer rows.Close()

	type raw struct {
		guid, name, atype, parent, commodity string
	}
	all := make(map[string]raw)
	var order []string
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.guid, &r.name, &r.atype, &r.parent, &r.commodity); err != nil {
			return err
		}
		all[r.guid] = r
		order = append(order, r.guid)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	path := func(guid string) string {
		var parts []string
		for g := guid; g != ""; {
			r, ok := all[g]
			if !ok || r.atype == "ROOT" {
				break
			}
			parts = append([]string{r.name}, parts...)
			g = r.parent
		}
		out := ""
		for i, p := range parts {
			if i > 0 {
				out += ":"
			}
			out += p
		}
		return out
	}

	for _, guid := range order {
		r := all[guid]
		if r.atype == "ROOT" || r.atype == "TRADING" {
			continue
		}
		parent := r.parent
		if p, ok := all[parent]; ok && p.atype == "ROOT" {
			parent = ""
		}
		b.accounts = append(b.accounts, accountNode{record: model.AccountRecord{
			ID:        guid,
			Path:      path(guid),
			Type:      r.atype,
			Commodity: r.commodity,
			ParentID:  parent,
		}})
	}
	b.info.AccountCount = len(b.accounts)
	return nil
}

// Accounts returns all non-ROOT, non-TRADING accounts.
func (b *Book) Accounts() []model.AccountRecord {
	out := make([]model.AccountRecord, len(b.accounts))
	for i, n := range b.accounts {
		out[i] = n.record
	}
	return out
}

// MatchAccounts resolves an account pattern to concrete accounts, expanding
// subtrees unless disabled. This runs once per query, before any record scan.
func (b *Book) MatchAccounts(pattern string, isRegex, caseSensitive, subtree bool) ([]model.AccountRecord, error) {
	return query.MatchAccounts(b.Accounts(), pattern, isRegex, caseSensitive, subtree)
}
