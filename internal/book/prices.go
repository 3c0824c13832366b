package book

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookgrep-dev/bookgrep/internal/query"
)

// Quote returns the most recent from->to price dated within
// [earliest, latest], implementing currency.QuoteSource. Inverse-pair
// handling is the converter's concern; this is the direct lookup only.
func (b *Book) Quote(from, to string, earliest, latest time.Time) (decimal.Decimal, bool, error) {
	var num, denom int64
	err := b.db.QueryRow(`SELECT p.value_num, p.value_denom
		FROM prices p
		JOIN commodities c1 ON p.commodity_guid = c1.guid
		JOIN commodities c2 ON p.currency_guid = c2.guid
		WHERE c1.mnemonic = ? AND c2.mnemonic = ?
		  AND date(p.date) <= date(?) AND date(p.date) >= date(?)
		ORDER BY p.date DESC LIMIT 1`,
		from, to,
		latest.Format(query.DateFormat), earliest.Format(query.DateFormat),
	).Scan(&num, &denom)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("querying price %s/%s: %w", from, to, err)
	}
	if denom == 0 {
		return decimal.Zero, false, nil
	}
	return ratio(num, denom), true, nil
}
