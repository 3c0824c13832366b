package currency

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLookbackDays bounds how far back a quote may be from the as-of date.
const DefaultLookbackDays = 30

// QuoteSource finds the most recent direct quote for from->to dated within
// [earliest, latest]. ok is false when no such quote exists. Implementations
// must never return forward-dated quotes.
type QuoteSource interface {
	Quote(from, to string, earliest, latest time.Time) (rate decimal.Decimal, ok bool, err error)
}

// Conversion is the outcome of one conversion attempt. When the needed rate
// is unavailable the amount and currency degrade to the original pair and
// Converted is false; unavailability is not an error.
type Conversion struct {
	Amount           decimal.Decimal
	Currency         string
	OriginalAmount   decimal.Decimal
	OriginalCurrency string
	Rate             decimal.Decimal
	Converted        bool
}

type rateKey struct {
	from, to string
	date     string
}

type rateEntry struct {
	rate  decimal.Decimal
	found bool
}

// Converter converts amounts using historical quotes. It memoizes lookups
// (hits and misses) per (from, to, date) for the lifetime of one query; do
// not share a Converter across concurrent queries.
type Converter struct {
	source   QuoteSource
	lookback int
	cache    map[rateKey]rateEntry
}

// NewConverter builds a query-scoped Converter. lookbackDays <= 0 selects
// the default window.
func NewConverter(source QuoteSource, lookbackDays int) *Converter {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Converter{
		source:   source,
		lookback: lookbackDays,
		cache:    make(map[rateKey]rateEntry),
	}
}

// Convert converts amount from one currency to another as of a date. The
// identity conversion returns rate 1 without consulting the quote source.
func (c *Converter) Convert(amount decimal.Decimal, from, to string, asOf time.Time) Conversion {
	if from == to {
		return Conversion{
			Amount:           amount,
			Currency:         to,
			OriginalAmount:   amount,
			OriginalCurrency: from,
			Rate:             decimal.NewFromInt(1),
			Converted:        false,
		}
	}

	rate, ok := c.rate(from, to, asOf)
	if !ok {
		return Conversion{
			Amount:           amount,
			Currency:         from,
			OriginalAmount:   amount,
			OriginalCurrency: from,
			Converted:        false,
		}
	}

	return Conversion{
		Amount:           amount.Mul(rate),
		Currency:         to,
		OriginalAmount:   amount,
		OriginalCurrency: from,
		Rate:             rate,
		Converted:        true,
	}
}

// rate returns the from->to rate as of a date, trying the direct pair first
// and then the reciprocal of the inverse pair.
func (c *Converter) rate(from, to string, asOf time.Time) (decimal.Decimal, bool) {
	key := rateKey{from: from, to: to, date: asOf.Format("2006-01-02")}
	if e, hit := c.cache[key]; hit {
		return e.rate, e.found
	}

	// A cached inverse answers the question by reciprocal.
	inverseKey := rateKey{from: to, to: from, date: key.date}
	if e, hit := c.cache[inverseKey]; hit && e.found && !e.rate.IsZero() {
		rate := decimal.NewFromInt(1).Div(e.rate)
		c.cache[key] = rateEntry{rate: rate, found: true}
		return rate, true
	}

	earliest := asOf.AddDate(0, 0, -c.lookback)

	rate, ok, err := c.source.Quote(from, to, earliest, asOf)
	if err == nil && !ok {
		// Only the inverse pair may be quoted; use its reciprocal.
		var inv decimal.Decimal
		inv, ok, err = c.source.Quote(to, from, earliest, asOf)
		if err == nil && ok && !inv.IsZero() {
			rate = decimal.NewFromInt(1).Div(inv)
		} else {
			ok = false
		}
	}
	if err != nil {
		ok = false
	}

	c.cache[key] = rateEntry{rate: rate, found: ok}
	return rate, ok
}
