package currency

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// memQuotes is an in-memory QuoteSource that records lookup traffic.
type memQuotes struct {
	quotes  map[string][]datedRate // "FROM/TO" -> quotes
	lookups int
}

type datedRate struct {
	date time.Time
	rate decimal.Decimal
}

func newMemQuotes() *memQuotes {
	return &memQuotes{quotes: make(map[string][]datedRate)}
}

func (m *memQuotes) add(from, to string, date time.Time, rate string) {
	key := from + "/" + to
	m.quotes[key] = append(m.quotes[key], datedRate{date: date, rate: dec(rate)})
}

func (m *memQuotes) Quote(from, to string, earliest, latest time.Time) (decimal.Decimal, bool, error) {
	m.lookups++
	var best datedRate
	found := false
	for _, q := range m.quotes[from+"/"+to] {
		if q.date.Before(earliest) || q.date.After(latest) {
			continue
		}
		if !found || q.date.After(best.date) {
			best = q
			found = true
		}
	}
	return best.rate, found, nil
}

func TestConvert_IdentityNoLookup(t *testing.T) {
	src := newMemQuotes()
	c := NewConverter(src, 30)

	got := c.Convert(dec("42.17"), "EUR", "EUR", day(2025, 5, 1))
	assert.True(t, got.Amount.Equal(dec("42.17")))
	assert.Equal(t, "EUR", got.Currency)
	assert.True(t, got.Rate.Equal(dec("1")))
	assert.Equal(t, 0, src.lookups, "identity conversion must not consult the quote source")
}

func TestConvert_DirectQuote(t *testing.T) {
	src := newMemQuotes()
	src.add("USD", "EUR", day(2025, 4, 28), "0.9")
	c := NewConverter(src, 30)

	got := c.Convert(dec("100"), "USD", "EUR", day(2025, 5, 1))
	require.True(t, got.Converted)
	assert.True(t, got.Amount.Equal(dec("90")))
	assert.Equal(t, "EUR", got.Currency)
	assert.True(t, got.Rate.Equal(dec("0.9")))
	assert.Equal(t, "USD", got.OriginalCurrency)
	assert.True(t, got.OriginalAmount.Equal(dec("100")))
}

func TestConvert_PicksMostRecentQuoteOnOrBefore(t *testing.T) {
	src := newMemQuotes()
	src.add("USD", "EUR", day(2025, 4, 10), "0.80")
	src.add("USD", "EUR", day(2025, 4, 25), "0.90")
	src.add("USD", "EUR", day(2025, 5, 2), "0.99") // future relative to as-of
	c := NewConverter(src, 30)

	got := c.Convert(dec("10"), "USD", "EUR", day(2025, 5, 1))
	require.True(t, got.Converted)
	assert.True(t, got.Rate.Equal(dec("0.90")), "must use the latest quote on or before as-of, never a future one")
}

func TestConvert_InverseReciprocal(t *testing.T) {
	src := newMemQuotes()
	src.add("EUR", "USD", day(2025, 4, 30), "1.25") // only the inverse pair is quoted
	c := NewConverter(src, 30)

	got := c.Convert(dec("10"), "USD", "EUR", day(2025, 5, 1))
	require.True(t, got.Converted)
	assert.True(t, got.Rate.Equal(dec("0.8")), "forward rate must equal the reciprocal of the inverse quote")
	assert.True(t, got.Amount.Equal(dec("8")))
}

func TestConvert_QuoteOlderThanLookbackUnavailable(t *testing.T) {
	src := newMemQuotes()
	src.add("USD", "EUR", day(2025, 3, 1), "0.9")
	c := NewConverter(src, 30)

	got := c.Convert(dec("100"), "USD", "EUR", day(2025, 5, 1))
	assert.False(t, got.Converted)
	assert.Equal(t, "USD", got.Currency, "unavailable conversion degrades to the original currency")
	assert.True(t, got.Amount.Equal(dec("100")))
}

func TestConvert_MissIsCached(t *testing.T) {
	src := newMemQuotes()
	c := NewConverter(src, 30)

	c.Convert(dec("1"), "USD", "EUR", day(2025, 5, 1))
	after := src.lookups
	c.Convert(dec("2"), "USD", "EUR", day(2025, 5, 1))
	assert.Equal(t, after, src.lookups, "repeated misses for the same pair and date must not re-query")
}

func TestConvert_HitIsCached(t *testing.T) {
	src := newMemQuotes()
	src.add("USD", "EUR", day(2025, 4, 30), "0.9")
	c := NewConverter(src, 30)

	c.Convert(dec("1"), "USD", "EUR", day(2025, 5, 1))
	after := src.lookups
	c.Convert(dec("2"), "USD", "EUR", day(2025, 5, 1))
	assert.Equal(t, after, src.lookups)
}

func TestConvert_CachedForwardAnswersInverse(t *testing.T) {
	src := newMemQuotes()
	src.add("USD", "EUR", day(2025, 4, 30), "0.8")
	c := NewConverter(src, 30)

	c.Convert(dec("1"), "USD", "EUR", day(2025, 5, 1))
	after := src.lookups

	got := c.Convert(dec("8"), "EUR", "USD", day(2025, 5, 1))
	require.True(t, got.Converted)
	assert.True(t, got.Rate.Equal(dec("1.25")))
	assert.True(t, got.Amount.Equal(dec("10")))
	assert.Equal(t, after, src.lookups, "reciprocal should come from the cache")
}

func TestConvert_ExactDecimalPrecision(t *testing.T) {
	src := newMemQuotes()
	src.add("GBP", "EUR", day(2025, 4, 30), "1.173")
	c := NewConverter(src, 30)

	got := c.Convert(dec("33.33"), "GBP", "EUR", day(2025, 5, 1))
	require.True(t, got.Converted)
	// Full precision retained internally; rounding is presentation's concern.
	assert.True(t, got.Amount.Equal(dec("39.096090")), "got %s", got.Amount)
}
