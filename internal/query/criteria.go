package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the accepted calendar-date format for all filters.
const DateFormat = "2006-01-02"

// FieldSet selects which text fields the pattern is matched against.
type FieldSet struct {
	Description bool
	Memo        bool
	Notes       bool
}

// AllFields is the default field set.
var AllFields = FieldSet{Description: true, Memo: true, Notes: true}

// ParseFields parses a comma-separated field list like "desc,memo,notes".
func ParseFields(s string) (FieldSet, error) {
	var fs FieldSet
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "desc", "description":
			fs.Description = true
		case "memo":
			fs.Memo = true
		case "notes":
			fs.Notes = true
		case "":
		default:
			return FieldSet{}, fmt.Errorf("unknown search field %q", part)
		}
	}
	if fs == (FieldSet{}) {
		return FieldSet{}, fmt.Errorf("no search fields selected")
	}
	return fs, nil
}

// Granularity controls result deduplication.
type Granularity int

const (
	DedupeSplit Granularity = iota // one row per matching split
	DedupeTx                       // first matching split per transaction
)

// ParseGranularity parses "split" or "tx".
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "split":
		return DedupeSplit, nil
	case "tx":
		return DedupeTx, nil
	}
	return DedupeSplit, fmt.Errorf("unknown dedupe granularity %q", s)
}

// DateSpan is the inclusive-inclusive "A..B" shorthand before normalization.
// Either side may be nil (unbounded).
type DateSpan struct {
	Start *time.Time
	End   *time.Time
}

// Params collects everything needed to build a Criteria. The account scope
// must already be expanded to concrete account IDs (nil means unrestricted).
type Params struct {
	Text          string
	Regex         bool
	CaseSensitive bool
	Fields        FieldSet

	AccountIDs []string

	After  *time.Time // inclusive
	Before *time.Time // exclusive
	Span   *DateSpan  // overrides After/Before on the sides it sets

	MinAmount *decimal.Decimal // inclusive
	MaxAmount *decimal.Decimal // inclusive
	Signed    bool             // compare raw signed value instead of |value|

	Dedupe Granularity
}

// Criteria is an immutable, validated filter. Build it once per query with
// New; an uncompilable pattern or inverted range fails here, never mid-scan.
type Criteria struct {
	pattern    *regexp.Regexp
	fields     FieldSet
	accountIDs map[string]struct{}
	after      *time.Time
	before     *time.Time
	minAmount  *decimal.Decimal
	maxAmount  *decimal.Decimal
	signed     bool
	dedupe     Granularity
}

// New validates params and builds a Criteria.
func New(p Params) (Criteria, error) {
	c := Criteria{
		fields:    p.Fields,
		after:     p.After,
		before:    p.Before,
		minAmount: p.MinAmount,
		maxAmount: p.MaxAmount,
		signed:    p.Signed,
		dedupe:    p.Dedupe,
	}
	if c.fields == (FieldSet{}) {
		c.fields = AllFields
	}

	if p.Text != "" {
		expr := p.Text
		if !p.Regex {
			expr = regexp.QuoteMeta(expr)
		}
		if !p.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return Criteria{}, &InvalidPatternError{Pattern: p.Text, Err: err}
		}
		c.pattern = re
	}

	// The A..B shorthand is inclusive on both ends; normalize to the
	// canonical after-inclusive/before-exclusive pair once, here.
	if p.Span != nil {
		if p.Span.Start != nil {
			c.after = p.Span.Start
		}
		if p.Span.End != nil {
			end := p.Span.End.AddDate(0, 0, 1)
			c.before = &end
		}
	}
	if c.after != nil && c.before != nil && !c.after.Before(*c.before) {
		return Criteria{}, &InvalidRangeError{
			Kind:   "date",
			Reason: fmt.Sprintf("%s is not before %s", c.after.Format(DateFormat), c.before.Format(DateFormat)),
		}
	}

	if c.minAmount != nil && c.maxAmount != nil && c.minAmount.GreaterThan(*c.maxAmount) {
		return Criteria{}, &InvalidRangeError{
			Kind:   "amount",
			Reason: fmt.Sprintf("minimum %s exceeds maximum %s", c.minAmount, c.maxAmount),
		}
	}

	if len(p.AccountIDs) > 0 {
		c.accountIDs = make(map[string]struct{}, len(p.AccountIDs))
		for _, id := range p.AccountIDs {
			c.accountIDs[id] = struct{}{}
		}
	}

	return c, nil
}

// Fields returns the searched field set.
func (c Criteria) Fields() FieldSet { return c.fields }

// After returns the inclusive lower date bound, nil when unbounded. Exposed
// so record sources can prefilter; matching never depends on that.
func (c Criteria) After() *time.Time { return c.after }

// Before returns the exclusive upper date bound, nil when unbounded.
func (c Criteria) Before() *time.Time { return c.before }

// Signed reports whether amount bounds compare signed values.
func (c Criteria) Signed() bool { return c.signed }

// Dedupe returns the requested dedupe granularity.
func (c Criteria) Dedupe() Granularity { return c.dedupe }

// HasAccountScope reports whether an explicit account selection is in effect.
func (c Criteria) HasAccountScope() bool { return c.accountIDs != nil }

// WithoutNotes returns a copy that does not search the notes field. Used
// once per session when the book reports notes as unsupported.
func (c Criteria) WithoutNotes() Criteria {
	c.fields.Notes = false
	return c
}

// ParseDate parses a YYYY-MM-DD calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseDateSpan parses "A..B", "A.." or "..B" (both ends inclusive).
func ParseDateSpan(s string) (*DateSpan, error) {
	startStr, endStr, ok := strings.Cut(s, "..")
	if !ok {
		return nil, &InvalidRangeError{Kind: "date", Reason: fmt.Sprintf("%q: want A..B, A.. or ..B", s)}
	}
	var span DateSpan
	if startStr = strings.TrimSpace(startStr); startStr != "" {
		t, err := ParseDate(startStr)
		if err != nil {
			return nil, &InvalidRangeError{Kind: "date", Reason: err.Error()}
		}
		span.Start = &t
	}
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		t, err := ParseDate(endStr)
		if err != nil {
			return nil, &InvalidRangeError{Kind: "date", Reason: err.Error()}
		}
		span.End = &t
	}
	return &span, nil
}

// ParseAmountSpan parses "MIN..MAX", "MIN.." or "..MAX" (both ends inclusive).
func ParseAmountSpan(s string) (minAmt, maxAmt *decimal.Decimal, err error) {
	minStr, maxStr, ok := strings.Cut(s, "..")
	if !ok {
		return nil, nil, &InvalidRangeError{Kind: "amount", Reason: fmt.Sprintf("%q: want MIN..MAX, MIN.. or ..MAX", s)}
	}
	if minStr = strings.TrimSpace(minStr); minStr != "" {
		d, derr := decimal.NewFromString(minStr)
		if derr != nil {
			return nil, nil, &InvalidRangeError{Kind: "amount", Reason: fmt.Sprintf("bad amount %q", minStr)}
		}
		minAmt = &d
	}
	if maxStr = strings.TrimSpace(maxStr); maxStr != "" {
		d, derr := decimal.NewFromString(maxStr)
		if derr != nil {
			return nil, nil, &InvalidRangeError{Kind: "amount", Reason: fmt.Sprintf("bad amount %q", maxStr)}
		}
		maxAmt = &d
	}
	return minAmt, maxAmt, nil
}
