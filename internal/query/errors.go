package query

import "fmt"

// InvalidPatternError reports an uncompilable search pattern. It is raised
// at criteria construction, before any record is scanned.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// InvalidRangeError reports a malformed or inverted date/amount bound pair.
type InvalidRangeError struct {
	Kind   string // "date" or "amount"
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s range: %s", e.Kind, e.Reason)
}
