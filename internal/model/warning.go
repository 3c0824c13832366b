package model

import "fmt"

// WarningCode identifies a non-fatal degradation that occurred during a query.
type WarningCode string

const (
	WarnNotesUnsupported      WarningCode = "notes-unsupported"
	WarnConversionUnavailable WarningCode = "conversion-unavailable"
	WarnUnbalanceable         WarningCode = "unbalanceable-transaction"
)

// Warning is surfaced to the caller alongside the result set, never mixed
// into the result rows and never fatal.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
