package currency

import "fmt"

// Mode is the closed set of currency display modes.
type Mode int

const (
	ModeAuto Mode = iota
	ModeBase
	ModeSplit
	ModeAccount
)

// ParseMode parses a display mode name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "auto":
		return ModeAuto, nil
	case "base":
		return ModeBase, nil
	case "split":
		return ModeSplit, nil
	case "account":
		return ModeAccount, nil
	}
	return ModeAuto, fmt.Errorf("unknown currency mode %q", s)
}

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeBase:
		return "base"
	case ModeSplit:
		return "split"
	case ModeAccount:
		return "account"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Policy bundles the display-currency settings for one query.
type Policy struct {
	Mode         Mode
	BaseCurrency string
	LookbackDays int
	AlsoOriginal bool // retain original amount/currency alongside converted
}
