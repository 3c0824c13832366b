package currency

import "github.com/bookgrep-dev/bookgrep/internal/model"

// DisplayCurrency decides the single query-wide target currency for a result
// set. ok is false when no query-wide target applies and each row keeps its
// own currency. Per-row degradation on a failed conversion is the converter's
// concern; this decision is made once per query.
//
// accountCurrencies is the set of native commodities of the explicitly
// selected accounts (subtree already expanded), nil/empty when the query has
// no account scope.
func DisplayCurrency(policy Policy, splits []model.SplitRecord, accountCurrencies []string) (target string, ok bool) {
	switch policy.Mode {
	case ModeSplit:
		return "", false

	case ModeBase:
		return policy.BaseCurrency, true

	case ModeAccount:
		if len(accountCurrencies) == 1 {
			return accountCurrencies[0], true
		}
		return "", false

	case ModeAuto:
		if len(accountCurrencies) == 1 {
			return accountCurrencies[0], true
		}
		if c, single := singleCommodity(splits); single {
			return c, true
		}
		return policy.BaseCurrency, true
	}

	// Unreachable with a parsed Mode.
	return "", false
}

// AccountCurrencies returns the distinct native commodities of a selection,
// in first-seen order.
func AccountCurrencies(accounts []model.AccountRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range accounts {
		if a.Commodity == "" || seen[a.Commodity] {
			continue
		}
		seen[a.Commodity] = true
		out = append(out, a.Commodity)
	}
	return out
}

func singleCommodity(splits []model.SplitRecord) (string, bool) {
	var c string
	for _, s := range splits {
		if s.Commodity == "" {
			continue
		}
		if c == "" {
			c = s.Commodity
			continue
		}
		if s.Commodity != c {
			return "", false
		}
	}
	return c, c != ""
}
