package query

import (
	"strings"

	"github.com/bookgrep-dev/bookgrep/internal/model"
)

// Matches evaluates one split against the criteria. Description and notes
// belong to the split's parent transaction; the split itself carries the
// memo, posted date, amount and account. Pure predicate, no I/O.
func (c Criteria) Matches(s model.SplitRecord, description, notes string) bool {
	if c.accountIDs != nil {
		if _, ok := c.accountIDs[s.AccountID]; !ok {
			return false
		}
	}

	// after is inclusive, before exclusive; posted date only.
	if c.after != nil && s.Date.Before(*c.after) {
		return false
	}
	if c.before != nil && !s.Date.Before(*c.before) {
		return false
	}

	v := s.Value
	if !c.signed {
		v = v.Abs()
	}
	if c.minAmount != nil && v.LessThan(*c.minAmount) {
		return false
	}
	if c.maxAmount != nil && v.GreaterThan(*c.maxAmount) {
		return false
	}

	if c.pattern != nil {
		var sb strings.Builder
		if c.fields.Description {
			sb.WriteString(description)
			sb.WriteByte(' ')
		}
		if c.fields.Memo {
			sb.WriteString(s.Memo)
			sb.WriteByte(' ')
		}
		if c.fields.Notes {
			sb.WriteString(notes)
		}
		if !c.pattern.MatchString(sb.String()) {
			return false
		}
	}

	return true
}

// MatchAccounts returns the accounts whose full path matches the pattern,
// using the same substring/regex and case rules as text matching. With
// subtree enabled, descendants of every match are included. The result is
// computed once per query and fed into Criteria as the account scope.
func MatchAccounts(accounts []model.AccountRecord, pattern string, isRegex, caseSensitive, subtree bool) ([]model.AccountRecord, error) {
	crit, err := New(Params{Text: pattern, Regex: isRegex, CaseSensitive: caseSensitive})
	if err != nil {
		return nil, err
	}

	matched := make(map[string]bool)
	var out []model.AccountRecord
	for _, a := range accounts {
		if crit.pattern == nil || crit.pattern.MatchString(a.Path) {
			matched[a.ID] = true
			out = append(out, a)
		}
	}
	if !subtree {
		return out, nil
	}

	byID := make(map[string]model.AccountRecord, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	for _, a := range accounts {
		if matched[a.ID] {
			continue
		}
		for p := a.ParentID; p != ""; {
			if matched[p] {
				matched[a.ID] = true
				out = append(out, a)
				break
			}
			parent, ok := byID[p]
			if !ok {
				break
			}
			p = parent.ParentID
		}
	}
	return out, nil
}
