package transform

import (
	"sort"

	"tracker-etl/internal/config"
	"tracker-etl/internal/frame"
)

// CorrectionRule is a named single-row data patch. Rules match on the value of
// a key column and set a named column, so they survive reordering of rows and
// columns in the source workbook. Rules run before renaming and cleaning, so
// column references use the raw composed headers.
type CorrectionRule struct {
	Name       string
	KeyColumn  string // empty means the first column
	MatchValue string
	SetColumn  string
	Value      any
}

// Registered corrections. The one shipped rule patches the revised German
// total that the upstream workbook carries with a stale value.
var correctionRules = map[string]CorrectionRule{
	"german_aid_revision": {
		Name:       "german_aid_revision",
		KeyColumn:  "",
		MatchValue: "Germany",
		SetColumn:  "Total bilateral allocations (€ billion)",
		Value:      18.08,
	},
}

// RuleNames lists the registered correction rule names for config validation.
func RuleNames() []string {
	names := make([]string, 0, len(correctionRules))
	for name := range correctionRules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) applyCorrections(f *frame.Frame, spec config.TransformSpec) (*frame.Frame, bool, error) {
	if len(spec.Corrections) == 0 {
		return f, false, nil
	}
	for _, name := range spec.Corrections {
		rule, ok := correctionRules[name]
		if !ok {
			return nil, false, opErr("corrections", "unknown rule %q", name)
		}
		if err := applyRule(f, rule); err != nil {
			return nil, false, err
		}
	}
	return f, true, nil
}

func applyRule(f *frame.Frame, rule CorrectionRule) error {
	keyIdx := 0
	if rule.KeyColumn != "" {
		idx, ok := f.ColumnIndex(rule.KeyColumn)
		if !ok {
			return opErr("corrections", "rule %q: key column %q not found", rule.Name, rule.KeyColumn)
		}
		keyIdx = idx
	}
	setIdx, ok := f.ColumnIndex(rule.SetColumn)
	if !ok {
		return opErr("corrections", "rule %q: target column %q not found", rule.Name, rule.SetColumn)
	}

	for _, row := range f.Rows {
		if s, isStr := row[keyIdx].(string); isStr && s == rule.MatchValue {
			row[setIdx] = rule.Value
		}
	}
	return nil
}
