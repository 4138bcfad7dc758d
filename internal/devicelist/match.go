package devicelist

import "strings"

// Rule names how a marketing name parsed from a photo is matched against
// catalog rows.
type Rule string

const (
	// RuleExact matches rows whose branding equals Match.Branding and whose
	// marketing name equals the name.
	RuleExact Rule = "exact"
	// RuleSplit takes the first word of the name as the branding and the
	// rest as the marketing name, e.g. "Samsung Galaxy S23".
	RuleSplit Rule = "split"
	// RulePrefixed handles vendors that only sometimes prefix the name with
	// their brand. Unprefixed names match case-insensitively against
	// Match.Branding. Prefixed names are split like RuleSplit, cut at the
	// first "-", and matched case-insensitively as a substring.
	RulePrefixed Rule = "prefixed"
)

// Match selects catalog rows for a vendor.
type Match struct {
	Rule     Rule   `yaml:"rule"`
	Branding string `yaml:"branding"`
}

func (m Match) predicate(name string) func(Device) bool {
	switch m.Rule {
	case RuleExact:
		return func(d Device) bool {
			return d.Branding == m.Branding && d.MarketingName == name
		}

	case RuleSplit:
		brand, rest, ok := strings.Cut(name, " ")
		if !ok {
			return nil
		}
		return func(d Device) bool {
			return d.Branding == brand && d.MarketingName == rest
		}

	case RulePrefixed:
		if !strings.Contains(name, strings.ToUpper(m.Branding)) {
			return func(d Device) bool {
				return strings.EqualFold(d.Branding, m.Branding) && strings.EqualFold(d.MarketingName, name)
			}
		}
		brand, rest, ok := strings.Cut(name, " ")
		if !ok {
			return nil
		}
		series, _, _ := strings.Cut(rest, "-")
		series = strings.ToLower(strings.TrimSpace(series))
		return func(d Device) bool {
			return strings.EqualFold(d.Branding, brand) &&
				strings.Contains(strings.ToLower(d.MarketingName), series)
		}

	default:
		return nil
	}
}
