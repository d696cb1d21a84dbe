package compare

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	dbfixture "github.com/shibukawa/dbfixture"
)

// StrategyKind selects how a column's cells are compared.
type StrategyKind string

const (
	// StrategyStrict is full value equality; both-NULL cells are equal, a
	// NULL against a present value is not. The zero strategy behaves as
	// STRICT.
	StrategyStrict StrategyKind = "STRICT"
	// StrategyIgnore accepts any actual value.
	StrategyIgnore StrategyKind = "IGNORE"
	// StrategyNumeric compares both sides as arbitrary-precision decimals,
	// so "1.0" matches 1. Values that do not convert fall back to STRICT.
	StrategyNumeric StrategyKind = "NUMERIC"
	// StrategyCaseInsensitive compares string forms ignoring case.
	StrategyCaseInsensitive StrategyKind = "CASE_INSENSITIVE"
	// StrategyTimestampFlexible strips the sub-second fraction and any
	// timezone suffix from both string forms before comparing.
	StrategyTimestampFlexible StrategyKind = "TIMESTAMP_FLEXIBLE"
	// StrategyNotNull passes whenever the actual value is non-NULL.
	StrategyNotNull StrategyKind = "NOT_NULL"
	// StrategyRegex requires the actual's string form to fully match the
	// pattern; a NULL actual fails.
	StrategyRegex StrategyKind = "REGEX"

	// strategyNull is the [null] matcher cell: the actual value must be NULL.
	strategyNull StrategyKind = "NULL"
)

// ColumnStrategy pairs a strategy kind with its pattern for REGEX.
type ColumnStrategy struct {
	Kind    StrategyKind
	Pattern string
}

// ParseStrategy parses the textual strategy forms used in configuration: a
// kind name such as "NUMERIC", or "REGEX:<pattern>". The pattern is trimmed.
func ParseStrategy(raw string) (ColumnStrategy, error) {
	kindPart, pattern, hasPattern := strings.Cut(raw, ":")
	kind := StrategyKind(strings.ToUpper(strings.TrimSpace(kindPart)))

	if kind == StrategyRegex {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			return ColumnStrategy{}, fmt.Errorf("%w: REGEX requires \"REGEX:<pattern>\"", dbfixture.ErrRegexStrategyPattern)
		}

		if _, err := regexp.Compile(pattern); err != nil {
			return ColumnStrategy{}, fmt.Errorf("%w: %v", dbfixture.ErrRegexStrategyPattern, err)
		}

		return ColumnStrategy{Kind: StrategyRegex, Pattern: pattern}, nil
	}

	if hasPattern {
		return ColumnStrategy{}, fmt.Errorf("%w: %q", dbfixture.ErrUnknownStrategy, raw)
	}

	switch kind {
	case StrategyStrict, StrategyIgnore, StrategyNumeric, StrategyCaseInsensitive,
		StrategyTimestampFlexible, StrategyNotNull:
		return ColumnStrategy{Kind: kind}, nil
	default:
		return ColumnStrategy{}, fmt.Errorf("%w: %q", dbfixture.ErrUnknownStrategy, raw)
	}
}

// matcherOverride maps a matcher token in the expected cell onto the
// strategy it stands for. Dataset loaders already turn the [null] token into
// a NULL cell; the string form is still honored for hand-built tables, and
// [regexp, pattern] also arrives as a two-element list from YAML datasets.
func matcherOverride(expected dbfixture.CellValue) (ColumnStrategy, bool) {
	if expected.IsNull() {
		return ColumnStrategy{}, false
	}

	switch v := expected.Value().(type) {
	case string:
		s := strings.TrimSpace(v)
		switch {
		case strings.EqualFold(s, "[null]"):
			return ColumnStrategy{Kind: strategyNull}, true
		case strings.EqualFold(s, "[notnull]"):
			return ColumnStrategy{Kind: StrategyNotNull}, true
		case strings.EqualFold(s, "[any]"):
			return ColumnStrategy{Kind: StrategyIgnore}, true
		}

		if rest, ok := cutFold(s, "[regexp,"); ok && strings.HasSuffix(rest, "]") {
			pattern := strings.TrimSpace(strings.TrimSuffix(rest, "]"))
			return ColumnStrategy{Kind: StrategyRegex, Pattern: pattern}, true
		}
	case []any:
		if len(v) == 2 {
			if head, ok := v[0].(string); ok && strings.EqualFold(head, "regexp") {
				if pattern, ok := v[1].(string); ok {
					return ColumnStrategy{Kind: StrategyRegex, Pattern: pattern}, true
				}
			}
		}
	}

	return ColumnStrategy{}, false
}

// cutFold is strings.CutPrefix with a case-insensitive prefix match.
func cutFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}

	return s[len(prefix):], true
}

// cellsMatch applies one strategy to an expected/actual cell pair.
func cellsMatch(strategy ColumnStrategy, expected, actual dbfixture.CellValue) bool {
	switch strategy.Kind {
	case StrategyIgnore:
		return true
	case strategyNull:
		return actual.IsNull()
	case StrategyNotNull:
		return !actual.IsNull()
	case StrategyRegex:
		return regexMatch(strategy.Pattern, actual)
	case StrategyNumeric:
		return numericMatch(expected, actual)
	case StrategyCaseInsensitive:
		if expected.IsNull() || actual.IsNull() {
			return expected.IsNull() == actual.IsNull()
		}

		return strings.EqualFold(expected.String(), actual.String())
	case StrategyTimestampFlexible:
		if expected.IsNull() || actual.IsNull() {
			return expected.IsNull() == actual.IsNull()
		}

		return normalizeTimestamp(expected.String()) == normalizeTimestamp(actual.String())
	default:
		return expected.Equal(actual)
	}
}

func regexMatch(pattern string, actual dbfixture.CellValue) bool {
	if actual.IsNull() {
		return false
	}

	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false
	}

	return re.MatchString(actual.String())
}

func numericMatch(expected, actual dbfixture.CellValue) bool {
	if expected.IsNull() || actual.IsNull() {
		return expected.IsNull() == actual.IsNull()
	}

	e, eok := decimalFromValue(expected.Value())
	a, aok := decimalFromValue(actual.Value())

	if !eok || !aok {
		return expected.Equal(actual)
	}

	return e.Equal(a)
}

func decimalFromValue(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case []byte:
		d, err := decimal.NewFromString(strings.TrimSpace(string(v)))
		return d, err == nil
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint64:
		return decimal.NewFromUint64(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	default:
		return decimal.Decimal{}, false
	}
}

// timestampForm matches "yyyy-MM-dd HH:mm:ss" with an optional fraction and
// an optional timezone suffix, with either space or T as the separator.
var timestampForm = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2}:\d{2})(?:\.\d+)?(?: ?(?:Z|UTC|[+-]\d{2}(?::?\d{2})?))?$`)

// normalizeTimestamp reduces a timestamp string to "yyyy-MM-dd HH:mm:ss".
// Strings that do not look like timestamps pass through unchanged.
func normalizeTimestamp(s string) string {
	m := timestampForm.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return s
	}

	return m[1] + " " + m[2]
}
