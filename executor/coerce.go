package executor

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbfixture "github.com/shibukawa/dbfixture"
)

// Base64Prefix marks a string cell as base64-encoded binary data.
const Base64Prefix = "[BASE64]"

// bindValue prepares a cell for parameter binding. NULL binds as nil. With a
// declared column type the value is coerced first; a value that cannot be
// coerced binds untouched and the database gets the final word.
func bindValue(info *dbfixture.ColumnInfo, cell dbfixture.CellValue) any {
	if cell.IsNull() {
		return nil
	}

	raw := cell.Value()

	if info == nil || info.DataType == "" {
		return raw
	}

	return coerceValue(info.DataType, raw)
}

func coerceValue(dataType string, raw any) any {
	t := strings.ToLower(strings.TrimSpace(dataType))

	switch {
	case isBooleanType(t):
		if v, ok := coerceBool(raw); ok {
			return v
		}
	// timestamp before date and time: "datetime" contains both words.
	case isTimestampType(t):
		if v, ok := coerceTimestamp(raw); ok {
			return v
		}
	case isDateType(t):
		if v, ok := coerceDate(raw); ok {
			return v
		}
	case isTimeType(t):
		if v, ok := coerceTime(raw); ok {
			return v
		}
	case isBinaryType(t):
		if v, ok := coerceBinary(raw); ok {
			return v
		}
	case isDecimalType(t):
		if v, ok := coerceDecimal(raw); ok {
			return v
		}
	case isUUIDType(t):
		if v, ok := coerceUUID(raw); ok {
			return v
		}
	case isIntegerType(t):
		if v, ok := coerceInt(raw); ok {
			return v
		}
	case isFloatType(t):
		if v, ok := coerceFloat(raw); ok {
			return v
		}
	}

	return raw
}

func isBooleanType(t string) bool {
	return strings.Contains(t, "bool")
}

func isTimestampType(t string) bool {
	return strings.Contains(t, "timestamp") || strings.Contains(t, "datetime")
}

func isDateType(t string) bool {
	return t == "date"
}

func isTimeType(t string) bool {
	return t == "time" || t == "timetz" ||
		strings.HasPrefix(t, "time(") || strings.HasPrefix(t, "time ")
}

func isBinaryType(t string) bool {
	return t == "bytea" || strings.Contains(t, "blob") || strings.Contains(t, "binary")
}

func isDecimalType(t string) bool {
	return strings.Contains(t, "decimal") || strings.Contains(t, "numeric")
}

func isUUIDType(t string) bool {
	return strings.Contains(t, "uuid") || t == "uniqueidentifier"
}

func isIntegerType(t string) bool {
	if strings.Contains(t, "interval") {
		return false
	}

	return strings.Contains(t, "int") || strings.Contains(t, "serial")
}

func isFloatType(t string) bool {
	return strings.Contains(t, "float") || strings.Contains(t, "double") || strings.Contains(t, "real")
}

func coerceBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y":
			return true, true
		case "false", "0", "no", "n":
			return false, true
		}

		return false, false
	}

	if f, ok := asFloat(raw); ok {
		return f != 0, true
	}

	return false, false
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

func coerceTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}

	return time.Time{}, false
}

// coerceDate accepts yyyy-MM-dd; a trailing time part is ignored.
func coerceDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), true
	case string:
		s := strings.TrimSpace(v)
		if len(s) > 10 {
			s = s[:10]
		}

		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d, true
		}
	}

	return time.Time{}, false
}

// coerceTime normalizes to the string HH:mm:ss or HH:mm:ss.fff; a leading
// date part is stripped. Drivers take time-of-day values as strings because
// a time.Time always carries a date.
func coerceTime(raw any) (string, bool) {
	var s string

	switch v := raw.(type) {
	case time.Time:
		return v.Format("15:04:05"), true
	case string:
		s = strings.TrimSpace(v)
	default:
		return "", false
	}

	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		s = s[i+1:]
	} else if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[i+1:]
	}

	ts, err := time.Parse("15:04:05.999999999", s)
	if err != nil {
		return "", false
	}

	if ts.Nanosecond() > 0 {
		return ts.Format("15:04:05.000"), true
	}

	return ts.Format("15:04:05"), true
}

func coerceBinary(raw any) ([]byte, bool) {
	switch v := raw.(type) {
	case []byte:
		return v, true
	case string:
		if encoded, ok := strings.CutPrefix(v, Base64Prefix); ok {
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return nil, false
			}

			return decoded, true
		}

		return []byte(v), true
	}

	return nil, false
}

func coerceDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d, true
		}
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	}

	return decimal.Decimal{}, false
}

func coerceUUID(raw any) (uuid.UUID, bool) {
	switch v := raw.(type) {
	case string:
		if id, err := uuid.Parse(strings.TrimSpace(v)); err == nil {
			return id, true
		}
	case []byte:
		if id, err := uuid.FromBytes(v); err == nil {
			return id, true
		}
	}

	return uuid.UUID{}, false
}

func coerceInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	case float64:
		if float64(int64(v)) == v {
			return int64(v), true
		}
	case float32:
		if float32(int64(v)) == v {
			return int64(v), true
		}
	}

	return 0, false
}

func coerceFloat(raw any) (float64, bool) {
	if s, ok := raw.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}

		return 0, false
	}

	return asFloat(raw)
}

// asFloat widens any non-string numeric type to float64.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
