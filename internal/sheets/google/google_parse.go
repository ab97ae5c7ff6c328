package google

import (
	"fmt"
	"strconv"
	"strings"
)

// parseValues converts a values matrix (as returned by Sheets API) into the
// string matrix used by core.NewTable. Numeric cells keep full precision
// without exponent notation so commissions parse exactly.
func parseValues(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		out = append(out, toStrings(row))
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// rangeFor quotes a tab name for A1 notation when it contains spaces or
// punctuation ("'Clientes 2025'").
func rangeFor(sheet string) string {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return sheet
	}
	if strings.ContainsAny(sheet, " -!'/") {
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet
}
