package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// rowsToText renders a values matrix as record lines: cells joined by " | ",
// one row per line. Rows that do not form a record (headers, blanks) are
// left for the extractor to skip.
func rowsToText(values [][]interface{}) string {
	var b strings.Builder
	for _, row := range values {
		cells := toStrings(row)
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if len(cells) == 0 {
			continue
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch t := v.(type) {
		case string:
			out[i] = strings.TrimSpace(t)
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(t))
		}
	}
	return out
}
