package writer

import "strings"

// CSVExtension is the extension used for streams written by WriteRecord
const CSVExtension = "csv"

// FormatRecord serializes fields as one CSV row terminated by "\n".
//
// Only fields containing a double quote or a comma are quoted; inner quotes
// are doubled. Everything else, including embedded newlines and leading
// spaces, is written unchanged.
func FormatRecord(fields []string) string {
	var sb strings.Builder
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeField(&sb, field)
	}
	sb.WriteByte('\n')
	return sb.String()
}

func writeField(sb *strings.Builder, field string) {
	if !strings.ContainsAny(field, `",`) {
		sb.WriteString(field)
		return
	}
	sb.WriteByte('"')
	sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
	sb.WriteByte('"')
}
