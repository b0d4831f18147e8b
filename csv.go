package gridbook

import "strings"

// Document is the result of parsing CSV text: the first record becomes
// the header row, every following record a data row. Records may have
// ragged widths; the workbook constructor squares them off.
type Document struct {
	Headers []string
	Rows    [][]string
}

// ParseCSV tokenizes CSV text into a Document. The tokenizer is a small
// state machine rather than a line splitter, so quoted fields may contain
// commas, doubled quotes (decoded to a literal quote), and embedded
// newlines. Blank records between rows are dropped. Parsing is total:
// malformed quoting degrades to literal characters instead of failing.
func ParseCSV(text string) Document {
	records := tokenizeCSV(text)
	if len(records) == 0 {
		return Document{}
	}
	return Document{Headers: records[0], Rows: records[1:]}
}

func tokenizeCSV(text string) [][]string {
	var (
		records   [][]string
		record    []string
		field     strings.Builder
		quoted    bool // inside a quoted field
		loaded    bool // current field has content or was explicitly quoted
		recLoaded bool // any field in the current record was loaded
	)

	endField := func() {
		record = append(record, field.String())
		field.Reset()
		recLoaded = recLoaded || loaded
		loaded = false
	}
	endRecord := func() {
		endField()
		// A lone unloaded empty field is a blank line, not a record.
		if len(record) == 1 && record[0] == "" && !recLoaded {
			record = nil
			return
		}
		records = append(records, record)
		record = nil
		recLoaded = false
	}

	runes := []rune(strings.ReplaceAll(text, "\r\n", "\n"))
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case quoted:
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"') // doubled quote → literal quote
					i++
				} else {
					quoted = false
				}
			} else {
				field.WriteRune(ch)
			}
		case ch == '"' && field.Len() == 0 && !loaded:
			quoted = true
			loaded = true
		case ch == ',':
			endField()
		case ch == '\n':
			endRecord()
		default:
			field.WriteRune(ch)
			loaded = true
		}
	}
	if field.Len() > 0 || loaded || len(record) > 0 {
		endRecord()
	}
	return records
}

// WriteCSV serializes a header row plus data rows to CSV text. Fields
// containing a comma, quote, or newline are wrapped in quotes with
// internal quotes doubled. Re-parsing the output yields the same field
// values, though quoting is normalized rather than preserved.
func WriteCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	all := make([][]string, 0, len(rows)+1)
	if len(headers) > 0 {
		all = append(all, headers)
	}
	all = append(all, rows...)

	for i, record := range all {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, f := range record {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteField(f))
		}
	}
	return b.String()
}

func quoteField(f string) string {
	if !strings.ContainsAny(f, ",\"\n\r") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
