package gridbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_Basic(t *testing.T) {
	doc := ParseCSV("Date,Amount\n2024-01-01,100\n2024-01-02,200")
	assert.Equal(t, []string{"Date", "Amount"}, doc.Headers)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, []string{"2024-01-01", "100"}, doc.Rows[0])
	assert.Equal(t, []string{"2024-01-02", "200"}, doc.Rows[1])
}

func TestParseCSV_BlankLinesDropped(t *testing.T) {
	doc := ParseCSV("a,b\n\n1,2\n\n\n3,4\n")
	assert.Equal(t, []string{"a", "b"}, doc.Headers)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, doc.Rows)
}

func TestParseCSV_QuotedFields(t *testing.T) {
	doc := ParseCSV("name,note\nalice,\"a,b\"\nbob,\"He said \"\"hi\"\"\"")
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, []string{"alice", "a,b"}, doc.Rows[0])
	assert.Equal(t, []string{"bob", `He said "hi"`}, doc.Rows[1])
}

func TestParseCSV_EmbeddedNewline(t *testing.T) {
	doc := ParseCSV("id,comment\n1,\"line one\nline two\"\n2,plain")
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, []string{"1", "line one\nline two"}, doc.Rows[0])
	assert.Equal(t, []string{"2", "plain"}, doc.Rows[1])
}

func TestParseCSV_CRLF(t *testing.T) {
	doc := ParseCSV("a,b\r\n1,2\r\n")
	assert.Equal(t, []string{"a", "b"}, doc.Headers)
	assert.Equal(t, [][]string{{"1", "2"}}, doc.Rows)
}

func TestParseCSV_Empty(t *testing.T) {
	doc := ParseCSV("")
	assert.Empty(t, doc.Headers)
	assert.Empty(t, doc.Rows)
}

func TestParseCSV_QuotedEmptyFieldKept(t *testing.T) {
	doc := ParseCSV("a\n\"\"\nx")
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, []string{""}, doc.Rows[0])
	assert.Equal(t, []string{"x"}, doc.Rows[1])
}

func TestWriteCSV_Quoting(t *testing.T) {
	out := WriteCSV([]string{"h1", "h2"}, [][]string{
		{"a,b", `He said "hi"`},
		{"plain", "multi\nline"},
	})
	assert.Equal(t, "h1,h2\n\"a,b\",\"He said \"\"hi\"\"\"\nplain,\"multi\nline\"", out)
}

func TestCSVRoundTrip(t *testing.T) {
	headers := []string{"name", "note", "amount"}
	rows := [][]string{
		{"alice", "a,b", "100"},
		{"bob", `He said "hi"`, "-3.5"},
		{"carol", "first\nsecond", ""},
	}
	doc := ParseCSV(WriteCSV(headers, rows))
	assert.Equal(t, headers, doc.Headers)
	assert.Equal(t, rows, doc.Rows)
}
