package cliout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazuma-desu/gset/pkg/value"
)

func TestFormatPayload(t *testing.T) {
	assert.Equal(t, "7", FormatPayload(value.New(7)))
	assert.Equal(t, "dark", FormatPayload(value.New("dark")))
	assert.Equal(t, "true", FormatPayload(value.New(true)))
	assert.Equal(t, "", FormatPayload(value.Value{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel...", Truncate("hello world", 6))
	assert.Equal(t, "a\\nb", Truncate("a\nb", 10))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("table")
	assert.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestDiffValuesClassifiesChanges(t *testing.T) {
	have := map[string]value.Value{
		"/a": value.New("1"),
		"/b": value.New("same"),
		"/c": value.New("old"),
	}
	want := map[string]value.Value{
		"/b": value.New("same"),
		"/c": value.New("new"),
		"/d": value.New("added"),
	}

	result := DiffValues(have, want)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Modified)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Unchanged)
}

func TestPrintEntriesRejectsUnknownFormat(t *testing.T) {
	err := PrintEntries(nil, Format("xml"))
	assert.Error(t, err)
}
