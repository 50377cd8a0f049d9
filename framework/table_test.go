package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTable() *Table {
	return &Table{
		Columns: []string{"Rank", "Title", "Worldwide gross"},
		Rows: [][]string{
			{"1", "Avatar", "$2,923,706,026"},
			{"2", "Avengers: Endgame", "$2,797,501,328"},
			{"3", "Titanic", "not released"},
		},
	}
}

func TestTableDimensions(t *testing.T) {
	table := sampleTable()
	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, 3, table.NumCols())
	assert.Equal(t, 9, table.Size())
}

func TestColumnLookup(t *testing.T) {
	table := sampleTable()

	idx, ok := table.ColumnIndex("Title")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = table.ColumnIndex("Budget")
	assert.False(t, ok)

	values, err := table.Column("Rank")
	assert.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, values)

	_, err = table.Column("Budget")
	assert.Error(t, err)
}

func TestFloatColumnSkipsUnparseableCells(t *testing.T) {
	table := sampleTable()
	values, ok, err := table.FloatColumn("Worldwide gross")
	assert.NoError(t, err)
	assert.True(t, ok[0])
	assert.True(t, ok[1])
	assert.False(t, ok[2])
	assert.InDelta(t, 2923706026, values[0], 0.5)
}

func TestParseNumericCleaning(t *testing.T) {
	cases := map[string]float64{
		"$2,923,706,026": 2923706026,
		"€1.5":           1.5,
		"42%":            42,
		" 7 ":            7,
	}
	for in, want := range cases {
		got, err := ParseNumeric(in)
		assert.NoError(t, err, in)
		assert.InDelta(t, want, got, 0.0001, in)
	}

	_, err := ParseNumeric("")
	assert.Error(t, err)
	_, err = ParseNumeric("n/a")
	assert.Error(t, err)
}
