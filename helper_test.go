package sheetql

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newTestStore opens a private in-memory SQLite store.
func newTestStore(t *testing.T, configure ...func(*Builder) *Builder) *Store {
	t.Helper()

	b := NewBuilder()
	for _, c := range configure {
		b = c(b)
	}
	built, err := b.Build(context.Background())
	require.NoError(t, err)

	store, err := built.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func withRawQuery(b *Builder) *Builder {
	return b.EnableRawQuery()
}

// xlsxBytes builds a workbook whose first sheet holds rows.
// Extra sheets, if given, are appended after it.
func xlsxBytes(t *testing.T, rows [][]string, extraSheets ...[][]string) []byte {
	t.Helper()

	book := excelize.NewFile()
	defer func() {
		_ = book.Close()
	}()

	fill := func(sheet string, rows [][]string) {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			values := make([]any, len(row))
			for j, v := range row {
				values[j] = v
			}
			require.NoError(t, book.SetSheetRow(sheet, cell, &values))
		}
	}

	fill("Sheet1", rows)
	for i, extra := range extraSheets {
		name := "Extra" + strings.Repeat("X", i)
		_, err := book.NewSheet(name)
		require.NoError(t, err)
		fill(name, extra)
	}

	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))
	return buf.Bytes()
}

// uploadAndPersist parses an XLSX fixture into the store's table.
func uploadAndPersist(t *testing.T, store *Store, rows [][]string) {
	t.Helper()

	table, err := ParseReader(bytes.NewReader(xlsxBytes(t, rows)), "fixture.xlsx")
	require.NoError(t, err)
	_, err = store.Persist(context.Background(), table)
	require.NoError(t, err)
}
