package sheetql

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nao1215/sheetql/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *ResultSet {
	return &ResultSet{
		Columns: []string{"id", "name", "note"},
		Rows: []model.Record{
			{"1", "Ann", `said "hi", left`},
			{"2", "Bob", ""},
			{"3", "", "multi\nline"},
		},
	}
}

// blankResults hold rows that render as nothing in a naive export.
func blankResults() map[string]*ResultSet {
	return map[string]*ResultSet{
		"single column": {
			Columns: []string{"note"},
			Rows:    []model.Record{{"x"}, {""}, {"y"}, {""}},
		},
		"all empty rows": {
			Columns: []string{"a", "b"},
			Rows:    []model.Record{{"", ""}, {"1", ""}, {"", ""}},
		},
		"no rows": {
			Columns: []string{"a", "b"},
			Rows:    []model.Record{},
		},
	}
}

func TestExport_RoundTrip(t *testing.T) {
	t.Parallel()

	formats := []model.OutputFormat{model.OutputFormatCSV, model.OutputFormatTSV, model.OutputFormatXLSX}
	compressions := []model.CompressionType{model.CompressionNone, model.CompressionGZ, model.CompressionXZ, model.CompressionZSTD}

	results := blankResults()
	results["mixed"] = sampleResult()

	for name, rs := range results {
		for _, format := range formats {
			for _, compression := range compressions {
				opts := model.NewDumpOptions().WithFormat(format).WithCompression(compression)
				t.Run(name+"/"+opts.FileName("export"), func(t *testing.T) {
					t.Parallel()

					var buf bytes.Buffer
					require.NoError(t, Export(&buf, rs, opts))

					got, err := ReadExport(&buf, opts)
					require.NoError(t, err)
					assert.Equal(t, rs.Columns, got.Columns)
					assert.Equal(t, rs.Rows, got.Rows)
				})
			}
		}
	}
}

func TestExport_LoneEmptyFieldIsQuoted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, blankResults()["single column"], model.NewDumpOptions()))
	assert.Equal(t, "note\nx\n\"\"\ny\n\"\"\n", buf.String())
}

func TestExport_LTSV(t *testing.T) {
	t.Parallel()

	rs := &ResultSet{
		Columns: []string{"host", "status"},
		Rows:    []model.Record{{"a", "200"}, {"b", ""}},
	}
	opts := model.NewDumpOptions().WithFormat(model.OutputFormatLTSV)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, rs, opts))
	assert.Equal(t, "host:a\tstatus:200\nhost:b\tstatus:\n", buf.String())

	got, err := ReadExport(strings.NewReader(buf.String()), opts)
	require.NoError(t, err)
	assert.Equal(t, rs.Columns, got.Columns)
	assert.Equal(t, rs.Rows, got.Rows)

	t.Run("blank rows", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"single column", "all empty rows"} {
			rs := blankResults()[name]
			var buf bytes.Buffer
			require.NoError(t, Export(&buf, rs, opts), name)

			got, err := ReadExport(&buf, opts)
			require.NoError(t, err, name)
			assert.Equal(t, rs.Columns, got.Columns, name)
			assert.Equal(t, rs.Rows, got.Rows, name)
		}
	})

	t.Run("lossy results are refused", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			rs   *ResultSet
		}{
			{name: "no rows", rs: blankResults()["no rows"]},
			{name: "colon in label", rs: &ResultSet{Columns: []string{"a:b"}, Rows: []model.Record{{"1"}}}},
			{name: "duplicate label", rs: &ResultSet{Columns: []string{"a", "a"}, Rows: []model.Record{{"1", "2"}}}},
			{name: "tab in value", rs: &ResultSet{Columns: []string{"a"}, Rows: []model.Record{{"x\ty"}}}},
			{name: "line break in value", rs: &ResultSet{Columns: []string{"a"}, Rows: []model.Record{{"x\ny"}}}},
		}
		for _, tt := range tests {
			err := Export(io.Discard, tt.rs, opts)
			assert.True(t, errors.Is(err, ErrQuery), tt.name)
			assert.True(t, errors.Is(err, ErrLossyExport), tt.name)
		}
	})
}

func TestExport_CSVText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleResult(), model.NewDumpOptions()))
	assert.Equal(t,
		"id,name,note\n1,Ann,\"said \"\"hi\"\", left\"\n2,Bob,\n3,,\"multi\nline\"\n",
		buf.String())
}

func TestExport_Errors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := Export(&buf, nil, model.NewDumpOptions())
	assert.True(t, errors.Is(err, ErrQuery))
	assert.True(t, errors.Is(err, ErrNoResult))

	err = Export(&buf, EmptyResult(), model.NewDumpOptions())
	assert.True(t, errors.Is(err, ErrEmptyData))

	err = Export(&buf, sampleResult(), model.NewDumpOptions().WithCompression(model.CompressionBZ2))
	assert.True(t, errors.Is(err, ErrQuery))

	_, err = ReadExport(strings.NewReader("garbage"), model.NewDumpOptions().WithCompression(model.CompressionGZ))
	assert.True(t, errors.Is(err, ErrIngestion))
}

func TestExport_RoundTripProperty(t *testing.T) {
	t.Parallel()

	runes := []rune("ab ,\t\n\"'é")
	cell := gen.SliceOf(gen.IntRange(0, len(runes)-1)).Map(func(idx []int) string {
		var sb strings.Builder
		for _, i := range idx {
			sb.WriteRune(runes[i])
		}
		return sb.String()
	})
	rowsOf := func(width int) gopter.Gen {
		return gen.SliceOf(gen.SliceOfN(width, cell).Map(func(cells []string) model.Record {
			return model.Record(cells)
		}))
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	parameters.MaxSize = 8
	properties := gopter.NewProperties(parameters)

	formats := []model.OutputFormat{model.OutputFormatCSV, model.OutputFormatTSV, model.OutputFormatXLSX}
	for _, format := range formats {
		opts := model.NewDumpOptions().WithFormat(format)
		for _, columns := range [][]string{{"only"}, {"id", "a", "b"}} {
			properties.Property(fmt.Sprintf("%s export of %d columns reads back unchanged", format, len(columns)), prop.ForAll(
				func(rows []model.Record) bool {
					rs := &ResultSet{Columns: columns, Rows: rows}
					var buf bytes.Buffer
					if err := Export(&buf, rs, opts); err != nil {
						return false
					}
					got, err := ReadExport(&buf, opts)
					if err != nil || len(got.Rows) != len(rows) {
						return false
					}
					for i := range rows {
						if !got.Rows[i].Equal(rows[i]) {
							return false
						}
					}
					return model.Header(got.Columns).Equal(model.Header(rs.Columns))
				},
				rowsOf(len(columns)),
			))
		}
	}

	properties.TestingRun(t)
}
