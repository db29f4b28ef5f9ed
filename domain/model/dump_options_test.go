package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormat_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format OutputFormat
		want   string
		ext    string
	}{
		{name: "CSV format", format: OutputFormatCSV, want: "csv", ext: ".csv"},
		{name: "TSV format", format: OutputFormatTSV, want: "tsv", ext: ".tsv"},
		{name: "LTSV format", format: OutputFormatLTSV, want: "ltsv", ext: ".ltsv"},
		{name: "XLSX format", format: OutputFormatXLSX, want: "xlsx", ext: ".xlsx"},
		{name: "Unknown format defaults to csv", format: OutputFormat(999), want: "csv", ext: ".csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.format.String(); got != tt.want {
				t.Errorf("OutputFormat.String() = %v, want %v", got, tt.want)
			}
			if got := tt.format.Extension(); got != tt.ext {
				t.Errorf("OutputFormat.Extension() = %v, want %v", got, tt.ext)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]OutputFormat{
		"":      OutputFormatCSV,
		"csv":   OutputFormatCSV,
		".TSV":  OutputFormatTSV,
		"ltsv":  OutputFormatLTSV,
		" xlsx": OutputFormatXLSX,
	} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutputFormat("parquet")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestParseCompressionType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]CompressionType{
		"":      CompressionNone,
		"none":  CompressionNone,
		"gzip":  CompressionGZ,
		".gz":   CompressionGZ,
		"bz2":   CompressionBZ2,
		"xz":    CompressionXZ,
		"zst":   CompressionZSTD,
		"ZSTD":  CompressionZSTD,
		"bzip2": CompressionBZ2,
	} {
		got, err := ParseCompressionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompressionType("lz4")
	assert.True(t, errors.Is(err, ErrUnknownCompression))
}

func TestDumpOptions(t *testing.T) {
	t.Parallel()

	opts := NewDumpOptions()
	assert.Equal(t, OutputFormatCSV, opts.Format)
	assert.Equal(t, CompressionNone, opts.Compression)
	assert.Equal(t, ".csv", opts.FileExtension())

	opts2 := opts.WithFormat(OutputFormatTSV).WithCompression(CompressionGZ)
	assert.Equal(t, ".tsv.gz", opts2.FileExtension())
	assert.Equal(t, "results.tsv.gz", opts2.FileName(""))
	assert.Equal(t, "sales.tsv.gz", opts2.FileName("sales"))
	assert.Equal(t, OutputFormatCSV, opts.Format, "With* must return a copy")
	assert.Equal(t, "text/tab-separated-values", opts2.Format.ContentType())
}
