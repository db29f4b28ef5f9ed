package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_Equal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header1  Header
		header2  Header
		expected bool
	}{
		{name: "Equal headers", header1: NewHeader([]string{"a", "b"}), header2: NewHeader([]string{"a", "b"}), expected: true},
		{name: "Different order", header1: NewHeader([]string{"a", "b"}), header2: NewHeader([]string{"b", "a"}), expected: false},
		{name: "Different length", header1: NewHeader([]string{"a"}), header2: NewHeader([]string{"a", "b"}), expected: false},
		{name: "Both empty", header1: NewHeader(nil), header2: NewHeader([]string{}), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.header1.Equal(tt.header2); got != tt.expected {
				t.Errorf("Header.Equal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHeader_Validate(t *testing.T) {
	t.Parallel()

	t.Run("distinct names", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, NewHeader([]string{"name", "Name", "age"}).Validate())
	})

	t.Run("duplicate after trimming", func(t *testing.T) {
		t.Parallel()
		err := NewHeader([]string{"name", " name "}).Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateColumnName))
		assert.Contains(t, err.Error(), "columns 1 and 2")
	})
}

func TestHeader_Index(t *testing.T) {
	t.Parallel()

	h := NewHeader([]string{"a", "b"})
	assert.Equal(t, 1, h.Index("b"))
	assert.Equal(t, -1, h.Index("c"))
}

func TestRecord_Fit(t *testing.T) {
	t.Parallel()

	r := NewRecord([]string{"x", "y"})
	assert.Equal(t, Record{"x", "y", ""}, r.Fit(3))
	assert.Equal(t, Record{"x"}, r.Fit(1))
	assert.Equal(t, Record{"x", "y"}, r, "Fit must not modify the receiver")
}

func TestColumnType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TEXT", ColumnTypeText.String())
	assert.Equal(t, "INTEGER", ColumnTypeInteger.String())
	assert.Equal(t, "REAL", ColumnTypeReal.String())
	assert.Equal(t, "TEXT", ColumnTypeDatetime.String())
}
