package sheetql

import (
	"database/sql/driver"
	"testing"

	"github.com/nao1215/sheetql/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDriver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{in: "", want: DriverSQLite},
		{in: "sqlite", want: DriverSQLite},
		{in: " SQLite3 ", want: DriverSQLite},
		{in: "libsql", want: DriverLibSQL},
		{in: "turso", want: DriverLibSQL},
		{in: "MySQL", want: DriverMySQL},
		{in: "postgres", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDriver(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialect_QuoteIdent(t *testing.T) {
	t.Parallel()

	sqlite, err := dialectFor(DriverSQLite)
	require.NoError(t, err)
	mysql, err := dialectFor(DriverMySQL)
	require.NoError(t, err)

	tests := []struct {
		name       string
		ident      string
		wantSQLite string
		wantMySQL  string
	}{
		{name: "plain", ident: "city", wantSQLite: `"city"`, wantMySQL: "`city`"},
		{name: "space", ident: "first name", wantSQLite: `"first name"`, wantMySQL: "`first name`"},
		{name: "double quote", ident: `a"b`, wantSQLite: `"a""b"`, wantMySQL: "`a\"b`"},
		{name: "backtick", ident: "a`b", wantSQLite: "\"a`b\"", wantMySQL: "`a``b`"},
		{name: "injection", ident: `x"); DROP TABLE t; --`, wantSQLite: `"x""); DROP TABLE t; --"`, wantMySQL: "`x\"); DROP TABLE t; --`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantSQLite, sqlite.QuoteIdent(tt.ident))
			assert.Equal(t, tt.wantMySQL, mysql.QuoteIdent(tt.ident))
		})
	}
}

func TestDialect_Types(t *testing.T) {
	t.Parallel()

	sqlite, err := dialectFor(DriverLibSQL)
	require.NoError(t, err)
	assert.Equal(t, DriverLibSQL, sqlite.Driver())
	assert.Equal(t, "TEXT", sqlite.ColumnType(model.ColumnTypeText))
	assert.Equal(t, "TEXT", sqlite.ColumnType(model.ColumnTypeDatetime))
	assert.Equal(t, "INTEGER", sqlite.ColumnType(model.ColumnTypeInteger))
	assert.Equal(t, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`, sqlite.IdentityColumn("id"))
	assert.Equal(t, `CAST("c" AS TEXT)`, sqlite.TextExpr(`"c"`))

	mysql, err := dialectFor(DriverMySQL)
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, mysql.Driver())
	assert.Equal(t, "BIGINT", mysql.ColumnType(model.ColumnTypeInteger))
	assert.Equal(t, "DOUBLE", mysql.ColumnType(model.ColumnTypeReal))
	assert.Equal(t, "TEXT", mysql.ColumnType(model.ColumnTypeText))
	assert.Equal(t, "`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY", mysql.IdentityColumn("id"))
	assert.Equal(t, "CAST(`c` AS CHAR)", mysql.TextExpr("`c`"))

	_, err = dialectFor(Driver("oracle"))
	assert.Error(t, err)
}

func TestDialect_LowerExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver Driver
		want   string
	}{
		{driver: DriverSQLite, want: `unicode_lower("c")`},
		{driver: DriverLibSQL, want: `LOWER("c")`},
		{driver: DriverMySQL, want: `LOWER("c")`},
	}
	for _, tt := range tests {
		d, err := dialectFor(tt.driver)
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.LowerExpr(`"c"`), string(tt.driver))
	}
}

func TestFoldText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   driver.Value
		want driver.Value
	}{
		{in: "ÉCOLE Ünïcode", want: "école ünïcode"},
		{in: []byte("ÄB"), want: "äb"},
		{in: int64(42), want: "42"},
		{in: nil, want: nil},
	}
	for _, tt := range tests {
		got, err := foldText(nil, []driver.Value{tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
