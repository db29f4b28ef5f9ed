package sheetql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilder(t *testing.T) {
	t.Parallel()

	builder := NewBuilder()
	require.NotNil(t, builder, "NewBuilder() should not return nil")
	assert.Equal(t, DriverSQLite, builder.driver)
	assert.Equal(t, DefaultTableName, builder.table)
	assert.False(t, builder.allowRaw, "raw SQL must be opt-in")
	assert.False(t, builder.inferTypes, "columns are TEXT unless inference is enabled")
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *Builder
		wantErr bool
	}{
		{name: "default in-memory", builder: NewBuilder()},
		{name: "sqlite file in existing directory", builder: NewBuilder().WithDSN(filepath.Join(t.TempDir(), "data.db"))},
		{name: "sqlite file in missing directory", builder: NewBuilder().WithDSN(filepath.Join(t.TempDir(), "missing", "data.db")), wantErr: true},
		{name: "libsql url", builder: NewBuilder().WithDriver(DriverLibSQL).WithDSN("libsql://db.example.turso.io?authToken=x")},
		{name: "libsql without url", builder: NewBuilder().WithDriver(DriverLibSQL), wantErr: true},
		{name: "libsql local file", builder: NewBuilder().WithDriver(DriverLibSQL).WithDSN("file:data.db"), wantErr: true},
		{name: "mysql dsn", builder: NewBuilder().WithDriver(DriverMySQL).WithDSN("user:pass@tcp(127.0.0.1:3306)/sheets")},
		{name: "mysql dsn without database", builder: NewBuilder().WithDriver(DriverMySQL).WithDSN("user:pass@tcp(127.0.0.1:3306)/"), wantErr: true},
		{name: "mysql garbage", builder: NewBuilder().WithDriver(DriverMySQL).WithDSN("not a dsn"), wantErr: true},
		{name: "unknown driver", builder: NewBuilder().WithDriver(Driver("oracle")), wantErr: true},
		{name: "empty table name", builder: NewBuilder().WithTableName(""), wantErr: true},
		{name: "negative max rows", builder: NewBuilder().WithMaxRows(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			built, err := tt.builder.Build(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, built)
				return
			}
			require.NoError(t, err)
			assert.True(t, built.built)
		})
	}
}

func TestBuilder_Open(t *testing.T) {
	t.Parallel()

	t.Run("requires Build", func(t *testing.T) {
		t.Parallel()

		_, err := NewBuilder().Open(context.Background())
		assert.Error(t, err)
	})

	t.Run("changing the configuration requires Build again", func(t *testing.T) {
		t.Parallel()

		builder, err := NewBuilder().Build(context.Background())
		require.NoError(t, err)
		_, err = builder.WithTableName("other").Open(context.Background())
		assert.Error(t, err)
	})

	t.Run("each in-memory store is private", func(t *testing.T) {
		t.Parallel()

		first := newTestStore(t)
		second := newTestStore(t)
		uploadAndPersist(t, first, peopleRows)

		exists, err := second.TableExists(context.Background())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("file store is shared between opens", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		builder, err := NewBuilder().
			WithDSN(filepath.Join(t.TempDir(), "shared.db")).
			WithTableName("sheet").
			Build(ctx)
		require.NoError(t, err)

		writer, err := builder.Open(ctx)
		require.NoError(t, err)
		defer writer.Close()
		reader, err := builder.Open(ctx)
		require.NoError(t, err)
		defer reader.Close()

		uploadAndPersist(t, writer, peopleRows)
		n, err := reader.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, "sheet", reader.TableName())
	})

	t.Run("options reach the store", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, withRawQuery)
		assert.True(t, store.RawQueryEnabled())
		assert.Equal(t, DriverSQLite, store.Dialect().Driver())
		assert.NotNil(t, store.DB())
	})
}

func TestBuilder_dataSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *Builder
		want    string
	}{
		{name: "memory", builder: NewBuilder(), want: ":memory:"},
		{name: "file", builder: NewBuilder().WithDSN("data.db"), want: "data.db?_pragma=busy_timeout(5000)"},
		{name: "file with query", builder: NewBuilder().WithDSN("file:data.db?mode=rwc"), want: "file:data.db?mode=rwc&_pragma=busy_timeout(5000)"},
		{name: "explicit timeout", builder: NewBuilder().WithDSN("data.db?_pragma=busy_timeout(100)"), want: "data.db?_pragma=busy_timeout(100)"},
		{name: "mysql untouched", builder: NewBuilder().WithDriver(DriverMySQL).WithDSN("u@/db"), want: "u@/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.builder.dataSource())
		})
	}
}
