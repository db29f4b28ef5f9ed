package sheetql

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/sheetql/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, configure ...func(*Builder) *Builder) *Session {
	t.Helper()
	return NewSession(newTestStore(t, configure...), WithSessionID("test"), WithPreviewRows(1))
}

func TestSession_UploadPersistSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t)
	assert.Equal(t, "test", s.ID())

	summary, err := s.Upload(ctx, "people.xlsx", bytes.NewReader(xlsxBytes(t, peopleRows)))
	require.NoError(t, err)
	assert.Equal(t, "people", summary.Name)
	assert.Equal(t, []string{"id", "name", "city", "note"}, summary.Columns)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, []model.Record{{"Ann", "Oslo", "likes tea"}}, summary.Preview)

	exists, err := s.Store().TableExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists, "upload alone writes nothing")

	n, err := s.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	columns, err := s.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.Columns, columns)

	rs, err := s.Search(ctx, model.FilterSetFromMap(columns, map[string]string{"note": "COFFEE"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, rs.Column("name"))
	assert.Same(t, rs, s.LastResult())
}

func TestSession_Preview(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	_, _, err := s.Preview(0)
	assert.True(t, errors.Is(err, ErrIngestion))
	assert.True(t, errors.Is(err, ErrNoUpload))

	_, err = s.Upload(context.Background(), "p.xlsx", bytes.NewReader(xlsxBytes(t, peopleRows)))
	require.NoError(t, err)

	header, rows, err := s.Preview(0)
	require.NoError(t, err)
	assert.Equal(t, model.Header{"name", "city", "note"}, header)
	assert.Len(t, rows, 1)

	_, rows, err = s.Preview(10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSession_FailedUploadKeepsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t)
	_, err := s.Upload(ctx, "good.xlsx", bytes.NewReader(xlsxBytes(t, peopleRows)))
	require.NoError(t, err)
	before := s.Current()

	_, err = s.Upload(ctx, "bad.xlsx", strings.NewReader("not a workbook"))
	assert.True(t, errors.Is(err, ErrIngestion))
	assert.Same(t, before, s.Current())

	_, err = s.Upload(ctx, "reserved.xlsx", bytes.NewReader(xlsxBytes(t, [][]string{{"ID", "x"}, {"1", "2"}})))
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, ErrReservedColumnName))
	assert.Same(t, before, s.Current())
}

func TestSession_PersistWithoutUpload(t *testing.T) {
	t.Parallel()

	_, err := newTestSession(t).Persist(context.Background())
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, ErrNoUpload))
}

func TestSession_QueryFailureDegradesToEmptyResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t)

	rs, err := s.Search(ctx, nil)
	assert.True(t, errors.Is(err, ErrQuery))
	require.NotNil(t, rs)
	assert.Empty(t, rs.Columns)
	assert.Empty(t, rs.Rows)
	assert.Nil(t, s.LastResult())

	rs, err = s.Run(ctx, "SELECT 1")
	assert.True(t, errors.Is(err, ErrRawQueryDisabled))
	require.NotNil(t, rs)
	assert.Equal(t, 0, rs.Len())
}

func TestSession_RunAndExport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t, withRawQuery)
	_, err := s.Upload(ctx, "p.xlsx", bytes.NewReader(xlsxBytes(t, peopleRows)))
	require.NoError(t, err)
	_, err = s.Persist(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.True(t, errors.Is(s.Export(&buf, model.NewDumpOptions()), ErrNoResult))

	_, err = s.Run(ctx, "SELECT name, city FROM data_table ORDER BY id")
	require.NoError(t, err)

	_, err = s.Run(ctx, "SELECT * FROM nowhere")
	require.Error(t, err)
	require.NotNil(t, s.LastResult(), "a failed query keeps the previous result")

	buf.Reset()
	require.NoError(t, s.Export(&buf, model.NewDumpOptions()))
	assert.Equal(t, "name,city\nAnn,Oslo\nBob,Lima\n", buf.String())

	require.NoError(t, s.Reset(ctx))
	assert.Nil(t, s.LastResult())
	assert.NotNil(t, s.Current(), "the upload survives a reset")

	n, err := s.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSession_ConcurrentActions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestSession(t)
	_, err := s.Upload(ctx, "p.xlsx", bytes.NewReader(xlsxBytes(t, peopleRows)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Persist(ctx)
			_, _ = s.Search(ctx, nil)
		}()
	}
	wg.Wait()

	n, err := s.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)
}
