package sheetql

import (
	"context"
	"io"
	"sync"

	"github.com/nao1215/sheetql/domain/model"
)

// DefaultPreviewRows is the number of rows shown after an upload.
const DefaultPreviewRows = 5

// Session is the state of one user working with one store: the current
// upload and the last result. Every method is one user action; actions run
// one at a time and a failed action leaves the session as it was.
type Session struct {
	mu          sync.Mutex
	id          string
	store       *Store
	current     *model.Table
	schema      *Schema
	last        *ResultSet
	previewRows int
}

// SessionOption customizes NewSession.
type SessionOption func(*Session)

// WithPreviewRows sets how many rows Preview returns by default.
func WithPreviewRows(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.previewRows = n
		}
	}
}

// WithSessionID attaches an identifier, used by callers for bookkeeping.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// NewSession starts a session on store. The session owns the store and
// closes it in Close.
func NewSession(store *Store, opts ...SessionOption) *Session {
	s := &Session{
		store:       store,
		previewRows: DefaultPreviewRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the identifier given with WithSessionID.
func (s *Session) ID() string {
	return s.id
}

// Store returns the store the session works on.
func (s *Session) Store() *Store {
	return s.store
}

// UploadSummary describes an accepted upload.
type UploadSummary struct {
	// Name is derived from the file name.
	Name string
	// Columns are the columns the persisted table will have, identity first.
	Columns []string
	// Rows is the number of data rows.
	Rows int
	// Preview holds the leading rows.
	Preview []model.Record
}

// Upload parses a spreadsheet and checks that its header can become a table.
// On success the upload replaces the previous one. Nothing is written to the
// store until Persist.
//
// Errors wrap ErrIngestion when the file cannot be read and ErrPersistence
// when its header cannot become a table.
func (s *Session) Upload(_ context.Context, name string, r io.Reader) (*UploadSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := ParseReader(r, name)
	if err != nil {
		return nil, err
	}
	schema, err := s.store.Synthesize(table)
	if err != nil {
		return nil, err
	}

	s.current = table
	s.schema = schema

	return &UploadSummary{
		Name:    table.Name(),
		Columns: schema.AllColumns(),
		Rows:    table.Len(),
		Preview: table.Head(s.previewRows),
	}, nil
}

// Current returns the current upload, or nil.
func (s *Session) Current() *model.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Preview returns the first n rows of the current upload; n <= 0 uses the
// session default.
func (s *Session) Preview(n int) (model.Header, []model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, nil, newErrorContext("preview").wrap(ErrIngestion, ErrNoUpload)
	}
	if n <= 0 {
		n = s.previewRows
	}
	return s.current.Header(), s.current.Head(n), nil
}

// Persist creates the table if it does not exist and inserts the current
// upload. It returns the number of inserted rows. Errors wrap ErrPersistence.
func (s *Session) Persist(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0, newErrorContext("persist").wrap(ErrPersistence, ErrNoUpload)
	}
	if err := s.store.EnsureTable(ctx, s.schema); err != nil {
		return 0, err
	}
	return s.store.Insert(ctx, s.schema, s.current.Records())
}

// Columns lists the persisted table's columns, identity first.
func (s *Session) Columns(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Columns(ctx)
}

// Search runs a filter query. On failure it returns an empty result
// alongside the error and keeps the previous last result.
func (s *Session) Search(ctx context.Context, filters model.FilterSet, opts ...QueryOption) (*ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.store.Search(ctx, filters, opts...)
	if err != nil {
		return EmptyResult(), err
	}
	s.last = rs
	return rs, nil
}

// Run executes raw SQL. On failure it returns an empty result alongside the
// error and keeps the previous last result.
func (s *Session) Run(ctx context.Context, query string) (*ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, err := s.store.Run(ctx, query)
	if err != nil {
		return EmptyResult(), err
	}
	s.last = rs
	return rs, nil
}

// LastResult returns the result of the last successful Search or Run, or nil.
func (s *Session) LastResult() *ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Export writes the last result to w.
func (s *Session) Export(w io.Writer, opts model.DumpOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Export(w, s.last, opts)
}

// Reset drops the persisted table and forgets the last result.
// The current upload is kept so it can be persisted again.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	s.last = nil
	return nil
}

// Close releases the store.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}
