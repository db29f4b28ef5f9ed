// Package sheetql loads spreadsheets into a relational table and queries them.
//
// An upload (XLSX, CSV, TSV, LTSV or Parquet, optionally compressed with
// gzip, bzip2, xz or zstandard) is parsed into a table whose first row is the
// header. From the header sheetql synthesizes a table definition: every
// column typed TEXT plus an auto-increment identity column named "id". The
// table is created with CREATE TABLE IF NOT EXISTS and never altered later.
//
// # Basic Usage
//
//	builder, err := sheetql.NewBuilder().WithDSN("data.db").Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := builder.Open(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	session := sheetql.NewSession(store)
//	defer session.Close()
//
//	if _, err := session.Upload(ctx, "sales.xlsx", file); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := session.Persist(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	rs, err := session.Search(ctx, model.FilterSet{
//	    {Column: "city", Value: "osl"},
//	})
//
// # Filters
//
// A filter set is ordered. Every filter with a non-empty value adds one
// condition and the conditions are ANDed; an empty set matches all rows.
// Values are bound as parameters, never spliced into SQL. Rows come back in
// insertion order.
//
// # Raw SQL
//
// Session.Run executes SQL text as given. It is meant for trusted users and is
// refused unless the builder was configured with EnableRawQuery.
//
// # Errors
//
// Errors wrap one of ErrIngestion, ErrPersistence or ErrQuery together with
// a more specific cause, so both can be tested with errors.Is.
package sheetql
