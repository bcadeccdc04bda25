package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deppfellow/biblia/internal/database"
)

// result is one canned answer, consumed in the order statements run.
type result struct {
	rows [][]any
	err  error // returned by Query/QueryRow/batch Query
	// iterErr is reported by Rows.Err after iteration.
	iterErr error
}

type call struct {
	sql  string
	args []any
}

// fakeProvider counts acquisitions and releases so tests can check every
// connection is given back.
type fakeProvider struct {
	conn       *fakeConn
	acquireErr error
	acquired   int
	released   int
}

func newFakeProvider(results ...result) *fakeProvider {
	return &fakeProvider{conn: &fakeConn{results: results}}
}

func (p *fakeProvider) Acquire(context.Context) (database.Conn, func(), error) {
	if p.acquireErr != nil {
		return nil, nil, p.acquireErr
	}
	p.acquired++
	return p.conn, func() { p.released++ }, nil
}

type fakeConn struct {
	results []result
	calls   []call
	batches int
	batch   *fakeBatchResults
}

func (c *fakeConn) next(sql string, args []any) result {
	c.calls = append(c.calls, call{sql: sql, args: args})
	if len(c.results) == 0 {
		return result{err: fmt.Errorf("unexpected statement: %s", sql)}
	}
	res := c.results[0]
	c.results = c.results[1:]
	return res
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	res := c.next(sql, args)
	if res.err != nil {
		return nil, res.err
	}
	return &fakeRows{data: res.rows, err: res.iterErr}, nil
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	res := c.next(sql, args)
	return &fakeRow{data: res.rows, err: res.err}
}

func (c *fakeConn) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	c.batches++
	br := &fakeBatchResults{}
	for _, q := range b.QueuedQueries {
		br.results = append(br.results, c.next(q.SQL, q.Arguments))
	}
	c.batch = br
	return br
}

type fakeBatchResults struct {
	results []result
	read    int
	closed  int
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("exec is not supported by the fake")
}

func (b *fakeBatchResults) Query() (pgx.Rows, error) {
	if b.read >= len(b.results) {
		return nil, errors.New("no more results in batch")
	}
	res := b.results[b.read]
	b.read++
	if res.err != nil {
		return nil, res.err
	}
	return &fakeRows{data: res.rows, err: res.iterErr}, nil
}

func (b *fakeBatchResults) QueryRow() pgx.Row {
	rows, err := b.Query()
	if err != nil {
		return &fakeRow{err: err}
	}
	return &fakeRow{data: rows.(*fakeRows).data}
}

func (b *fakeBatchResults) Close() error {
	b.closed++
	return nil
}

type fakeRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.idx >= len(r.data) {
		r.Close()
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanValues(r.data[r.idx-1], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.idx-1], nil
}

type fakeRow struct {
	data [][]any
	err  error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(r.data) == 0 {
		return pgx.ErrNoRows
	}
	return scanValues(r.data[0], dest)
}

func scanValues(row []any, dest []any) error {
	if len(row) != len(dest) {
		return fmt.Errorf("scan: row has %d values, %d destinations", len(row), len(dest))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d).Elem()
		sv := reflect.ValueOf(row[i])
		if !sv.Type().ConvertibleTo(dv.Type()) {
			return fmt.Errorf("scan: cannot assign %T to %s", row[i], dv.Type())
		}
		dv.Set(sv.Convert(dv.Type()))
	}
	return nil
}
