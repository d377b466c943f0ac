package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// QueryParams narrows down and orders the rows of a query.
type QueryParams struct {
	// Where is an SQL condition with ? placeholders, e.g. "Input = ?".
	Where string
	Args  []any

	// OrderBy lists the sort columns, e.g. "Input, Output DESC".
	OrderBy string

	// Limit caps the number of rows. Zero means all the rows. Offset only
	// applies together with a limit.
	Limit  int
	Offset int
}

func (p QueryParams) filter() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) window() string {
	var sb strings.Builder

	if p.OrderBy != "" {
		sb.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", p.Limit)

		if p.Offset > 0 {
			fmt.Fprintf(&sb, " OFFSET %d", p.Offset)
		}
	}

	return sb.String()
}

// DataReader reads the tables written by a DataRecorder back into structs.
type DataReader interface {
	// MapTable binds a table to the struct type of its rows. Columns are
	// matched to fields by name. A table must be mapped before a query.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables in name order.
	ListTables() []string

	// Query returns a pointer to a struct per matching row and the number
	// of rows that match regardless of Limit and Offset.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

// QueryAll maps a table to T and returns all of its rows that match.
func QueryAll[T any](
	ctx context.Context,
	r DataReader,
	tableName string,
	params QueryParams,
) ([]T, error) {
	var sample T
	r.MapTable(tableName, sample)

	results, _, err := r.Query(ctx, tableName, params)
	if err != nil {
		return nil, err
	}

	rows := make([]T, len(results))
	for i, res := range results {
		rows[i] = *res.(*T)
	}

	return rows, nil
}

type sqliteReader struct {
	db     *sql.DB
	tables map[string]reflect.Type
}

// NewReader opens a database file for reading.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return NewReaderWithDB(db)
}

// NewReaderWithDB reads from an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:     db,
		tables: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(fmt.Errorf("table %s: %w", tableName, err))
	}

	r.tables[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	rowType, ok := r.tables[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.filter(),
		params.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting %s: %w", tableName, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+tableName+params.filter()+params.window(),
		params.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", tableName, err)
	}
	defer rows.Close()

	results, err := readRows(rows, rowType)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", tableName, err)
	}

	return results, total, nil
}

// readRows scans every row into a new struct of rowType. Columns without a
// field of the same name are dropped.
func readRows(rows *sql.Rows, rowType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var (
		results []any
		discard any
	)

	for rows.Next() {
		row := reflect.New(rowType)
		targets := make([]any, len(columns))

		for i, col := range columns {
			field := row.Elem().FieldByName(col)
			if !field.IsValid() {
				targets[i] = &discard
				continue
			}

			targets[i] = field.Addr().Interface()
		}

		err = rows.Scan(targets...)
		if err != nil {
			return nil, err
		}

		results = append(results, row.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
