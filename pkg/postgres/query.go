package postgres

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/ghivert/brioche/pkg/logger"
)

// Returned pairs the decoded rows of a query with the native row count. For
// statements executed via Exec the count is the number of affected rows.
type Returned[T any] struct {
	Rows  []T
	Count int64
}

// Query executes the given SQL with ordered positional parameters against h,
// decoding every returned row into T. Struct types are decoded by their db
// tags, everything else (including types implementing sql.Scanner) is
// decoded as a single column. If any row fails to decode the whole call
// fails with a *ResultError - a partial row set is never returned.
func Query[T any](ctx context.Context, h Handle, query string, args ...interface{}) (*Returned[T], error) {
	log := logger.FromContext(ctx)

	if h.isVerbose() {
		log.Log("msg", "executing query", "sql", query)
	}

	start := time.Now()

	rows, err := h.ext().QueryxContext(ctx, query, args...)
	if err != nil {
		terr := translate(err)
		observe("query", terr, start)
		return nil, terr
	}
	defer rows.Close()

	byStruct := scanByStruct[T]()

	var (
		out        []T
		decodeErrs []DecodeError
		count      int64
	)

	for rows.Next() {
		var row T
		if byStruct {
			err = rows.StructScan(&row)
		} else {
			err = rows.Scan(&row)
		}
		if err != nil {
			decodeErrs = append(decodeErrs, DecodeError{Row: int(count), Err: err})
		} else {
			out = append(out, row)
		}
		count++
	}

	if err = rows.Err(); err != nil {
		terr := translate(err)
		observe("query", terr, start)
		return nil, terr
	}

	if len(decodeErrs) > 0 {
		rerr := &ResultError{Errors: decodeErrs}
		observe("query", rerr, start)
		return nil, rerr
	}

	observe("query", nil, start)

	return &Returned[T]{Rows: out, Count: count}, nil
}

// QueryMaps executes the given SQL and decodes each row into a map keyed by
// column name. This is the dynamic form of Query for callers that do not
// know the result shape ahead of time, like the CLI.
func QueryMaps(ctx context.Context, h Handle, query string, args ...interface{}) (*Returned[map[string]interface{}], error) {
	log := logger.FromContext(ctx)

	if h.isVerbose() {
		log.Log("msg", "executing query", "sql", query)
	}

	start := time.Now()

	rows, err := h.ext().QueryxContext(ctx, query, args...)
	if err != nil {
		terr := translate(err)
		observe("query", terr, start)
		return nil, terr
	}
	defer rows.Close()

	var (
		out        []map[string]interface{}
		decodeErrs []DecodeError
		count      int64
	)

	for rows.Next() {
		row := map[string]interface{}{}
		if err = rows.MapScan(row); err != nil {
			decodeErrs = append(decodeErrs, DecodeError{Row: int(count), Err: err})
		} else {
			out = append(out, row)
		}
		count++
	}

	if err = rows.Err(); err != nil {
		terr := translate(err)
		observe("query", terr, start)
		return nil, terr
	}

	if len(decodeErrs) > 0 {
		rerr := &ResultError{Errors: decodeErrs}
		observe("query", rerr, start)
		return nil, rerr
	}

	observe("query", nil, start)

	return &Returned[map[string]interface{}]{Rows: out, Count: count}, nil
}

// Exec executes a statement that decodes no rows, returning the number of
// rows the statement affected.
func Exec(ctx context.Context, h Handle, query string, args ...interface{}) (int64, error) {
	log := logger.FromContext(ctx)

	if h.isVerbose() {
		log.Log("msg", "executing statement", "sql", query)
	}

	start := time.Now()

	res, err := h.ext().ExecContext(ctx, query, args...)
	if err != nil {
		terr := translate(err)
		observe("exec", terr, start)
		return 0, terr
	}

	count, err := res.RowsAffected()
	if err != nil {
		terr := translate(err)
		observe("exec", terr, start)
		return 0, terr
	}

	observe("exec", nil, start)

	return count, nil
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// scanByStruct reports whether T decodes field-by-field via StructScan or as
// a single column via Scan. This mirrors the dispatch sqlx itself performs:
// structs scan by field unless they are time.Time or implement sql.Scanner.
func scanByStruct[T any]() bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	return !reflect.PtrTo(t).Implements(scannerType)
}
