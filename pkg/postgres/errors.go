package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/ghivert/brioche/pkg/sqlstate"
)

// Error is a custom error type used for sentinel values
type Error string

// Error is the implementation of the error interface
func (e Error) Error() string { return string(e) }

const (
	// ErrQueryTimeout is returned when the server cancels a query because a
	// statement timeout fired, or when the caller's context deadline expired.
	// We never start a timer of our own.
	ErrQueryTimeout = Error("query timed out")

	// ErrConnectionUnavailable is returned when no usable connection to the
	// database could be obtained.
	ErrConnectionUnavailable = Error("connection to the database is unavailable")
)

// ConstraintError is returned when the server rejects a statement because it
// violates a named constraint. The three fields are carried through from the
// server unchanged.
type ConstraintError struct {
	Message    string
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %q violated: %s", e.Constraint, e.Message)
}

// ServerError is returned for any other error the server reports with a
// SQLSTATE code. Name is the symbolic condition name for the code, or empty
// when the code is not one we recognise.
type ServerError struct {
	Code    string
	Name    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("postgres error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("postgres error %s (%s): %s", e.Code, e.Name, e.Message)
}

// DecodeError records a single returned row that could not be decoded into
// the caller's row type.
type DecodeError struct {
	Row int
	Err error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}

// ResultError is returned when the rows a query produced do not satisfy the
// caller's row type. It carries one DecodeError per failed row; a query that
// produces it never also returns a partial row set.
type ResultError struct {
	Errors []DecodeError
}

func (e *ResultError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, de := range e.Errors {
		msgs[i] = de.Error()
	}
	return fmt.Sprintf("unexpected result type: %s", strings.Join(msgs, "; "))
}

// RollbackError is returned when a transaction was rolled back, whether the
// server reported the condition or the transaction wrapper recovered a panic.
type RollbackError struct {
	Reason string
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("transaction rolled back: %s", e.Reason)
}

// UnclassifiedError wraps an error that matched none of the known shapes. The
// driver error is retained and can be recovered with errors.Unwrap.
type UnclassifiedError struct {
	Err error
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("unclassified database error: %s", e.Err)
}

func (e *UnclassifiedError) Unwrap() error { return e.Err }

// translate converts any error surfaced by the driver into one of the typed
// errors above. Classification is a fixed priority chain and the first
// matching shape wins; translate(nil) is nil and translate never panics.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Constraint != "" {
			return &ConstraintError{
				Message:    pqErr.Message,
				Constraint: pqErr.Constraint,
				Detail:     pqErr.Detail,
			}
		}

		code := string(pqErr.Code)
		switch {
		case code == "57014":
			return ErrQueryTimeout
		case strings.HasPrefix(code, "08"):
			return ErrConnectionUnavailable
		case code == "25P02":
			return &RollbackError{Reason: pqErr.Message}
		}

		name, _ := sqlstate.Lookup(code)
		return &ServerError{
			Code:    code,
			Name:    name,
			Message: pqErr.Message,
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrQueryTimeout
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return ErrConnectionUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrConnectionUnavailable
	}

	return &UnclassifiedError{Err: err}
}
