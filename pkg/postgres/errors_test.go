package postgres

import (
	"context"
	"database/sql/driver"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestTranslateNil(t *testing.T) {
	assert.Nil(t, translate(nil))
}

func TestTranslateConstraintViolation(t *testing.T) {
	err := translate(&pq.Error{
		Code:       "23505",
		Message:    `duplicate key value violates unique constraint "cats_pkey"`,
		Constraint: "cats_pkey",
		Detail:     "Key (id)=(900) already exists.",
	})

	var cerr *ConstraintError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, `duplicate key value violates unique constraint "cats_pkey"`, cerr.Message)
	assert.Equal(t, "cats_pkey", cerr.Constraint)
	assert.Equal(t, "Key (id)=(900) already exists.", cerr.Detail)
}

func TestTranslateServerError(t *testing.T) {
	err := translate(&pq.Error{
		Code:    "42601",
		Message: `syntax error at or near "SELEC"`,
	})

	var serr *ServerError
	assert.True(t, errors.As(err, &serr))
	assert.Equal(t, "42601", serr.Code)
	assert.Equal(t, "syntax_error", serr.Name)
	assert.Equal(t, `syntax error at or near "SELEC"`, serr.Message)
}

func TestTranslateUnknownCode(t *testing.T) {
	err := translate(&pq.Error{Code: "ZZ999", Message: "who knows"})

	var serr *ServerError
	assert.True(t, errors.As(err, &serr))
	assert.Equal(t, "ZZ999", serr.Code)
	assert.Equal(t, "", serr.Name)
}

func TestTranslateQueryCanceled(t *testing.T) {
	err := translate(&pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"})
	assert.Equal(t, ErrQueryTimeout, err)
}

func TestTranslateConnectionFailure(t *testing.T) {
	err := translate(&pq.Error{Code: "08006", Message: "connection failure"})
	assert.Equal(t, ErrConnectionUnavailable, err)
}

func TestTranslateFailedTransaction(t *testing.T) {
	err := translate(&pq.Error{
		Code:    "25P02",
		Message: "current transaction is aborted, commands ignored until end of transaction block",
	})

	var rerr *RollbackError
	assert.True(t, errors.As(err, &rerr))
	assert.Equal(t, "current transaction is aborted, commands ignored until end of transaction block", rerr.Reason)
}

func TestTranslateConstraintWinsOverCode(t *testing.T) {
	// a constraint violation also carries a SQLSTATE, but the constraint
	// shape must win
	err := translate(&pq.Error{
		Code:       "23514",
		Message:    `new row for relation "cats" violates check constraint "cats_age_check"`,
		Constraint: "cats_age_check",
	})

	var cerr *ConstraintError
	assert.True(t, errors.As(err, &cerr))
}

func TestTranslateDeadlineExceeded(t *testing.T) {
	assert.Equal(t, ErrQueryTimeout, translate(context.DeadlineExceeded))
	assert.Equal(t, ErrQueryTimeout, translate(errors.Wrap(context.DeadlineExceeded, "query failed")))
}

func TestTranslateBadConn(t *testing.T) {
	assert.Equal(t, ErrConnectionUnavailable, translate(driver.ErrBadConn))
}

func TestTranslateNetError(t *testing.T) {
	err := translate(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})
	assert.Equal(t, ErrConnectionUnavailable, err)
}

func TestTranslateWrappedDriverError(t *testing.T) {
	wrapped := errors.Wrap(&pq.Error{Code: "23503", Message: "foreign key violation", Constraint: "cats_owner_fkey"}, "insert failed")

	var cerr *ConstraintError
	assert.True(t, errors.As(translate(wrapped), &cerr))
	assert.Equal(t, "cats_owner_fkey", cerr.Constraint)
}

func TestTranslateUnclassified(t *testing.T) {
	cause := errors.New("something strange")
	err := translate(cause)

	var uerr *UnclassifiedError
	assert.True(t, errors.As(err, &uerr))
	assert.Equal(t, cause, errors.Unwrap(uerr))
}

func TestOutcomeLabels(t *testing.T) {
	testcases := []struct {
		err      error
		expected string
	}{
		{nil, "ok"},
		{ErrQueryTimeout, "query_timeout"},
		{ErrConnectionUnavailable, "connection_unavailable"},
		{&ConstraintError{Constraint: "cats_pkey"}, "constraint_violated"},
		{&ServerError{Code: "42601"}, "server_error"},
		{&ResultError{}, "unexpected_result_type"},
		{&RollbackError{Reason: "boom"}, "transaction_rolled_back"},
		{&UnclassifiedError{Err: errors.New("eh")}, "unclassified"},
		{errors.New("untyped"), "unclassified"},
	}

	for _, tc := range testcases {
		assert.Equal(t, tc.expected, outcome(tc.err))
	}
}
