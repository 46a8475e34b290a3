package sqlstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghivert/brioche/pkg/sqlstate"
)

func TestLookup(t *testing.T) {
	testcases := []struct {
		code string
		name string
	}{
		{"00000", "successful_completion"},
		{"08006", "connection_failure"},
		{"23505", "unique_violation"},
		{"23503", "foreign_key_violation"},
		{"25P02", "in_failed_sql_transaction"},
		{"40P01", "deadlock_detected"},
		{"42601", "syntax_error"},
		{"42P01", "undefined_table"},
		{"57014", "query_canceled"},
		{"HV00R", "fdw_table_not_found"},
		{"P0001", "raise_exception"},
		{"XX000", "internal_error"},
	}

	for _, tc := range testcases {
		t.Run(tc.code, func(t *testing.T) {
			name, ok := sqlstate.Lookup(tc.code)
			assert.True(t, ok)
			assert.Equal(t, tc.name, name)
		})
	}
}

func TestLookupUnknownCode(t *testing.T) {
	for _, code := range []string{"", "2350", "99999", "ZZ999", "unique_violation"} {
		name, ok := sqlstate.Lookup(code)
		assert.False(t, ok, "expected no match for %q", code)
		assert.Equal(t, "", name)
	}
}

func TestCode(t *testing.T) {
	testcases := []struct {
		name string
		code string
	}{
		{"unique_violation", "23505"},
		{"syntax_error", "42601"},
		{"query_canceled", "57014"},
		// duplicated names resolve to the lowest class
		{"string_data_right_truncation", "01004"},
		{"null_value_not_allowed", "22004"},
		{"modifying_sql_data_not_permitted", "2F002"},
		{"prohibited_sql_statement_attempted", "2F003"},
		{"reading_sql_data_not_permitted", "2F004"},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := sqlstate.Code(tc.name)
			assert.True(t, ok)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestCodeUnknownName(t *testing.T) {
	code, ok := sqlstate.Code("no_such_condition")
	assert.False(t, ok)
	assert.Equal(t, "", code)
}

func TestRoundTrip(t *testing.T) {
	// every name resolvable via Code must look up to itself again
	for _, code := range []string{"23505", "42601", "08006", "XX000"} {
		name, ok := sqlstate.Lookup(code)
		assert.True(t, ok)

		got, ok := sqlstate.Code(name)
		assert.True(t, ok)
		assert.Equal(t, code, got)
	}
}
