package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsMutatingKeywords(t *testing.T) {
	cases := []string{
		"INSERT INTO jobs VALUES (1)",
		"update jobs set status = 'closed'",
		"  DeLeTe  FROM jobs",
		"DROP TABLE payments",
		"alter table users add column x int",
		"TRUNCATE payments",
		"create table t (id int)",
		"GRANT ALL ON jobs TO public",
		"revoke select on jobs from public",
		"\n\tDrOp\n TABLE users",
	}
	for _, stmt := range cases {
		_, err := Validate(stmt)
		assert.ErrorIs(t, err, ErrUnsafeStatement, "statement: %q", stmt)
	}
}

func TestValidateRejectsMultiStatement(t *testing.T) {
	cases := []string{
		"SELECT 1; DROP TABLE x",
		"SELECT 1; SELECT 2",
		"SELECT 1;;SELECT 2",
	}
	for _, stmt := range cases {
		_, err := Validate(stmt)
		assert.ErrorIs(t, err, ErrUnsafeStatement, "statement: %q", stmt)
	}
}

func TestValidateRejectsNonSelect(t *testing.T) {
	for _, stmt := range []string{"", "   ", "EXPLAIN SELECT 1", "SHOW TABLES", "-- just a comment"} {
		_, err := Validate(stmt)
		assert.ErrorIs(t, err, ErrUnsafeStatement, "statement: %q", stmt)
	}
}

func TestValidateAcceptsReadStatements(t *testing.T) {
	cases := []string{
		"SELECT u.fname, u.lname FROM users u LIMIT 10",
		"select created_at, updated_at from jobs",       // CREATE/UPDATE substrings inside identifiers
		"SELECT drop_rate FROM stats",                   // DROP substring
		"WITH recent AS (SELECT id FROM jobs) SELECT * FROM recent",
		"SELECT 1;",          // single trailing separator
		"SELECT 1 /* note */",
	}
	for _, stmt := range cases {
		safe, err := Validate(stmt)
		require.NoError(t, err, "statement: %q", stmt)
		assert.NotEmpty(t, safe)
	}
}

func TestValidateIgnoresCommentsWhenTokenizing(t *testing.T) {
	// A mutating verb inside a comment is not a mutating statement.
	safe, err := Validate("SELECT id FROM jobs -- DROP TABLE jobs")
	require.NoError(t, err)
	assert.Equal(t, SafeStatement("SELECT id FROM jobs"), safe)

	// But a real verb after a comment still rejects.
	_, err = Validate("/* harmless */ DELETE FROM jobs")
	assert.ErrorIs(t, err, ErrUnsafeStatement)
}
