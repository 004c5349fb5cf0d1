package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pg(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCodeMappings(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"23514", ErrorCodeValidation},
		{"22001", ErrorCodeInvalidArgument},
		{"22P02", ErrorCodeInvalidArgument},
		{"42P01", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"40P01", ErrorCodeDB},
		{"55P03", ErrorCodeDB},
		{"25006", ErrorCodeUnavailable},
		{"57P03", ErrorCodeUnavailable},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pg(c.code))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v %v, want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("DBErrorCode should be !ok for non pg errors")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil || FromPostgresf(nil, "x %d", 1) != nil {
		t.Fatalf("nil should pass through")
	}
	if err := FromPostgres(pg("23505"), "insert story"); CodeOf(err) != ErrorCodeDuplicateKey {
		t.Fatalf("code = %v", CodeOf(err))
	}
	err := FromPostgresf(pg("42P01"), "query %s", "keyword_observations")
	if CodeOf(err) != ErrorCodeUnavailable {
		t.Fatalf("undefined table = %v", err)
	}
	if err := FromPostgres(fmt.Errorf("exec: %w", pg("23514")), "insert observations"); CodeOf(err) != ErrorCodeValidation {
		t.Fatalf("wrapped check violation = %v", CodeOf(err))
	}
	if CodeOf(FromPostgres(stderrs.New("io"), "x")) != ErrorCodeDB {
		t.Fatalf("non pg errors should map to DB")
	}
}

func TestIsRetryable(t *testing.T) {
	for _, code := range []string{"40001", "40P01", "55P03"} {
		if !IsRetryable(pg(code)) || !Retryable(FromPostgres(pg(code), "tx")) {
			t.Fatalf("%s should be retryable", code)
		}
	}
	if IsRetryable(pg("23505")) {
		t.Fatalf("23505 should not be retryable")
	}
	if !IsRetryable(stderrs.New("ERROR: deadlock detected")) {
		t.Fatalf("deadlock text should be retryable")
	}
	if IsRetryable(fmt.Errorf("wrapped: %w", context.Canceled)) {
		t.Fatalf("cancellation must not be retried")
	}
	if IsRetryable(nil) || Retryable(nil) {
		t.Fatalf("nil is not retryable")
	}
}
