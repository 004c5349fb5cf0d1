package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeDuplicateKey, http.StatusConflict},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUpstream, http.StatusBadGateway},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeDisabled, http.StatusServiceUnavailable},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodePanic, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestErrorCodeString(t *testing.T) {
	if ErrorCodeUpstream.String() != "upstream" || ErrorCodeTooManyRequests.String() != "too_many_requests" {
		t.Fatalf("names = %q %q", ErrorCodeUpstream, ErrorCodeTooManyRequests)
	}
	if ErrorCode(999).String() != "code_999" {
		t.Fatalf("unknown name = %q", ErrorCode(999))
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q", e.Error())
	}

	src := stderrs.New("connection reset")
	e1 := Wrapf(src, ErrorCodeUpstream, "fetch item %d", 42)
	if want := "fetch item 42: connection reset"; e1.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e1.Error(), want)
	}
	if stderrs.Unwrap(e1) != src || CodeOf(e1) != ErrorCodeUpstream {
		t.Fatalf("Wrapf lost cause or code")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	e2 := WithOp(WithField(e1, "id"), "hackernews.item")
	got, ok := As(e2)
	if !ok || got.Field() != "id" || got.Op() != "hackernews.item" {
		t.Fatalf("WithField/WithOp = %+v", got)
	}
	if want := "hackernews.item: fetch item 42: connection reset"; e2.Error() != want {
		t.Fatalf("op render = %q", e2.Error())
	}
	if orig, _ := As(e1); orig.Field() != "" || orig.Op() != "" {
		t.Fatalf("copy on write mutated original")
	}
	if WithField(src, "x") != src {
		t.Fatalf("foreign error should pass through WithField")
	}

	if wf := WireFrom(e2); wf.Code != ErrorCodeUpstream || wf.Message != "fetch item 42" || wf.Field != "id" {
		t.Fatalf("WireFrom(ours) = %+v", wf)
	}
	if wf := WireFrom(src); wf.Code != ErrorCodeUnknown || wf.Message != "connection reset" {
		t.Fatalf("WireFrom(foreign) = %+v", wf)
	}
	if wf := WireFrom(nil); wf != (Wire{}) {
		t.Fatalf("WireFrom(nil) = %+v", wf)
	}

	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if Root(deep) != src {
		t.Fatalf("Root() = %v", Root(deep))
	}
	if WrapIf(nil, ErrorCodeDB, "ignored") != nil || WrapIf(src, ErrorCodeDB, "db") == nil {
		t.Fatalf("WrapIf mismatch")
	}
	if !IsCode(ErrNotFound, ErrorCodeNotFound) {
		t.Fatalf("ErrNotFound code mismatch")
	}
}

func TestSugar(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{NotFoundf("x"), ErrorCodeNotFound},
		{InvalidArgf("x"), ErrorCodeInvalidArgument},
		{DBf("x"), ErrorCodeDB},
		{JSONErrf("x"), ErrorCodeJSON},
		{PanicErrf("x"), ErrorCodePanic},
		{Conflictf("x"), ErrorCodeConflict},
		{Unavailablef("x"), ErrorCodeUnavailable},
		{Upstreamf("x"), ErrorCodeUpstream},
		{Disabledf("x"), ErrorCodeDisabled},
		{Internalf("x"), ErrorCodeUnknown},
	}
	for _, c := range cases {
		if !IsCode(c.err, c.code) {
			t.Fatalf("%v has code %v, want %v", c.err, CodeOf(c.err), c.code)
		}
	}
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		code   ErrorCode
		retry  bool
	}{
		{http.StatusTooManyRequests, ErrorCodeTooManyRequests, true},
		{http.StatusBadGateway, ErrorCodeUpstream, true},
		{http.StatusInternalServerError, ErrorCodeUpstream, true},
		{http.StatusUnauthorized, ErrorCodeDisabled, false},
		{http.StatusNotFound, ErrorCodeNotFound, false},
		{http.StatusBadRequest, ErrorCodeInvalidArgument, false},
	}
	for _, c := range cases {
		err := FromStatus(c.status, "newsapi")
		if CodeOf(err) != c.code {
			t.Fatalf("FromStatus(%d) code = %v, want %v", c.status, CodeOf(err), c.code)
		}
		if Retryable(err) != c.retry {
			t.Fatalf("Retryable(FromStatus(%d)) = %v", c.status, Retryable(err))
		}
	}
}

func TestHTTPHelper(t *testing.T) {
	if st, w := HTTP(nil); st != http.StatusOK || w != (Wire{}) {
		t.Fatalf("HTTP(nil) = %d %+v", st, w)
	}
	st, w := HTTP(NotFoundf("no model"))
	if st != http.StatusNotFound || w.Code != ErrorCodeNotFound {
		t.Fatalf("HTTP(err) = %d %+v", st, w)
	}
}
