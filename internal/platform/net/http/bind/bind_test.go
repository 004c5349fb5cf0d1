package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/testkit"

	"github.com/goccy/go-json"
)

type extractReq struct {
	Text     string `json:"text" validate:"required,max=2000"`
	Platform string `json:"platform" validate:"omitempty,platform"`
	TopN     int    `json:"top_n" validate:"omitempty,min=1,max=50"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/trends/extract", strings.NewReader(body))
}

func TestParseJSON_OK(t *testing.T) {
	got, err := ParseJSON[extractReq](post(`{"text":"Rust and Go","platform":"news","top_n":5}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.Text != "Rust and Go" || got.Platform != "news" || got.TopN != 5 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		code  perr.ErrorCode
		field string
	}{
		{"empty", ``, perr.ErrorCodeJSON, ""},
		{"malformed", `{"text":`, perr.ErrorCodeJSON, ""},
		{"unknown field", `{"text":"x","extra":1}`, perr.ErrorCodeJSON, ""},
		{"trailing", `{"text":"x"} {"text":"y"}`, perr.ErrorCodeJSON, ""},
		{"missing text", `{"platform":"rss"}`, perr.ErrorCodeValidation, "text"},
		{"bad platform", `{"text":"x","platform":"myspace"}`, perr.ErrorCodeValidation, "platform"},
		{"top_n too big", `{"text":"x","top_n":51}`, perr.ErrorCodeValidation, "top_n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseJSON[extractReq](post(c.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := perr.CodeOf(err); got != c.code {
				t.Fatalf("code = %v, want %v (%v)", got, c.code, err)
			}
			if c.field != "" {
				e, _ := perr.As(err)
				if e.Field() != c.field {
					t.Fatalf("field = %q, want %q", e.Field(), c.field)
				}
			}
		})
	}
}

func TestParseJSON_TranslatedMessages(t *testing.T) {
	_, err := ParseJSON[extractReq](post(`{"text":"x","platform":"myspace"}`))
	testkit.MustContain(t, err.Error(), "platform must be one of hackernews, news, rss")

	_, err = ParseJSON[extractReq](post(`{"text":"x","top_n":0.5}`))
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("fractional int should be a json error, got %v", err)
	}
}

func TestParseJSON_AllowEmptyBody(t *testing.T) {
	type opt struct {
		Days int `json:"days" validate:"omitempty,min=1"`
	}
	got, err := ParseJSON[opt](post(``), JSONOptions{AllowEmptyBody: true})
	if err != nil || got.Days != 0 {
		t.Fatalf("empty body = %+v %v", got, err)
	}
}

func TestParseJSON_MoreSeam(t *testing.T) {
	testkit.Swap(t, &jsonMore, func(*json.Decoder) bool { return true })
	if _, err := ParseJSON[extractReq](post(`{"text":"x"}`)); perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("expected trailing data error, got %v", err)
	}
}

func TestTermTag(t *testing.T) {
	type q struct {
		Term string `json:"term" validate:"term"`
	}
	for _, ok := range []string{"rust", "c++", "c#", "node.js", "gpt-5", "k8s"} {
		if err := Get().Validator.Struct(q{Term: ok}); err != nil {
			t.Fatalf("%q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "a", "Rust", "two words", "9lives", strings.Repeat("x", 65)} {
		if err := Get().Validator.Struct(q{Term: bad}); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/stats/top?limit=25&min_count=abc&threshold=2.5&platform=rss&days=0", nil)

	if v, err := QueryInt(r, "limit", 15, "min=1,max=100"); err != nil || v != 25 {
		t.Fatalf("limit = %d %v", v, err)
	}
	if v, err := QueryInt(r, "missing", 15, "min=1"); err != nil || v != 15 {
		t.Fatalf("default = %d %v", v, err)
	}
	if _, err := QueryInt(r, "min_count", 2, ""); perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("non integer should be invalid argument, got %v", err)
	}
	_, err := QueryInt(r, "days", 7, "min=1,max=30")
	if perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("out of range should be invalid argument, got %v", err)
	}
	testkit.MustContain(t, err.Error(), "days must be at least 1")

	if v, err := QueryFloat(r, "threshold", 2, "gt=0"); err != nil || v != 2.5 {
		t.Fatalf("threshold = %v %v", v, err)
	}
	if v, err := QueryFloatOpt(r, "threshold", "gte=-1"); err != nil || v == nil || *v != 2.5 {
		t.Fatalf("optional threshold = %v %v", v, err)
	}
	if v, err := QueryFloatOpt(r, "missing", "gte=-1"); err != nil || v != nil {
		t.Fatalf("absent optional = %v %v", v, err)
	}
	if _, err := QueryFloatOpt(r, "threshold", "lte=1"); perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
		t.Fatalf("out of range optional should be invalid argument, got %v", err)
	}
	if v, err := QueryString(r, "platform", "", "platform"); err != nil || v != "rss" {
		t.Fatalf("platform = %q %v", v, err)
	}
	bad := httptest.NewRequest(http.MethodGet, "/?platform=myspace", nil)
	if _, err := QueryString(bad, "platform", "", "platform"); err == nil {
		t.Fatalf("unknown platform accepted")
	}
}

func TestIsPlatform(t *testing.T) {
	if !IsPlatform("hackernews") || IsPlatform("HackerNews") || IsPlatform("") {
		t.Fatalf("IsPlatform mismatch")
	}
}
