package testkit

import (
	"strings"
	"testing"
	"time"
)

func TestMustPanic(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
}

func TestMustNotPanic(t *testing.T) {
	MustNotPanic(t, func() {})
}

func TestMustContain(t *testing.T) {
	MustContain(t, `{"term":"rust"}`, `"rust"`)
}

func TestDayAndClock(t *testing.T) {
	d := Day(2025, time.March, 10)
	if d.Weekday() != time.Monday || d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("Day = %v", d)
	}
	now := Clock(d)
	if !now().Equal(d) || !now().Equal(now()) {
		t.Fatalf("Clock should be pinned")
	}
}

func TestDecodeEnvelope(t *testing.T) {
	body := `{"status_code":200,"status":"OK","request_id":"r1","data":{"terms":["go","rust"]}}`
	env := DecodeEnvelope[struct {
		Terms []string `json:"terms"`
	}](t, strings.NewReader(body))
	if env.StatusCode != 200 || env.RequestID != "r1" || len(env.Data.Terms) != 2 {
		t.Fatalf("envelope = %+v", env)
	}
}
