package util

import (
	"testing"
	"time"
)

func TestParseDateISO(t *testing.T) {
	got, ok := ParseDate("2024-03-01")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateSingleDigit(t *testing.T) {
	got, ok := ParseDate("2024-3-1")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2024-03-01" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "2024-13-01", "2024-02-30", "01/03/2024", "2024-03-01T10:00:00Z", " 2024-03-01", "2024-03-01\n"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestMonthsBetween(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2018-05-15", 0},
		{"2018-06-15", 1},
		{"2019-05-15", 12},
		{"2018-04-30", -1},
		{"2024-03-01", 70},
	}
	for _, c := range cases {
		d, ok := ParseDate(c.date)
		if !ok {
			t.Fatalf("parse %s", c.date)
		}
		if got := MonthsBetween(2018, time.May, d); got != c.want {
			t.Fatalf("%s: expected %d, got %d", c.date, c.want, got)
		}
	}
}
