package handler

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{"bare day", "2026-09-10", day, false},
		{"rfc3339 utc", "2026-09-10T09:30:00Z", day, false},
		// the calendar day as written wins, not the UTC day
		{"rfc3339 negative offset", "2026-09-10T22:00:00-05:00", day, false},
		{"rfc3339 positive offset", "2026-09-10T01:00:00+09:00", day, false},
		{"garbage", "tomorrow", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parsed %q as %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total, limit, pages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 20, 5},
	}
	for _, tt := range tests {
		p := newPagination(1, tt.limit, tt.total)
		if p.Pages != tt.pages || p.Total != tt.total {
			t.Fatalf("newPagination(1, %d, %d) = %+v, want %d pages", tt.limit, tt.total, p, tt.pages)
		}
	}
}
