package tasks

import (
	"errors"
	"testing"
	"time"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "1", want: 1},
		{raw: " 42 ", want: 42},
		{raw: "9223372036854775807", want: 9223372036854775807},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "3.0", wantErr: true},
		{raw: "9223372036854775808", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseID(tt.raw)
			if tt.wantErr {
				var idErr *InvalidIdentifierError
				if !errors.As(err, &idErr) {
					t.Fatalf("expected InvalidIdentifierError, got %v", err)
				}
				if idErr.Raw != tt.raw {
					t.Fatalf("expected raw %q, got %q", tt.raw, idErr.Raw)
				}
				if !errors.Is(err, ErrInvalidIdentifier) {
					t.Fatalf("expected errors.Is ErrInvalidIdentifier")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []int64{0, -3} {
		err := ValidateID(id)
		var idErr *InvalidIdentifierError
		if !errors.As(err, &idErr) || !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("ValidateID(%d): expected InvalidIdentifierError, got %v", id, err)
		}
	}
	if err := ValidateID(-3); err.Error() != `invalid identifier: "-3"` {
		t.Fatalf("unexpected message %q", err)
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2026-10-16", time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
		{"2026-10-16T09:30", time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)},
		{"2026-10-16T09:30:00+02:00", time.Date(2026, 10, 16, 7, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDueDate(tt.raw)
		if err != nil {
			t.Fatalf("%s: %v", tt.raw, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("%s: expected %s, got %s", tt.raw, tt.want, got)
		}
	}

	if _, err := ParseDueDate("soon"); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
}
