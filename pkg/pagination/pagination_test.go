package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default %d, got %d", DefaultLimit, got)
	}
	if got := NormalizeLimit(-5); got != DefaultLimit {
		t.Fatalf("expected default for negative, got %d", got)
	}
	if got := NormalizeLimit(1000); got != MaxLimit {
		t.Fatalf("expected cap %d, got %d", MaxLimit, got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough 10, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffer 11, got %d", got)
	}
}

func TestTrimPage(t *testing.T) {
	base := time.Now().UTC()
	rows := make([]Cursor, 5)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}

	page, next := TrimPage(rows, 2, func(c Cursor) Cursor { return c })
	if len(page) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page))
	}
	if next == nil {
		t.Fatal("expected a next cursor")
	}
	if next.ID != rows[1].ID {
		t.Fatalf("cursor must point at the last returned row, got %s want %s", next.ID, rows[1].ID)
	}

	page, next = TrimPage(rows[:2], 2, func(c Cursor) Cursor { return c })
	if len(page) != 2 || next != nil {
		t.Fatalf("expected final page without cursor, got %d rows cursor=%v", len(page), next)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{CreatedAt: time.Now().UTC().Truncate(time.Microsecond), ID: uuid.New()}
	encoded := EncodeCursor(original)

	parsed, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if parsed == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) || parsed.ID != original.ID {
		t.Fatalf("cursor mismatch: got %+v want %+v", parsed, original)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	parsed, err := ParseCursor("  ")
	if err != nil || parsed != nil {
		t.Fatalf("expected nil cursor for blank input, got %+v err=%v", parsed, err)
	}
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}
