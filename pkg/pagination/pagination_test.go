package pagination

import (
	"testing"
	"time"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, 500: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d want %d", in, got, want)
		}
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatalf("expected buffer of one")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 123, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: at, ID: "INV-20240115-001"})

	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.CreatedAt.Equal(at) || got.ID != "INV-20240115-001" {
		t.Fatalf("unexpected cursor %+v", got)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor("  "); c != nil || err != nil {
		t.Fatalf("blank cursor should be nil, got %v %v", c, err)
	}
	for _, bad := range []string{"%%%", EncodeCursor(Cursor{})[:4], "bm9waXBl"} {
		if _, err := ParseCursor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestTrim(t *testing.T) {
	rows := []int{5, 4, 3}
	page := Trim(rows, 2, func(v int) Cursor {
		return Cursor{CreatedAt: time.Unix(int64(v), 0), ID: "x"}
	})
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("expected 2 items and a cursor, got %+v", page)
	}
	c, err := ParseCursor(page.NextCursor)
	if err != nil || c.CreatedAt.Unix() != 4 {
		t.Fatalf("expected cursor at last kept row, got %+v %v", c, err)
	}

	page = Trim(rows, 3, func(int) Cursor { return Cursor{} })
	if page.NextCursor != "" || len(page.Items) != 3 {
		t.Fatalf("expected final page, got %+v", page)
	}
}
