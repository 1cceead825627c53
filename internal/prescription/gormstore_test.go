package prescription

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func testDSN(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
}

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := OpenGorm("sqlite", testDSN(t))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return NewGormStore(db)
}

func TestInsertThenList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	key, err := store.Insert(ctx, "Amoxicillin 500mg twice daily", time.Now())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if key == "" {
		t.Fatal("expected a store-assigned key")
	}

	recs, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].ExtractedText != "Amoxicillin 500mg twice daily" {
		t.Fatalf("unexpected text: %q", recs[0].ExtractedText)
	}
	if recs[0].Key != key {
		t.Fatalf("expected key %q, got %q", key, recs[0].Key)
	}
}

func TestListAll_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := store.Insert(ctx, "oldest", base); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Insert(ctx, "middle", base.Add(time.Hour)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Insert(ctx, "newest", base.Add(2*time.Hour)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	recs, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"newest", "middle", "oldest"}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, w := range want {
		if recs[i].ExtractedText != w {
			t.Fatalf("position %d: expected %q, got %q", i, w, recs[i].ExtractedText)
		}
	}
}

func TestInsert_EmptyTextIsLegal(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	key, err := store.Insert(ctx, "", time.Now())
	if err != nil {
		t.Fatalf("insert empty: %v", err)
	}
	if key == "" {
		t.Fatal("expected a key for empty text")
	}

	recs, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].ExtractedText != "" {
		t.Fatalf("expected one empty record, got %+v", recs)
	}
}

func TestGormConnector_Acquire(t *testing.T) {
	db, err := OpenGorm("sqlite", testDSN(t))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	conn := NewGormConnector(db)

	store, err := conn.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if store == nil {
		t.Fatal("expected a store")
	}
}
