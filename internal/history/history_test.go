package history

import (
	"fmt"
	"testing"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/slot"
)

func newStore(t *testing.T, limit int) (*Store, *slot.MemoryStore) {
	t.Helper()
	mem := slot.NewMemoryStore()
	s, err := slot.Open[[]model.HistoryItem](mem, model.SlotHistory)
	if err != nil {
		t.Fatalf("slot.Open: %v", err)
	}
	return NewWithLimit(s, limit), mem
}

func item(id, name string) model.HistoryItem {
	return model.HistoryItem{ID: id, FileID: id, Name: name}
}

func TestRecordDedupesAndOrders(t *testing.T) {
	t.Parallel()
	h, _ := newStore(t, 0)

	for _, it := range []model.HistoryItem{item("a", "a.log"), item("b", "b.log"), item("a", "a2.log")} {
		if err := h.Record(it); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	items := h.Items()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].FileID != "a" || items[0].Name != "a2.log" || items[1].FileID != "b" {
		t.Fatalf("items = %+v", items)
	}
}

func TestRecordCapsLength(t *testing.T) {
	t.Parallel()
	h, _ := newStore(t, 5)

	for i := 0; i < 12; i++ {
		if err := h.Record(item(fmt.Sprintf("f%d", i), "x")); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	items := h.Items()
	if len(items) != 5 {
		t.Fatalf("len = %d, want 5", len(items))
	}
	if items[0].FileID != "f11" || items[4].FileID != "f7" {
		t.Fatalf("kept wrong entries: first=%s last=%s", items[0].FileID, items[4].FileID)
	}
}

func TestDefaultCapIsThousand(t *testing.T) {
	t.Parallel()
	h, _ := newStore(t, 0)
	for i := 0; i < model.MaxHistoryItems+3; i++ {
		_ = h.Record(item(fmt.Sprintf("f%d", i), "x"))
	}
	if h.Len() != model.MaxHistoryItems {
		t.Fatalf("Len = %d, want %d", h.Len(), model.MaxHistoryItems)
	}
}

func TestMutationsWriteThrough(t *testing.T) {
	t.Parallel()
	h, mem := newStore(t, 0)

	reread := func() []model.HistoryItem {
		t.Helper()
		s, err := slot.Open[[]model.HistoryItem](mem, model.SlotHistory)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		v, _ := s.Get()
		return v
	}

	_ = h.Record(item("a", "a"))
	_ = h.Record(item("b", "b"))
	if got := reread(); len(got) != 2 || got[0].FileID != "b" {
		t.Fatalf("after Record slot = %+v", got)
	}

	_ = h.Remove("a")
	if got := reread(); len(got) != 1 || got[0].FileID != "b" {
		t.Fatalf("after Remove slot = %+v", got)
	}

	if err := h.Remove("missing"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}

	_ = h.Clear()
	if got := reread(); len(got) != 0 {
		t.Fatalf("after Clear slot = %+v", got)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	t.Parallel()
	h, _ := newStore(t, 0)
	_ = h.Record(item("a", "a"))

	items := h.Items()
	items[0].Name = "mutated"
	if got, _ := h.Find("a"); got.Name != "a" {
		t.Fatalf("Find after external mutation = %+v", got)
	}
}

func TestRecordForcesIDToFileID(t *testing.T) {
	t.Parallel()
	h, _ := newStore(t, 0)

	if err := h.Record(model.HistoryItem{ID: "stale", FileID: "f1", Name: "a.log"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, ok := h.Find("f1")
	if !ok || got.ID != "f1" {
		t.Fatalf("Find = %+v, %v; want ID f1", got, ok)
	}
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
}
