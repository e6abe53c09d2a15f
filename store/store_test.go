package store_test

import (
	"testing"
	"time"

	"github.com/rkvdb/rkv/store"
)

func TestStringIncr(t *testing.T) {
	t.Parallel()

	s := store.NewString([]byte("10"))
	n, err := s.Incr()
	if err != nil || n != 11 {
		t.Fatalf("Incr() = %d, %v, want 11, nil", n, err)
	}
	if string(s.Bytes()) != "11" {
		t.Fatalf("Bytes() = %q, want %q", s.Bytes(), "11")
	}
}

func TestStringIncrNotInteger(t *testing.T) {
	t.Parallel()

	s := store.NewString([]byte("abc"))
	if _, err := s.Incr(); err != store.ErrNotInteger {
		t.Fatalf("err = %v, want ErrNotInteger", err)
	}
	if string(s.Bytes()) != "abc" {
		t.Fatalf("Incr must not mutate on failure, got %q", s.Bytes())
	}
}

func TestListPushPop(t *testing.T) {
	t.Parallel()

	l := store.NewList()
	l.RPush([]byte("a"), []byte("b"), []byte("c"))
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}

	l2 := store.NewList()
	l2.LPush([]byte("a"), []byte("b"), []byte("c"))
	got := l2.Range(0, -1)
	want := []string{"c", "b", "a"}
	for i, w := range want {
		if string(got[i]) != w {
			t.Fatalf("LPush order = %q, want %q", got, want)
		}
	}

	popped := l.LPop(2)
	if len(popped) != 2 || string(popped[0]) != "a" || string(popped[1]) != "b" {
		t.Fatalf("LPop(2) = %q", popped)
	}
	if l.Len() != 1 {
		t.Fatalf("Len() after pop = %d, want 1", l.Len())
	}
}

func TestListRangeBoundaries(t *testing.T) {
	t.Parallel()

	l := store.NewList()
	l.RPush([]byte("a"), []byte("b"), []byte("c"))

	if got := l.Range(5, 10); len(got) != 0 {
		t.Fatalf("out-of-range start = %q, want empty", got)
	}
	if got := l.Range(2, 1); len(got) != 0 {
		t.Fatalf("start > stop = %q, want empty", got)
	}
	if got := l.Range(-2, -1); len(got) != 2 {
		t.Fatalf("negative range = %q, want 2 elements", got)
	}
}

func TestSortedSetOrder(t *testing.T) {
	t.Parallel()

	z := store.NewSortedSet()
	added := z.Add([]store.ZMember{
		{Member: []byte("a"), Score: 1},
		{Member: []byte("b"), Score: 2},
		{Member: []byte("c"), Score: 1},
	})
	if added != 3 {
		t.Fatalf("Add() = %d, want 3", added)
	}

	got := z.Range(0, -1)
	want := []string{"a", "c", "b"}
	for i, w := range want {
		if string(got[i].Member) != w {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	rank, ok := z.Rank([]byte("b"))
	if !ok || rank != 2 {
		t.Fatalf("Rank(b) = %d, %v, want 2, true", rank, ok)
	}

	if _, ok := z.Score([]byte("missing")); ok {
		t.Fatal("Score(missing) should not be found")
	}
}

func TestSortedSetAddUpdateDoesNotCountAsNew(t *testing.T) {
	t.Parallel()

	z := store.NewSortedSet()
	z.Add([]store.ZMember{{Member: []byte("a"), Score: 1}})
	added := z.Add([]store.ZMember{{Member: []byte("a"), Score: 5}})
	if added != 0 {
		t.Fatalf("Add() on update = %d, want 0", added)
	}
	score, _ := z.Score([]byte("a"))
	if score != 5 {
		t.Fatalf("Score(a) = %v, want 5", score)
	}
}

func TestStreamAddMonotonic(t *testing.T) {
	t.Parallel()

	s := store.NewStream()
	if err := s.Add(store.StreamID{Ms: 1, Seq: 1}, nil); err != nil {
		t.Fatalf("Add(1-1): %v", err)
	}
	if err := s.Add(store.StreamID{Ms: 1, Seq: 1}, nil); err != store.ErrStreamIDTooSmall {
		t.Fatalf("Add(1-1) again = %v, want ErrStreamIDTooSmall", err)
	}
	if err := s.Add(store.StreamID{Ms: 0, Seq: 0}, nil); err != store.ErrStreamIDTooSmall {
		t.Fatalf("Add(0-0) = %v, want ErrStreamIDTooSmall", err)
	}
}

func TestStreamAutoGenNextID(t *testing.T) {
	t.Parallel()

	s := store.NewStream()
	if id := s.NextIDForMs(0); id != (store.StreamID{Ms: 0, Seq: 1}) {
		t.Fatalf("NextIDForMs(0) on empty = %v, want 0-1", id)
	}
	if id := s.NextIDForMs(5); id != (store.StreamID{Ms: 5, Seq: 0}) {
		t.Fatalf("NextIDForMs(5) on empty = %v, want 5-0", id)
	}

	_ = s.Add(store.StreamID{Ms: 5, Seq: 0}, nil)
	if id := s.NextIDForMs(5); id != (store.StreamID{Ms: 5, Seq: 1}) {
		t.Fatalf("NextIDForMs(5) after 5-0 = %v, want 5-1", id)
	}
}

func TestStreamGetRangeHalfOpen(t *testing.T) {
	t.Parallel()

	s := store.NewStream()
	_ = s.Add(store.StreamID{Ms: 1, Seq: 1}, nil)
	_ = s.Add(store.StreamID{Ms: 2, Seq: 1}, nil)
	_ = s.Add(store.StreamID{Ms: 3, Seq: 1}, nil)

	got := s.GetRange(store.StreamID{Ms: 1, Seq: 1}, store.StreamID{Ms: 3, Seq: 1})
	if len(got) != 2 || got[0].ID.Ms != 1 || got[1].ID.Ms != 2 {
		t.Fatalf("GetRange = %v", got)
	}
}

func TestExpiryLazyEviction(t *testing.T) {
	t.Parallel()

	e := store.ExpireAfter(-time.Second)
	if !e.HasPassed() {
		t.Fatal("expiry in the past should have passed")
	}

	future := store.ExpireAfter(time.Hour)
	if future.HasPassed() {
		t.Fatal("expiry in the future should not have passed")
	}

	if store.NoExpiry.HasPassed() {
		t.Fatal("no expiry should never pass")
	}
}
