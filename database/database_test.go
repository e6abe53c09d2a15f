package database_test

import (
	"testing"
	"time"

	"github.com/rkvdb/rkv/database"
	"github.com/rkvdb/rkv/store"
)

func TestGetSetDelete(t *testing.T) {
	t.Parallel()

	d := database.New()
	d.Set("k", store.Entry{Value: store.NewStringValue(store.NewString([]byte("v")))})

	e, ok := d.Get("k")
	if !ok {
		t.Fatal("Get(k) not found")
	}
	s, err := e.Value.AsString()
	if err != nil || string(s.Bytes()) != "v" {
		t.Fatalf("Get(k) = %v, %v", s, err)
	}

	if !d.Delete("k") {
		t.Fatal("Delete(k) should report true")
	}
	if _, ok := d.Get("k"); ok {
		t.Fatal("Get(k) after delete should miss")
	}
	if d.Delete("k") {
		t.Fatal("Delete(k) twice should report false")
	}
}

func TestLazyExpiry(t *testing.T) {
	t.Parallel()

	d := database.New()
	d.Set("k", store.Entry{
		Value:  store.NewStringValue(store.NewString([]byte("v"))),
		Expiry: store.ExpireAfter(-time.Second),
	})

	if _, ok := d.Get("k"); ok {
		t.Fatal("Get(k) should evict an already-expired entry")
	}
	if len(d.Keys()) != 0 {
		t.Fatal("Keys() should not list an expired key")
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	d := database.New()
	d.Set("a", store.Entry{Value: store.NewStringValue(store.NewString([]byte("1")))})
	d.Set("b", store.Entry{Value: store.NewStringValue(store.NewString([]byte("2")))})

	keys := d.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() = %v, want 2 entries", keys)
	}
}

func TestWithValueDeletesEmptyCollection(t *testing.T) {
	t.Parallel()

	d := database.New()
	l := store.NewList()
	l.RPush([]byte("only"))
	d.Set("list", store.Entry{Value: store.NewListValue(l)})

	d.WithValue("list", func(e store.Entry, present bool) (store.Entry, bool) {
		lst, _ := e.Value.AsList()
		lst.LPop(1)
		return e, true
	})

	if _, ok := d.Get("list"); ok {
		t.Fatal("list should be deleted once drained empty")
	}
}

func TestWaitForWakesOnNotify(t *testing.T) {
	t.Parallel()

	d := database.New()
	done := make(chan store.Entry, 1)

	go func() {
		e, ok := d.WaitFor("q", nil, func(e store.Entry, present bool) bool {
			return present
		})
		if ok {
			done <- e
		}
	}()

	time.Sleep(20 * time.Millisecond)
	d.Set("q", store.Entry{Value: store.NewStringValue(store.NewString([]byte("ready")))})
	d.Notify("q")

	select {
	case e := <-done:
		s, _ := e.Value.AsString()
		if string(s.Bytes()) != "ready" {
			t.Fatalf("woke with %q, want ready", s.Bytes())
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not wake within timeout")
	}
}

func TestWaitForCancel(t *testing.T) {
	t.Parallel()

	d := database.New()
	cancel := make(chan struct{})
	done := make(chan bool, 1)

	go func() {
		_, ok := d.WaitFor("never", cancel, func(e store.Entry, present bool) bool {
			return present
		})
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	close(cancel)

	select {
	case ok := <-done:
		if ok {
			t.Fatal("WaitFor should report false on cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not return after cancel")
	}
}

func TestKeyspaceIndependence(t *testing.T) {
	t.Parallel()

	ks := database.NewKeyspace(16)
	if ks.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", ks.Len())
	}

	ks.Get(0).Set("k", store.Entry{Value: store.NewStringValue(store.NewString([]byte("zero")))})
	if _, ok := ks.Get(1).Get("k"); ok {
		t.Fatal("databases must not share state")
	}
	if ks.Get(99) != nil {
		t.Fatal("out-of-range index should return nil")
	}
}
