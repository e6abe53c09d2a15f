package command_test

import (
	"sync"
	"testing"

	"github.com/rkvdb/rkv/resp"
)

func TestIncrOnMissingKeyStartsAtOne(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	got := mustParse(t, "INCR", "counter").Execute(ctx)
	if got.Type != resp.Integer || got.Int != 1 {
		t.Fatalf("INCR on missing key = %+v, want :1", got)
	}
}

func TestIncrNonIntegerIsError(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "SET", "k", "not-a-number").Execute(ctx)
	got := mustParse(t, "INCR", "k").Execute(ctx)
	if got.Type != resp.Error {
		t.Fatalf("INCR on non-integer = %+v, want error", got)
	}

	// A failed INCR must not mutate the string (spec.md §4.2: "failure
	// signals NotAnInteger without mutating").
	if v := mustParse(t, "GET", "k").Execute(ctx); string(v.Bulk) != "not-a-number" {
		t.Fatalf("GET after failed INCR = %+v, want unchanged value", v)
	}
}

// TestIncrConcurrentIsRaceFree drives many goroutines through INCR on the
// same key at once. Each call must observe a lock held across its whole
// read-parse-increment-writeback cycle (database.Database.WithValue) — if
// it didn't, two goroutines could both read the same starting value and
// one increment would be lost.
func TestIncrConcurrentIsRaceFree(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	const n = 200
	incr := mustParse(t, "INCR", "counter")
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			incr.Execute(ctx)
		}()
	}
	wg.Wait()

	got := mustParse(t, "GET", "counter").Execute(ctx)
	if string(got.Bulk) != "200" {
		t.Fatalf("GET counter after %d concurrent INCRs = %q, want \"200\"", n, got.Bulk)
	}
}
