package command_test

import (
	"testing"

	"github.com/rkvdb/rkv/resp"
)

func TestXRangeEndIsInclusive(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "XADD", "s", "1-1", "f", "v").Execute(ctx)

	got := mustParse(t, "XRANGE", "s", "1-1", "1-1").Execute(ctx)
	if got.Type != resp.Array || len(got.Array) != 1 {
		t.Fatalf("XRANGE s 1-1 1-1 = %+v, want 1 entry (end is inclusive)", got)
	}
	if id := string(got.Array[0].Array[0].Bulk); id != "1-1" {
		t.Fatalf("XRANGE entry id = %q, want \"1-1\"", id)
	}
}

func TestXRangePlusReadsToEnd(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "XADD", "s", "1-1", "f", "v").Execute(ctx)
	mustParse(t, "XADD", "s", "2-1", "f", "v").Execute(ctx)

	got := mustParse(t, "XRANGE", "s", "-", "+").Execute(ctx)
	if got.Type != resp.Array || len(got.Array) != 2 {
		t.Fatalf("XRANGE s - + = %+v, want 2 entries", got)
	}
}

func TestXReadExplicitIDExcludesThatEntry(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "XADD", "s", "1-1", "f", "v").Execute(ctx)
	mustParse(t, "XADD", "s", "1-2", "f", "v").Execute(ctx)

	got := mustParse(t, "XREAD", "STREAMS", "s", "1-1").Execute(ctx)
	if got.IsNullBulk() || got.Type != resp.Array || len(got.Array) != 1 {
		t.Fatalf("XREAD STREAMS s 1-1 = %+v, want a single stream result", got)
	}
	entries := got.Array[0].Array[1].Array
	if len(entries) != 1 {
		t.Fatalf("XREAD entries after id 1-1 = %d, want 1 (excluding 1-1 itself)", len(entries))
	}
	if id := string(entries[0].Array[0].Bulk); id != "1-2" {
		t.Fatalf("XREAD entry id = %q, want \"1-2\"", id)
	}
}
