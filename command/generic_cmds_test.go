package command_test

import (
	"testing"

	"github.com/rkvdb/rkv/command"
	"github.com/rkvdb/rkv/resp"
)

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "SET", "greeting", "hello").Execute(ctx)
	got := mustParse(t, "GET", "greeting").Execute(ctx)
	if got.Type != resp.Bulk || string(got.Bulk) != "hello" {
		t.Fatalf("GET = %+v, want bulk \"hello\"", got)
	}
}

func TestGetMissingKeyIsNullBulk(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	got := mustParse(t, "GET", "nope").Execute(ctx)
	if !got.IsNullBulk() {
		t.Fatalf("GET of missing key = %+v, want null bulk", got)
	}
}

func TestDelExistsType(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "SET", "k", "v").Execute(ctx)

	if got := mustParse(t, "EXISTS", "k").Execute(ctx); got.Int != 1 {
		t.Fatalf("EXISTS before DEL = %d, want 1", got.Int)
	}
	if got := mustParse(t, "TYPE", "k").Execute(ctx); got.Type != resp.SimpleString || got.Str != "string" {
		t.Fatalf("TYPE = %+v, want simple string \"string\"", got)
	}

	if got := mustParse(t, "DEL", "k").Execute(ctx); got.Int != 1 {
		t.Fatalf("DEL = %d, want 1", got.Int)
	}
	if got := mustParse(t, "EXISTS", "k").Execute(ctx); got.Int != 0 {
		t.Fatalf("EXISTS after DEL = %d, want 0", got.Int)
	}
}

func TestKeysGlob(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "SET", "user:1", "a").Execute(ctx)
	mustParse(t, "SET", "user:2", "b").Execute(ctx)
	mustParse(t, "SET", "order:1", "c").Execute(ctx)

	got := mustParse(t, "KEYS", "user:*").Execute(ctx)
	if got.Type != resp.Array || len(got.Array) != 2 {
		t.Fatalf("KEYS user:* = %+v, want 2 matches", got)
	}
}

func TestExpireAndTTL(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "SET", "k", "v").Execute(ctx)
	if got := mustParse(t, "EXPIRE", "k", "100").Execute(ctx); got.Int != 1 {
		t.Fatalf("EXPIRE = %d, want 1", got.Int)
	}

	got := mustParse(t, "TTL", "k").Execute(ctx)
	if got.Type != resp.Integer || got.Int <= 0 || got.Int > 100 {
		t.Fatalf("TTL after EXPIRE 100 = %+v, want 0 < ttl <= 100", got)
	}
}

func TestTTLOnKeyWithoutExpiry(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "SET", "k", "v").Execute(ctx)
	got := mustParse(t, "TTL", "k").Execute(ctx)
	if got.Int != -1 {
		t.Fatalf("TTL on key without expiry = %d, want -1", got.Int)
	}
}

func TestSelectSwitchesDatabase(t *testing.T) {
	t.Parallel()
	ctx, ks := newContext()

	mustParse(t, "SELECT", "1").Execute(ctx)
	if ctx.DBIndex != 1 || ctx.DB != ks.Get(1) {
		t.Fatalf("SELECT 1 did not switch context, DBIndex=%d", ctx.DBIndex)
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	if _, err := command.Parse([][]byte{[]byte("NOPE")}); err == nil {
		t.Fatal("Parse(NOPE) should error")
	}
}
