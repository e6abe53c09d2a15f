package command_test

import (
	"testing"

	"github.com/rkvdb/rkv/command"
	"github.com/rkvdb/rkv/resp"
)

func TestMultiExecRunsQueuedWrites(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "MULTI").Execute(ctx)
	if !ctx.Txn.IsQueued() {
		t.Fatal("MULTI did not queue the transaction")
	}

	var propagated []command.Command
	ctx.Propagate = func(c command.Command) { propagated = append(propagated, c) }

	ctx.Txn.Enqueue(mustParse(t, "SET", "a", "1"))
	ctx.Txn.Enqueue(mustParse(t, "GET", "a"))

	reply := mustParse(t, "EXEC").Execute(ctx)
	if reply.Type != resp.Array || len(reply.Array) != 2 {
		t.Fatalf("EXEC reply = %+v, want array of 2", reply)
	}
	if string(reply.Array[1].Bulk) != "1" {
		t.Fatalf("EXEC reply[1] = %+v, want bulk \"1\"", reply.Array[1])
	}
	if len(propagated) != 1 {
		t.Fatalf("propagated %d commands, want 1 (only the write)", len(propagated))
	}
	if ctx.Txn.IsQueued() {
		t.Fatal("EXEC did not clear the transaction slot")
	}
}

func TestExecWithoutMultiErrors(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	got := mustParse(t, "EXEC").Execute(ctx)
	if got.Type != resp.Error {
		t.Fatalf("EXEC without MULTI = %+v, want error", got)
	}
}

func TestDiscardClearsQueue(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "MULTI").Execute(ctx)
	ctx.Txn.Enqueue(mustParse(t, "SET", "a", "1"))

	got := mustParse(t, "DISCARD").Execute(ctx)
	if got.Type != resp.SimpleString || got.Str != "OK" {
		t.Fatalf("DISCARD = %+v, want +OK", got)
	}
	if ctx.Txn.IsQueued() {
		t.Fatal("DISCARD did not clear the queued state")
	}
}

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	ctx, _ := newContext()

	mustParse(t, "SUBSCRIBE", "news").Execute(ctx)
	if len(ctx.Subs) != 1 {
		t.Fatalf("SUBSCRIBE left %d subscriptions, want 1", len(ctx.Subs))
	}

	got := mustParse(t, "PUBLISH", "news", "hi").Execute(ctx)
	if got.Int != 1 {
		t.Fatalf("PUBLISH = %d, want 1 (this connection's own subscription)", got.Int)
	}

	sub := ctx.Subs["news"]
	select {
	case msg := <-sub.Messages:
		if string(msg.Payload) != "hi" {
			t.Fatalf("received payload = %q, want \"hi\"", msg.Payload)
		}
	default:
		t.Fatal("expected a buffered message")
	}
}
